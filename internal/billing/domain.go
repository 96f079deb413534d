package billing

import "fmt"

// Spreadsheet tab names. The workbook layout is shared with the accountant,
// so they are fixed rather than configurable.
const (
	sheetGenerate = "generate_bill"
	sheetDone     = "bills_done"
	sheetTelegram = "telegram"
)

// Ranges read from the workbook.
const (
	rangePending     = sheetGenerate + "!B3:L3"
	rangeDoneNumbers = sheetDone + "!C3:C"
	rangeDoneCount   = sheetDone + "!A2:A"
)

// Column positions inside a pending row (the B3:L3 slice).
const (
	colInvoiceNumber = iota
	colInvoiceDate
	colContract
	colClientName
	colClientEDRPOU
	colClientAddress
	colServiceName
	colServiceCount
	colServiceAmount
	colAmountWords
	colExtra

	pendingRowWidth
)

// Row is one pending billing request read from the generate sheet.
type Row []string

// Validate checks the row carries every column the templates need.
func (r Row) Validate() error {
	if len(r) < pendingRowWidth {
		return fmt.Errorf("pending row has %d columns, want %d", len(r), pendingRowWidth)
	}
	return nil
}

// placeholders maps template markers to the row column that fills them. An
// extra entry for the de-duplicated invoice number is added at fill time.
var placeholders = map[string]int{
	"{invoice_date}":         colInvoiceDate,
	"{client_name}":          colClientName,
	"{client_edrpou}":        colClientEDRPOU,
	"{client_address}":       colClientAddress,
	"{service_name}":         colServiceName,
	"{service_count}":        colServiceCount,
	"{service_amount}":       colServiceAmount,
	"{service_amount_words}": colAmountWords,
}

// replacements builds the full placeholder substitution set for one row.
func (r Row) replacements(invoiceNumber int) map[string]string {
	out := make(map[string]string, len(placeholders)+1)
	out["{invoice_number}"] = fmt.Sprintf("%d", invoiceNumber)
	for marker, col := range placeholders {
		out[marker] = r[col]
	}
	return out
}

// DriveFileURL builds the public download link for a Drive file.
func DriveFileURL(fileID string) string {
	return "https://drive.google.com/uc?id=" + fileID
}

// User-facing replies of the billing webhook.
const (
	textBillGenerated = "Рахунок згенеровано"
	textThreeFields   = "Помилка: введіть три поля через пробіл."
)

func textRowAppended(parts []string) string {
	joined := parts[0]
	for _, p := range parts[1:] {
		joined += ", " + p
	}
	return "Дані успішно додані: " + joined
}

func textBillNotification(date, client, invoiceURL, actURL string) string {
	return fmt.Sprintf("%s\n%s\nРахунок: %s\nАкт: %s", date, client, invoiceURL, actURL)
}
