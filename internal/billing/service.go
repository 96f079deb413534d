package billing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"chorebot-api/internal/common"
	"chorebot-api/internal/config"
	"chorebot-api/internal/events"

	"go.uber.org/zap"
)

// Service drives the billing pipeline: pending spreadsheet rows become
// filled invoice/act documents, exported PDFs and a done-row, with a
// Telegram notification per bill.
type Service interface {
	// CreateBills processes every pending row. Row failures are logged
	// and the remaining rows continue.
	CreateBills(ctx context.Context) error

	// HandleUpdate reacts to a billing-bot chat message.
	HandleUpdate(ctx context.Context, chatID int64, text string) error
}

type service struct {
	sheets   SheetsClient
	drive    DriveClient
	docs     DocsClient
	notifier Notifier
	bus      events.EventBus
	clock    common.Clock
	config   config.BillingConfig
	logger   *zap.Logger
}

// NewService creates the billing service.
func NewService(sheets SheetsClient, drive DriveClient, docs DocsClient,
	notifier Notifier, bus events.EventBus, clock common.Clock,
	cfg config.BillingConfig, logger *zap.Logger) Service {
	return &service{
		sheets:   sheets,
		drive:    drive,
		docs:     docs,
		notifier: notifier,
		bus:      bus,
		clock:    clock,
		config:   cfg,
		logger:   logger,
	}
}

func (s *service) CreateBills(ctx context.Context) error {
	rows, err := s.sheets.GetValues(ctx, rangePending)
	if err != nil {
		return fmt.Errorf("failed to read pending rows: %w", err)
	}

	for i, raw := range rows {
		if err := s.createBill(ctx, Row(raw)); err != nil {
			s.logger.Error("Failed to create bill",
				zap.Int("row", i),
				zap.Error(err))
		}
	}
	return nil
}

// createBill runs one row through the whole pipeline.
func (s *service) createBill(ctx context.Context, row Row) error {
	if err := row.Validate(); err != nil {
		return err
	}

	requested, err := strconv.Atoi(strings.TrimSpace(row[colInvoiceNumber]))
	if err != nil {
		return fmt.Errorf("invalid invoice number %q: %w", row[colInvoiceNumber], err)
	}

	invoiceNum, err := s.nextFreeInvoiceNumber(ctx, requested)
	if err != nil {
		return err
	}

	client := row[colClientName]
	replacements := row.replacements(invoiceNum)

	invoiceURL, err := s.renderPDF(ctx, s.config.InvoiceTemplateID,
		fmt.Sprintf("invoice_%d_%s", invoiceNum, client), replacements)
	if err != nil {
		return fmt.Errorf("invoice rendering failed: %w", err)
	}

	actURL, err := s.renderPDF(ctx, s.config.ActTemplateID,
		fmt.Sprintf("act_%d_%s", invoiceNum, client), replacements)
	if err != nil {
		return fmt.Errorf("act rendering failed: %w", err)
	}

	if err := s.appendDoneRow(ctx, row, invoiceNum, invoiceURL, actURL); err != nil {
		return err
	}

	s.logger.Info("Bill created",
		zap.Int("invoice_number", invoiceNum),
		zap.String("client", client))

	s.publishBill(textBillNotification(row[colInvoiceDate], client, invoiceURL, actURL))
	return nil
}

// nextFreeInvoiceNumber bumps the requested number past every number already
// present in the done sheet.
func (s *service) nextFreeInvoiceNumber(ctx context.Context, number int) (int, error) {
	rows, err := s.sheets.GetValues(ctx, rangeDoneNumbers)
	if err != nil {
		return 0, fmt.Errorf("failed to read issued invoice numbers: %w", err)
	}

	taken := make(map[int]bool, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(row[0])); err == nil {
			taken[n] = true
		}
	}

	for taken[number] {
		number++
	}
	return number, nil
}

// renderPDF copies a Doc template, fills its placeholders, stores the PDF
// export and removes the temporary copy. Returns the download URL.
func (s *service) renderPDF(ctx context.Context, templateID, name string, replacements map[string]string) (string, error) {
	tempID, err := s.drive.CopyFile(ctx, templateID, s.config.PDFFolderID)
	if err != nil {
		return "", err
	}
	// The temp copy goes away even when a later step fails.
	defer func() {
		if err := s.drive.DeleteFile(ctx, tempID); err != nil {
			s.logger.Warn("Failed to delete temporary document",
				zap.String("file_id", tempID),
				zap.Error(err))
		}
	}()

	if err := s.docs.ReplaceAll(ctx, tempID, replacements); err != nil {
		return "", err
	}

	pdf, err := s.drive.ExportPDF(ctx, tempID)
	if err != nil {
		return "", err
	}

	fileID, err := s.drive.UploadPDF(ctx, name, s.config.PDFFolderID, pdf)
	if err != nil {
		return "", err
	}

	return DriveFileURL(fileID), nil
}

// appendDoneRow records the finished bill in the done sheet. The trailing
// "no" flag marks the payment as not yet received.
func (s *service) appendDoneRow(ctx context.Context, row Row, invoiceNum int, invoiceURL, actURL string) error {
	done, err := s.sheets.GetValues(ctx, rangeDoneCount)
	if err != nil {
		return fmt.Errorf("failed to count done rows: %w", err)
	}

	values := []interface{}{
		len(done) + 1,
		s.clock.Now().UTC().Format("2006-01-02"),
		invoiceNum,
		row[colInvoiceDate],
		row[colContract],
		row[colClientName],
		row[colClientEDRPOU],
		row[colClientAddress],
		row[colServiceName],
		row[colServiceCount],
		row[colServiceAmount],
		row[colAmountWords],
		invoiceURL,
		actURL,
		row[colExtra],
		"no",
	}

	if err := s.sheets.AppendRow(ctx, sheetDone, values); err != nil {
		return fmt.Errorf("failed to append done row: %w", err)
	}
	return nil
}

// HandleUpdate implements the billing chat protocol: exactly three
// whitespace-separated tokens are appended to the telegram sheet, /bill
// triggers a billing run, anything else gets the usage hint.
func (s *service) HandleUpdate(ctx context.Context, chatID int64, text string) error {
	parts := strings.Fields(text)

	switch {
	case len(parts) == 3:
		values := []interface{}{parts[0], parts[1], parts[2]}
		if err := s.sheets.AppendRow(ctx, sheetTelegram, values); err != nil {
			return fmt.Errorf("failed to append telegram row: %w", err)
		}
		return s.reply(chatID, textRowAppended(parts))

	case len(parts) > 0 && parts[0] == "/bill":
		if err := s.CreateBills(ctx); err != nil {
			return err
		}
		return s.reply(chatID, textBillGenerated)

	default:
		return s.reply(chatID, textThreeFields)
	}
}

func (s *service) reply(chatID int64, text string) error {
	if err := s.notifier.SendMessage(chatID, text); err != nil {
		s.logger.Error("Failed to send billing reply",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *service) publishBill(message string) {
	event := events.BillCreated{
		Event:   events.NewEvent(),
		ChatID:  s.config.ChatID,
		Message: message,
	}
	if err := s.bus.Publish(events.TopicBillCreated, event); err != nil {
		s.logger.Error("Failed to publish bill notification", zap.Error(err))
	}
}
