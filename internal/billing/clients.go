package billing

import "context"

// SheetsClient is the narrow spreadsheet surface the billing pipeline needs.
type SheetsClient interface {
	// GetValues reads a range and returns the cell rows as strings.
	GetValues(ctx context.Context, readRange string) ([][]string, error)

	// AppendRow appends one row to the named sheet.
	AppendRow(ctx context.Context, sheetName string, values []interface{}) error
}

// DriveClient is the narrow file surface the billing pipeline needs.
type DriveClient interface {
	// CopyFile copies a file into a folder and returns the new file ID.
	CopyFile(ctx context.Context, fileID, folderID string) (string, error)

	// ExportPDF renders a Google Doc as PDF bytes.
	ExportPDF(ctx context.Context, fileID string) ([]byte, error)

	// UploadPDF stores PDF bytes under a name in a folder and returns the
	// file ID.
	UploadPDF(ctx context.Context, name, folderID string, data []byte) (string, error)

	// DeleteFile removes a file.
	DeleteFile(ctx context.Context, fileID string) error
}

// DocsClient is the narrow document surface the billing pipeline needs.
type DocsClient interface {
	// ReplaceAll substitutes every placeholder occurrence in a document.
	ReplaceAll(ctx context.Context, docID string, replacements map[string]string) error
}

// Notifier sends a billing reply to a chat. Satisfied by the chatbot
// service.
type Notifier interface {
	SendMessage(chatID int64, text string) error
}
