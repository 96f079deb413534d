package billing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"chorebot-api/internal/config"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleClients bundles the Sheets, Drive and Docs API wrappers behind the
// billing client interfaces. Every call runs under a capped exponential
// retry.
type GoogleClients struct {
	sheets *sheets.Service
	drive  *drive.Service
	docs   *docs.Service

	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleClients builds the three Google API services from a service
// account credentials file.
func NewGoogleClients(ctx context.Context, cfg config.BillingConfig, logger *zap.Logger) (*GoogleClients, error) {
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("billing credentials file is required")
	}

	opts := []option.ClientOption{
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(drive.DriveScope, docs.DocumentsScope, sheets.SpreadsheetsScope),
	}

	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	docsSvc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docs service: %w", err)
	}

	return &GoogleClients{
		sheets:        sheetsSvc,
		drive:         driveSvc,
		docs:          docsSvc,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// retry runs op under a capped exponential backoff bound to ctx.
func (c *GoogleClients) retry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 1 * time.Second
	policy.MaxInterval = 15 * time.Second
	policy.MaxElapsedTime = 1 * time.Minute

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != 429 {
			return backoff.Permanent(err)
		}
		c.logger.Warn("Retryable Google API error", zap.Error(err))
		return err
	}, backoff.WithContext(policy, ctx))
}

// GetValues reads a range from the billing spreadsheet.
func (c *GoogleClients) GetValues(ctx context.Context, readRange string) ([][]string, error) {
	var resp *sheets.ValueRange
	err := c.retry(ctx, func() error {
		var err error
		resp, err = c.sheets.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", readRange, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendRow appends one row to the named sheet.
func (c *GoogleClients) AppendRow(ctx context.Context, sheetName string, values []interface{}) error {
	body := &sheets.ValueRange{Values: [][]interface{}{values}}

	err := c.retry(ctx, func() error {
		_, err := c.sheets.Spreadsheets.Values.Append(c.spreadsheetID, sheetName, body).
			ValueInputOption("USER_ENTERED").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to append to sheet %s: %w", sheetName, err)
	}
	return nil
}

// CopyFile copies a file into a folder and returns the new file ID.
func (c *GoogleClients) CopyFile(ctx context.Context, fileID, folderID string) (string, error) {
	var copied *drive.File
	err := c.retry(ctx, func() error {
		var err error
		copied, err = c.drive.Files.Copy(fileID, &drive.File{Parents: []string{folderID}}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to copy file %s: %w", fileID, err)
	}
	return copied.Id, nil
}

// ExportPDF renders a Google Doc as PDF bytes.
func (c *GoogleClients) ExportPDF(ctx context.Context, fileID string) ([]byte, error) {
	var data []byte
	err := c.retry(ctx, func() error {
		resp, err := c.drive.Files.Export(fileID, "application/pdf").Context(ctx).Download()
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		data, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export file %s: %w", fileID, err)
	}
	return data, nil
}

// UploadPDF stores PDF bytes under a name in a folder.
func (c *GoogleClients) UploadPDF(ctx context.Context, name, folderID string, data []byte) (string, error) {
	var created *drive.File
	err := c.retry(ctx, func() error {
		var err error
		created, err = c.drive.Files.Create(&drive.File{Name: name, Parents: []string{folderID}}).
			Media(bytes.NewReader(data), googleapi.ContentType("application/pdf")).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return created.Id, nil
}

// DeleteFile removes a file.
func (c *GoogleClients) DeleteFile(ctx context.Context, fileID string) error {
	err := c.retry(ctx, func() error {
		return c.drive.Files.Delete(fileID).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fileID, err)
	}
	return nil
}

// ReplaceAll substitutes every placeholder occurrence in a document.
func (c *GoogleClients) ReplaceAll(ctx context.Context, docID string, replacements map[string]string) error {
	requests := make([]*docs.Request, 0, len(replacements))
	for marker, value := range replacements {
		requests = append(requests, &docs.Request{
			ReplaceAllText: &docs.ReplaceAllTextRequest{
				ContainsText: &docs.SubstringMatchCriteria{Text: marker, MatchCase: true},
				ReplaceText:  value,
			},
		})
	}

	err := c.retry(ctx, func() error {
		_, err := c.docs.Documents.BatchUpdate(docID,
			&docs.BatchUpdateDocumentRequest{Requests: requests}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to fill document %s: %w", docID, err)
	}
	return nil
}
