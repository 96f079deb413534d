package billing

import (
	"context"
	"fmt"
	"sync"
)

// MockSheetsClient provides an in-memory spreadsheet for testing.
type MockSheetsClient struct {
	mu       sync.Mutex
	values   map[string][][]string
	appended map[string][][]interface{}
	getErr   error
}

// NewMockSheetsClient creates a new MockSheetsClient instance
func NewMockSheetsClient() *MockSheetsClient {
	return &MockSheetsClient{
		values:   make(map[string][][]string),
		appended: make(map[string][][]interface{}),
	}
}

// SetValues stubs the rows returned for a range
func (m *MockSheetsClient) SetValues(readRange string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[readRange] = rows
}

// SetGetError makes GetValues fail
func (m *MockSheetsClient) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

// Appended returns the rows appended to a sheet
func (m *MockSheetsClient) Appended(sheetName string) [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appended[sheetName]
}

func (m *MockSheetsClient) GetValues(ctx context.Context, readRange string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.values[readRange], nil
}

func (m *MockSheetsClient) AppendRow(ctx context.Context, sheetName string, values []interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appended[sheetName] = append(m.appended[sheetName], values)
	return nil
}

// MockDriveClient provides an in-memory Drive for testing. Copies get IDs
// "copy-N", uploads "upload-N".
type MockDriveClient struct {
	mu        sync.Mutex
	copySeq   int
	uploadSeq int
	copies    []string
	uploads   map[string][]byte
	deleted   []string
	copyErr   error
	exported  map[string][]byte
}

// NewMockDriveClient creates a new MockDriveClient instance
func NewMockDriveClient() *MockDriveClient {
	return &MockDriveClient{
		uploads:  make(map[string][]byte),
		exported: make(map[string][]byte),
	}
}

// SetCopyError makes CopyFile fail
func (m *MockDriveClient) SetCopyError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.copyErr = err
}

// Deleted returns the IDs deleted so far
func (m *MockDriveClient) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.deleted))
	copy(out, m.deleted)
	return out
}

// UploadedNames returns the names of all uploaded files
func (m *MockDriveClient) UploadedNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.uploads))
	for name := range m.uploads {
		names = append(names, name)
	}
	return names
}

func (m *MockDriveClient) CopyFile(ctx context.Context, fileID, folderID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.copyErr != nil {
		return "", m.copyErr
	}
	m.copySeq++
	id := fmt.Sprintf("copy-%d", m.copySeq)
	m.copies = append(m.copies, id)
	return id, nil
}

func (m *MockDriveClient) ExportPDF(ctx context.Context, fileID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if data, ok := m.exported[fileID]; ok {
		return data, nil
	}
	return []byte("pdf:" + fileID), nil
}

func (m *MockDriveClient) UploadPDF(ctx context.Context, name, folderID string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadSeq++
	m.uploads[name] = data
	return fmt.Sprintf("upload-%d", m.uploadSeq), nil
}

func (m *MockDriveClient) DeleteFile(ctx context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, fileID)
	return nil
}

// MockDocsClient records placeholder substitutions for testing.
type MockDocsClient struct {
	mu       sync.Mutex
	replaced map[string]map[string]string
}

// NewMockDocsClient creates a new MockDocsClient instance
func NewMockDocsClient() *MockDocsClient {
	return &MockDocsClient{replaced: make(map[string]map[string]string)}
}

// Replacements returns the substitutions applied to a document
func (m *MockDocsClient) Replacements(docID string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaced[docID]
}

func (m *MockDocsClient) ReplaceAll(ctx context.Context, docID string, replacements map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make(map[string]string, len(replacements))
	for k, v := range replacements {
		copied[k] = v
	}
	m.replaced[docID] = copied
	return nil
}

// MockNotifier records billing replies for testing.
type MockNotifier struct {
	mu   sync.Mutex
	sent []struct {
		ChatID int64
		Text   string
	}
	sendErr error
}

// NewMockNotifier creates a new MockNotifier instance
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// SetSendError makes SendMessage fail
func (m *MockNotifier) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// Sent returns the recorded replies
func (m *MockNotifier) Sent() []struct {
	ChatID int64
	Text   string
} {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]struct {
		ChatID int64
		Text   string
	}, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *MockNotifier) SendMessage(chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, struct {
		ChatID int64
		Text   string
	}{chatID, text})
	return nil
}
