package services_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"os"
	"testing"

	pkglogger "github.com/rmagsino/iskolar/pkg/logger"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func newTestAudit() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(newTestLogger())
}

// makeFileHeader builds a real multipart.FileHeader by round-tripping the
// content through an in-memory multipart form.
func makeFileHeader(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&buf, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	require.NotEmpty(t, form.File[field])
	return form.File[field][0]
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

// MockEmailService records outbound notifications.
type MockEmailService struct {
	resetRecipients  []string
	statusRecipients []string
	failSend         bool
}

func (m *MockEmailService) SendPasswordReset(ctx context.Context, email, firstName, token string) error {
	if m.failSend {
		return errors.New("ses unavailable")
	}
	m.resetRecipients = append(m.resetRecipients, email)
	return nil
}

func (m *MockEmailService) SendApplicationStatus(ctx context.Context, email, firstName, scholarshipTitle, status string) error {
	if m.failSend {
		return errors.New("ses unavailable")
	}
	m.statusRecipients = append(m.statusRecipients, email)
	return nil
}

// MockDocumentStore records saves and deletes without touching disk.
type MockDocumentStore struct {
	saved    []string
	deleted  []string
	failSave bool
}

func (m *MockDocumentStore) SaveMultipart(fh *multipart.FileHeader, subdir, filename string) (string, error) {
	if m.failSave {
		return "", errors.New("disk full")
	}
	path := subdir + "/" + filename
	m.saved = append(m.saved, path)
	return path, nil
}

func (m *MockDocumentStore) Delete(relPath string) error {
	m.deleted = append(m.deleted, relPath)
	return nil
}

func (m *MockDocumentStore) PublicURL(relPath string) string {
	return "/uploads/" + relPath
}
