package services

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
)

// DocumentStore abstracts the upload storage used by registration, intake
// and form-template management.
type DocumentStore interface {
	SaveMultipart(fh *multipart.FileHeader, subdir, filename string) (string, error)
	Delete(relPath string) error
	PublicURL(relPath string) string
}

const (
	maxImageUploadBytes    = 5 << 20  // 5 MB
	maxDocumentUploadBytes = 10 << 20 // 10 MB
)

// sniffContentType detects the MIME type from file content, not the
// client-supplied header.
func sniffContentType(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	contentType := http.DetectContentType(buf[:n])
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return contentType, nil
}

func mimeAllowed(contentType string, allowed []string) bool {
	for _, a := range allowed {
		if contentType == a {
			return true
		}
	}
	return false
}

var (
	imageMIMETypes = []string{"image/jpeg", "image/png"}

	// Application form uploads accept PDFs and images.
	applicationMIMETypes = []string{"application/pdf", "image/jpeg", "image/png"}

	// Word documents sniff as zip (docx) or msword (legacy doc).
	certificateMIMETypes = []string{"application/pdf", "application/zip", "application/msword"}

	templateMIMETypes = []string{"application/pdf", "application/zip", "application/msword", "image/jpeg", "image/png"}
)
