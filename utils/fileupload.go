package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxFileSize is 10MB in bytes.
	MaxFileSize = 10 * 1024 * 1024
)

// allowedTypes maps permitted extensions to their content type.
var allowedTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".pdf":  "application/pdf",
}

// FileUploadError represents a file upload validation error.
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateAttachment checks the uploaded file's size and extension.
func ValidateAttachment(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	if _, ok := allowedTypes[strings.ToLower(filepath.Ext(fileHeader.Filename))]; !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only .png, .jpg, .jpeg and .pdf files are allowed",
		}
	}

	return nil
}

// ContentType returns the content type for a permitted filename, or
// application/octet-stream.
func ContentType(filename string) string {
	if ct, ok := allowedTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ObjectKey builds a collision-free storage key: <prefix>/<unix>_<8 hex>_<base name>.
func ObjectKey(prefix, filename string, now time.Time) string {
	base := strings.ReplaceAll(filepath.Base(filename), " ", "_")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d_%s_%s", strings.Trim(prefix, "/"), now.Unix(), suffix, base)
}
