package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/kendall-kelly/tailorly-api/utils"
)

// Storage prefixes for uploaded files.
const (
	ChatAttachmentPrefix  = "chat"
	DesignReferencePrefix = "designs"
	ProfileImagePrefix    = "profiles"
)

// AttachmentService handles validated uploads of chat attachments, design
// references and profile images.
type AttachmentService interface {
	// Upload validates and stores a file under prefix, returning the storage key
	Upload(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error)

	// URL returns a time-limited download URL for key
	URL(ctx context.Context, key string) (string, error)

	Delete(ctx context.Context, key string) error
}

// S3AttachmentService implements AttachmentService using AWS S3 for storage.
type S3AttachmentService struct {
	s3Service S3Interface
	now       func() time.Time
}

var attachmentServiceInstance AttachmentService

// InitAttachmentService initializes the attachment service with an S3 backend.
func InitAttachmentService(s3Service S3Interface) AttachmentService {
	attachmentServiceInstance = NewS3AttachmentService(s3Service)
	return attachmentServiceInstance
}

func NewS3AttachmentService(s3Service S3Interface) *S3AttachmentService {
	return &S3AttachmentService{s3Service: s3Service, now: time.Now}
}

// GetAttachmentService returns the initialized attachment service, or nil when storage is not configured.
func GetAttachmentService() AttachmentService {
	return attachmentServiceInstance
}

// SetAttachmentService sets the attachment service instance (primarily for testing).
func SetAttachmentService(service AttachmentService) {
	attachmentServiceInstance = service
}

func (s *S3AttachmentService) Upload(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error) {
	if err := utils.ValidateAttachment(fileHeader); err != nil {
		return "", err
	}

	key := utils.ObjectKey(prefix, fileHeader.Filename, s.now())
	if err := s.s3Service.UploadFile(ctx, fileHeader, key, utils.ContentType(fileHeader.Filename)); err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}

	return key, nil
}

func (s *S3AttachmentService) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate attachment URL: %w", err)
	}

	return url, nil
}

func (s *S3AttachmentService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(ctx, key); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	return nil
}
