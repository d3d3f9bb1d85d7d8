package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sync"
)

type mockObject struct {
	content     []byte
	contentType string
}

// MockS3Service is a mock implementation of S3Service for testing.
type MockS3Service struct {
	objects map[string]mockObject
	mu      sync.RWMutex
}

// NewMockS3Service creates a new mock S3 service.
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		objects: make(map[string]mockObject),
	}
}

// SetAsMockForTesting sets this mock as the global S3 service instance for testing.
func (m *MockS3Service) SetAsMockForTesting() {
	SetS3Service(m)
}

// UploadFile stores the file content in memory under key.
func (m *MockS3Service) UploadFile(_ context.Context, fileHeader *multipart.FileHeader, key, contentType string) error {
	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	m.mu.Lock()
	m.objects[key] = mockObject{content: content, contentType: contentType}
	m.mu.Unlock()

	return nil
}

// GetPresignedURL returns a fake URL for stored keys.
func (m *MockS3Service) GetPresignedURL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.objects[key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("file not found in mock S3: %s", key)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

// DeleteFile removes a key from mock storage.
func (m *MockS3Service) DeleteFile(_ context.Context, key string) error {
	if key == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()

	return nil
}

// FileExists checks if a file exists in mock storage.
func (m *MockS3Service) FileExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.objects[key]
	return exists
}

// ContentTypeOf returns the content type a key was uploaded with.
func (m *MockS3Service) ContentTypeOf(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[key].contentType
}

// Keys returns every stored key.
func (m *MockS3Service) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

// Clear removes all files from mock storage.
func (m *MockS3Service) Clear() {
	m.mu.Lock()
	m.objects = make(map[string]mockObject)
	m.mu.Unlock()
}
