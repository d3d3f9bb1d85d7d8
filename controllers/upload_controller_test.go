package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kendall-kelly/tailorly-api/services"
	"github.com/kendall-kelly/tailorly-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMockStorage installs an attachment service backed by the in-memory S3 mock.
func setupMockStorage(t *testing.T) *services.MockS3Service {
	t.Helper()
	mockS3 := services.NewMockS3Service()
	services.SetAttachmentService(services.NewS3AttachmentService(mockS3))
	t.Cleanup(func() { services.SetAttachmentService(nil) })
	return mockS3
}

func TestUploadAttachment_Success(t *testing.T) {
	mockS3 := setupMockStorage(t)

	router := setupTestRouter()
	router.POST("/attachments", UploadAttachment)

	req := testutil.NewMultipartRequest(t, http.MethodPost, "/attachments?prefix=designs", "sketch.png", []byte("fake PNG content"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Key       string `json:"key"`
			URL       string `json:"url"`
			ExpiresIn int    `json:"expires_in"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.True(t, strings.HasPrefix(response.Data.Key, "designs/"))
	assert.True(t, strings.HasSuffix(response.Data.Key, "_sketch.png"))
	assert.Contains(t, response.Data.URL, response.Data.Key)
	assert.Equal(t, 3600, response.Data.ExpiresIn)
	assert.True(t, mockS3.FileExists(response.Data.Key))
	assert.Equal(t, "image/png", mockS3.ContentTypeOf(response.Data.Key))
}

func TestUploadAttachment_DefaultsToChatPrefix(t *testing.T) {
	mockS3 := setupMockStorage(t)

	router := setupTestRouter()
	router.POST("/attachments", UploadAttachment)

	req := testutil.NewMultipartRequest(t, http.MethodPost, "/attachments", "invoice.pdf", []byte("%PDF-1.4"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	keys := mockS3.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "chat/"))
	assert.Equal(t, "application/pdf", mockS3.ContentTypeOf(keys[0]))
}

func TestUploadAttachment_Rejections(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		filename     string
		noFile       bool
		expectedCode string
	}{
		{name: "unknown prefix", url: "/attachments?prefix=secrets", filename: "a.png", expectedCode: "INVALID_PREFIX"},
		{name: "unsupported format", url: "/attachments", filename: "tool.exe", expectedCode: "INVALID_FILE_FORMAT"},
		{name: "missing file", url: "/attachments", noFile: true, expectedCode: "MISSING_FILE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockS3 := setupMockStorage(t)

			router := setupTestRouter()
			router.POST("/attachments", UploadAttachment)

			var req *http.Request
			if tt.noFile {
				req = httptest.NewRequest(http.MethodPost, tt.url, nil)
			} else {
				req = testutil.NewMultipartRequest(t, http.MethodPost, tt.url, tt.filename, []byte("content"))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedCode)
			assert.Empty(t, mockS3.Keys())
		})
	}
}

func TestUploadAttachment_StorageNotConfigured(t *testing.T) {
	services.SetAttachmentService(nil)

	router := setupTestRouter()
	router.POST("/attachments", UploadAttachment)

	req := testutil.NewMultipartRequest(t, http.MethodPost, "/attachments", "a.png", []byte("content"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "STORAGE_UNAVAILABLE")
}

func TestGetAttachment_RedirectsToPresignedURL(t *testing.T) {
	setupMockStorage(t)

	router := setupTestRouter()
	router.POST("/attachments", UploadAttachment)
	router.GET("/attachments/:prefix/:filename", GetAttachment)

	upload := httptest.NewRecorder()
	router.ServeHTTP(upload, testutil.NewMultipartRequest(t, http.MethodPost, "/attachments?prefix=profiles", "Avatar.PNG", []byte("png")))
	require.Equal(t, http.StatusCreated, upload.Code)

	var uploaded struct {
		Data struct {
			Key string `json:"key"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(upload.Body.Bytes(), &uploaded))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attachments/"+uploaded.Data.Key, nil))

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://test-bucket.s3.us-east-1.amazonaws.com/"+uploaded.Data.Key+"?mock=true", w.Header().Get("Location"))
	assert.Equal(t, "private, max-age=300", w.Header().Get("Cache-Control"))
}

func TestGetAttachment_FileNotFound(t *testing.T) {
	setupMockStorage(t)

	router := setupTestRouter()
	router.GET("/attachments/:prefix/:filename", GetAttachment)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attachments/chat/nonexistent.png", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "FILE_NOT_FOUND")
	assert.Contains(t, w.Body.String(), "Attachment not found")
}

func TestGetAttachment_InvalidRequests(t *testing.T) {
	setupMockStorage(t)

	router := setupTestRouter()
	router.GET("/attachments/:prefix/:filename", GetAttachment)

	tests := []struct {
		name         string
		path         string
		expectedCode string
	}{
		{"dot dot in filename", "/attachments/chat/..secret.png", "INVALID_FILENAME"},
		{"backslash in filename", "/attachments/chat/a%5Cb.png", "INVALID_FILENAME"},
		{"unknown prefix", "/attachments/etc/passwd.png", "INVALID_FILENAME"},
		{"unsupported extension", "/attachments/chat/notes.txt", "INVALID_FILE_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedCode)
		})
	}
}
