package controllers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/services"
	"github.com/kendall-kelly/tailorly-api/utils"
)

var attachmentPrefixes = map[string]bool{
	services.ChatAttachmentPrefix:  true,
	services.DesignReferencePrefix: true,
	services.ProfileImagePrefix:    true,
}

// attachmentService returns the configured service, responding 503 when storage is off.
func attachmentService(c *gin.Context) (services.AttachmentService, bool) {
	svc := services.GetAttachmentService()
	if svc == nil {
		respondErrorCode(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "File storage is not configured")
		return nil, false
	}
	return svc, true
}

// UploadAttachment handles POST /api/v1/attachments?prefix=<chat|designs|profiles>.
// The file travels in multipart form field "file".
func UploadAttachment(c *gin.Context) {
	prefix := c.DefaultQuery("prefix", services.ChatAttachmentPrefix)
	if !attachmentPrefixes[prefix] {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_PREFIX", "prefix must be chat, designs or profiles")
		return
	}

	svc, ok := attachmentService(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondErrorCode(c, http.StatusBadRequest, "MISSING_FILE", "A file is required in form field \"file\"")
		return
	}

	ctx := c.Request.Context()
	key, err := svc.Upload(ctx, fileHeader, prefix)
	if err != nil {
		respondError(c, err, "attachment")
		return
	}
	url, err := svc.URL(ctx, key)
	if err != nil {
		respondError(c, err, "attachment")
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"key":        key,
		"url":        url,
		"expires_in": int(services.PresignExpiry.Seconds()),
	})
}

// GetAttachment handles GET /api/v1/attachments/:prefix/:filename - redirects to
// a presigned download URL.
func GetAttachment(c *gin.Context) {
	prefix := c.Param("prefix")
	filename := c.Param("filename")

	if filename == "" {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "Filename is required")
		return
	}

	// Keys are always <prefix>/<filename>; reject anything that could escape that shape
	if !attachmentPrefixes[prefix] ||
		strings.Contains(filename, "..") || strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	if utils.ContentType(filename) == "application/octet-stream" {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only .png, .jpg, .jpeg and .pdf files are supported")
		return
	}

	svc, ok := attachmentService(c)
	if !ok {
		return
	}

	url, err := svc.URL(c.Request.Context(), filepath.ToSlash(prefix+"/"+filename))
	if err != nil {
		respondErrorCode(c, http.StatusNotFound, "FILE_NOT_FOUND", "Attachment not found")
		return
	}

	c.Header("Cache-Control", "private, max-age=300")
	c.Redirect(http.StatusTemporaryRedirect, url)
}
