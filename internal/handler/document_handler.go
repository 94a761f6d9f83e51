package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akshardoc/akshardoc/internal/document"
	appErr "github.com/akshardoc/akshardoc/internal/pkg/errors"
	"github.com/akshardoc/akshardoc/internal/pkg/response"
	"github.com/akshardoc/akshardoc/internal/service"
)

type DocumentHandler struct {
	docs      *service.DocumentService
	maxBytes  int64
	uploadDir string
}

func NewDocumentHandler(docs *service.DocumentService, maxBytes int64, uploadDir string) *DocumentHandler {
	return &DocumentHandler{docs: docs, maxBytes: maxBytes, uploadDir: uploadDir}
}

// Process accepts a multipart upload and starts a processing job. The file
// field is "document"; mode, languages and an optional order id ride along as
// form values.
func (h *DocumentHandler) Process(c *gin.Context) {
	fileHeader, err := c.FormFile("document")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "document file is required")
		return
	}
	if h.maxBytes > 0 && fileHeader.Size > h.maxBytes {
		handleError(c, appErr.ErrFileTooLarge)
		return
	}
	if !document.SupportedExt(fileHeader.Filename) {
		handleError(c, appErr.ErrInvalidFile)
		return
	}

	opened, err := fileHeader.Open()
	if err != nil {
		handleError(c, err)
		return
	}
	defer opened.Close()

	tempPath, err := service.SaveTempFile(h.uploadDir, fileHeader.Filename, opened)
	if err != nil {
		handleError(c, err)
		return
	}
	defer service.CleanupUpload(tempPath)

	job, err := h.docs.Submit(c.Request.Context(), service.SubmitParams{
		Email:          getEmail(c),
		Mode:           c.PostForm("mode"),
		TargetLanguage: c.PostForm("target_language"),
		Language:       c.PostForm("language"),
		FilePath:       tempPath,
		FileName:       fileHeader.Filename,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"job_id":      job.ID,
		"status":      job.Status,
		"total_pages": job.TotalPages,
	})
}

func (h *DocumentHandler) Progress(c *gin.Context) {
	progress, err := h.docs.Progress(c.Request.Context(), getEmail(c), c.Param("job_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, progress)
}

func (h *DocumentHandler) Download(c *gin.Context) {
	reader, job, err := h.docs.DownloadByName(c.Request.Context(), getEmail(c), c.Param("filename"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.ID+".txt"))
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

func (h *DocumentHandler) SendDocument(c *gin.Context) {
	err := h.docs.Deliver(c.Request.Context(), getEmail(c), c.Param("job_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"sent": true})
}
