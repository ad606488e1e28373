package api

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/service"
)

type parentFunc func(c *gin.Context) service.AttachmentParent

// uploadAttachment stores the multipart "file" field under the parent
func (h *Handler) uploadAttachment(parent parentFunc) intentFunc {
	return func(c *gin.Context, actor models.Actor) (gin.H, error) {
		file, err := c.FormFile("file")
		if err != nil {
			return nil, &badRequest{msg: "a file is required"}
		}
		f, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening upload: %w", err)
		}
		defer f.Close()

		attachment, err := h.service.UploadAttachment(c.Request.Context(), actor, parent(c), service.Upload{
			Filename:    file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Body:        f,
		})
		if err != nil {
			return nil, err
		}
		return gin.H{"attachment": attachment}, nil
	}
}

func (h *Handler) deleteAttachment(parent parentFunc) intentFunc {
	return func(c *gin.Context, actor models.Actor) (gin.H, error) {
		req, err := bind[models.AttachmentRequest](c)
		if err != nil {
			return nil, err
		}
		return nil, h.service.DeleteAttachment(c.Request.Context(), actor, parent(c), req.AttachmentID)
	}
}

// DownloadAttachment streams the stored file
func (h *Handler) DownloadAttachment(c *gin.Context) {
	attachment, body, err := h.service.OpenAttachment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, attachment.SizeBytes, attachment.ContentType, body, map[string]string{
		"Content-Disposition": mime.FormatMediaType("inline", map[string]string{"filename": attachment.Filename}),
	})
}
