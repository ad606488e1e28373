package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/storage"
	"github.com/rongwang/condo-ledger/internal/utils"
)

// UploadAttachment stores the file bytes first and the attachment row second
func (s *DefaultService) UploadAttachment(
	ctx context.Context,
	actor models.Actor,
	parent AttachmentParent,
	file Upload,
) (*models.Attachment, error) {
	if err := s.checkParent(ctx, parent); err != nil {
		return nil, err
	}

	filename := path.Base(strings.ReplaceAll(strings.TrimSpace(file.Filename), "\\", "/"))
	if filename == "" || filename == "." || filename == "/" {
		return nil, validationError("file name is required")
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	id := uuid.New().String()
	key := attachmentKey(parent, id)

	size, err := s.blobs.Put(ctx, key, contentType, file.Body)
	if err != nil {
		return nil, fmt.Errorf("error storing file: %w", err)
	}

	attachment := &models.Attachment{
		ID:            id,
		TransactionID: optionalID(parent.TransactionID),
		LpgRefillID:   optionalID(parent.LpgRefillID),
		Filename:      filename,
		ContentType:   contentType,
		SizeBytes:     size,
		StorageKey:    key,
		UploadedBy:    actor.Email,
	}
	if err := s.repo.CreateAttachment(ctx, attachment); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			utils.LogError(s.logger, "service", "UploadAttachment", "remove orphaned blob", key, delErr)
		}
		return nil, fmt.Errorf("error creating attachment: %w", err)
	}

	s.record(ctx, actor, models.AuditCreate, models.EntityAttachment, attachment.ID, map[string]any{
		"filename":      attachment.Filename,
		"sizeBytes":     attachment.SizeBytes,
		"transactionId": attachment.TransactionID,
		"lpgRefillId":   attachment.LpgRefillID,
	})
	return attachment, nil
}

// DeleteAttachment removes an attachment that belongs to parent
func (s *DefaultService) DeleteAttachment(
	ctx context.Context,
	actor models.Actor,
	parent AttachmentParent,
	attachmentID string,
) error {
	attachment, err := s.requireAttachment(ctx, attachmentID)
	if err != nil {
		return err
	}
	if !belongsTo(attachment, parent) {
		return notFound("attachment")
	}

	if err := s.removeAttachment(ctx, attachment); err != nil {
		return err
	}

	s.record(ctx, actor, models.AuditDelete, models.EntityAttachment, attachment.ID, map[string]any{
		"filename": attachment.Filename,
	})
	return nil
}

func (s *DefaultService) OpenAttachment(ctx context.Context, id string) (*models.Attachment, io.ReadCloser, error) {
	attachment, err := s.requireAttachment(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	body, err := s.blobs.Get(ctx, attachment.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, notFound("file")
		}
		return nil, nil, fmt.Errorf("error reading file: %w", err)
	}
	return attachment, body, nil
}

// removeAttachment deletes the row, then the blob. A blob left behind is
// only logged.
func (s *DefaultService) removeAttachment(ctx context.Context, attachment *models.Attachment) error {
	if err := s.repo.DeleteAttachment(ctx, attachment.ID); err != nil {
		return fmt.Errorf("error deleting attachment: %w", err)
	}
	if err := s.blobs.Delete(ctx, attachment.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		utils.LogError(s.logger, "service", "removeAttachment", "delete blob", attachment.StorageKey, err)
	}
	return nil
}

func (s *DefaultService) requireAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	attachment, err := s.repo.GetAttachment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting attachment: %w", err)
	}
	if attachment == nil {
		return nil, notFound("attachment")
	}
	return attachment, nil
}

func (s *DefaultService) checkParent(ctx context.Context, parent AttachmentParent) error {
	switch {
	case parent.TransactionID != "" && parent.LpgRefillID != "":
		return validationError("an attachment belongs to a transaction or a refill, not both")
	case parent.TransactionID != "":
		_, err := s.requireTransaction(ctx, parent.TransactionID)
		return err
	case parent.LpgRefillID != "":
		_, err := s.GetLpgRefill(ctx, parent.LpgRefillID)
		return err
	default:
		return validationError("an attachment needs a transaction or a refill")
	}
}

func belongsTo(a *models.Attachment, parent AttachmentParent) bool {
	if parent.TransactionID != "" {
		return a.TransactionID != nil && *a.TransactionID == parent.TransactionID
	}
	if parent.LpgRefillID != "" {
		return a.LpgRefillID != nil && *a.LpgRefillID == parent.LpgRefillID
	}
	return false
}

func attachmentKey(parent AttachmentParent, id string) string {
	if parent.LpgRefillID != "" {
		return path.Join("lpg", parent.LpgRefillID, id)
	}
	return path.Join("transactions", parent.TransactionID, id)
}
