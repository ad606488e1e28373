package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/condo-ledger/internal/filter"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Transaction handlers
func (h *Handler) ListTransactions(c *gin.Context) {
	f := filter.Parse(c.Request.URL.Query())

	resp, err := h.service.ListTransactions(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ExportTransactions(c *gin.Context) {
	f := filter.Parse(c.Request.URL.Query())

	var buf bytes.Buffer
	if err := h.service.ExportTransactions(c.Request.Context(), f, &buf); err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("transactions-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handler) GetTransaction(c *gin.Context) {
	tx, err := h.service.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}

// transactionsIntents are the actions on the transaction collection
func (h *Handler) transactionsIntents() intentTable {
	return intentTable{
		"create": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			req, err := bind[models.CreateTransactionRequest](c)
			if err != nil {
				return nil, err
			}
			tx, err := h.service.CreateTransaction(c.Request.Context(), actor, req)
			if err != nil {
				return nil, err
			}
			return gin.H{"transaction": tx}, nil
		},
		"import": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			file, err := c.FormFile("file")
			if err != nil {
				return nil, &badRequest{msg: "a CSV file is required"}
			}
			f, err := file.Open()
			if err != nil {
				return nil, fmt.Errorf("error opening upload: %w", err)
			}
			defer f.Close()

			result, err := h.service.ImportTransactions(c.Request.Context(), actor, f, c.PostForm("bankAccountId"))
			if err != nil {
				return nil, err
			}
			return gin.H{"result": result}, nil
		},
	}
}

// transactionIntents are the actions on a single transaction
func (h *Handler) transactionIntents() intentTable {
	return intentTable{
		"updateDescription": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			req, err := bind[models.UpdateDescriptionRequest](c)
			if err != nil {
				return nil, err
			}
			return nil, h.service.UpdateTransactionDescription(c.Request.Context(), actor, c.Param("id"), req.Description)
		},
		"assignOwner": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			req, err := bind[models.AssignOwnerRequest](c)
			if err != nil {
				return nil, err
			}
			return nil, h.service.AssignTransactionOwner(c.Request.Context(), actor, c.Param("id"), req.OwnerID)
		},
		"addTag": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			req, err := bind[models.TransactionTagRequest](c)
			if err != nil {
				return nil, err
			}
			return nil, h.service.AddTransactionTag(c.Request.Context(), actor, c.Param("id"), req.TagID)
		},
		"removeTag": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			req, err := bind[models.TransactionTagRequest](c)
			if err != nil {
				return nil, err
			}
			return nil, h.service.RemoveTransactionTag(c.Request.Context(), actor, c.Param("id"), req.TagID)
		},
		"markDuplicate": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			req, err := bind[models.MarkDuplicateRequest](c)
			if err != nil {
				return nil, err
			}
			return nil, h.service.MarkTransactionDuplicate(c.Request.Context(), actor, c.Param("id"), req.Duplicate)
		},
		"autoAssignOwner": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			result := h.service.AutoAssign(c.Request.Context(), actor, c.Param("id"))
			resp := gin.H{
				"success": result.Success,
				"ownerId": result.OwnerID,
				"tagIds":  result.TagIDs,
			}
			if result.Error != "" {
				resp["error"] = result.Error
			}
			return resp, nil
		},
		"uploadAttachment": h.uploadAttachment(func(c *gin.Context) service.AttachmentParent {
			return service.AttachmentParent{TransactionID: c.Param("id")}
		}),
		"deleteAttachment": h.deleteAttachment(func(c *gin.Context) service.AttachmentParent {
			return service.AttachmentParent{TransactionID: c.Param("id")}
		}),
	}
}
