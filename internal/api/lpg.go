package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/service"
)

// LPG refill handlers
func (h *Handler) ListLpgRefills(c *gin.Context) {
	refills, err := h.service.ListLpgRefills(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, refills)
}

func (h *Handler) GetLpgRefill(c *gin.Context) {
	refill, err := h.service.GetLpgRefill(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, refill)
}

func (h *Handler) CreateLpgRefill(c *gin.Context) {
	h.respondIntent(c, func(c *gin.Context, actor models.Actor) (gin.H, error) {
		req, err := bind[models.CreateLpgRefillRequest](c)
		if err != nil {
			return nil, err
		}
		refill, err := h.service.CreateLpgRefill(c.Request.Context(), actor, req)
		if err != nil {
			return nil, err
		}
		return gin.H{"refill": refill}, nil
	})
}

func (h *Handler) lpgIntents() intentTable {
	parent := func(c *gin.Context) service.AttachmentParent {
		return service.AttachmentParent{LpgRefillID: c.Param("id")}
	}
	return intentTable{
		"delete": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			return nil, h.service.DeleteLpgRefill(c.Request.Context(), actor, c.Param("id"))
		},
		"uploadAttachment": h.uploadAttachment(parent),
		"deleteAttachment": h.deleteAttachment(parent),
	}
}
