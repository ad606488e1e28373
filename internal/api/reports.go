package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/condo-ledger/internal/filter"
)

// MonthlyPayments reports paid and pending owners for the tagId query values
func (h *Handler) MonthlyPayments(c *gin.Context) {
	resp, err := h.service.MonthlyPayments(c.Request.Context(), c.QueryArray("tagId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListAuditLogs(c *gin.Context) {
	resp, err := h.service.ListAuditLogs(c.Request.Context(), filter.ParseAuditFilter(c.Request.URL.Query()))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
