package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/service"
	"github.com/sirupsen/logrus"
)

// Handler handles HTTP requests
type Handler struct {
	service service.Service
	logger  logrus.FieldLogger
}

// NewHandler creates a new Handler
func NewHandler(service service.Service, logger logrus.FieldLogger) *Handler {
	registerValidators()
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// SetupRoutes sets up the routes for the API
func (h *Handler) SetupRoutes(router *gin.Engine) {
	// Public routes
	auth := router.Group("/api/auth")
	{
		auth.POST("/magic-link", h.RequestMagicLink)
		auth.GET("/verify", h.VerifyMagicLink)
	}
	router.GET("/unauthorized", h.Unauthorized)

	// Protected routes
	protected := router.Group("/")
	protected.Use(AuthMiddleware())
	{
		protected.GET("/api/auth/session", h.Session)
		protected.POST("/api/auth/sign-out", h.SignOut)

		protected.GET("/transactions", h.ListTransactions)
		protected.GET("/transactions/export", h.ExportTransactions)
		protected.GET("/transactions/:id", h.GetTransaction)

		protected.GET("/owners", h.ListOwners)
		protected.GET("/owners/:id", h.GetOwner)

		protected.GET("/tags", h.ListTags)
		protected.GET("/tags/:id", h.GetTag)

		protected.GET("/payments", h.MonthlyPayments)

		protected.GET("/lpg", h.ListLpgRefills)
		protected.GET("/lpg/:id", h.GetLpgRefill)

		protected.GET("/bank-accounts", h.ListBankAccounts)
		protected.GET("/attachments/:id", h.DownloadAttachment)
		protected.GET("/audit-logs", h.ListAuditLogs)
	}

	// Mutations
	admin := protected.Group("/")
	admin.Use(h.AdminOnly())
	{
		admin.POST("/transactions", h.dispatch(h.transactionsIntents()))
		admin.POST("/transactions/:id", h.dispatch(h.transactionIntents()))

		admin.POST("/owners", h.dispatch(h.ownersIntents()))
		admin.POST("/owners/:id", h.dispatch(h.ownerIntents()))

		admin.POST("/tags", h.dispatch(h.tagsIntents()))
		admin.POST("/tags/:id", h.dispatch(h.tagIntents()))

		admin.POST("/lpg/new", h.CreateLpgRefill)
		admin.POST("/lpg/:id", h.dispatch(h.lpgIntents()))

		admin.POST("/bank-accounts", h.dispatch(h.bankAccountsIntents()))
	}
}

// Unauthorized is where non-admin users land after attempting a mutation
func (h *Handler) Unauthorized(c *gin.Context) {
	c.JSON(http.StatusForbidden, models.ErrorResponse{
		Status:  "error",
		Code:    "FORBIDDEN",
		Message: "Administrator access required",
	})
}
