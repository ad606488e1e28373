package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rongwang/condo-ledger/internal/audit"
	"github.com/rongwang/condo-ledger/internal/config"
	"github.com/rongwang/condo-ledger/internal/filter"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/repository"
	"github.com/rongwang/condo-ledger/internal/storage"
	"github.com/sirupsen/logrus"
)

// PatternTarget names the tag or the owner a pattern belongs to
type PatternTarget struct {
	TagID   string
	OwnerID string
}

// AttachmentParent names the transaction or the LPG refill a file belongs to
type AttachmentParent struct {
	TransactionID string
	LpgRefillID   string
}

// Upload is a file received from a client
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Service defines all the business logic operations
type Service interface {
	// Authentication
	RequestMagicLink(ctx context.Context, req models.MagicLinkRequest) (*models.MagicLinkResponse, error)
	VerifyMagicLink(ctx context.Context, token string) (*models.AuthResponse, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	SignOut(ctx context.Context, actor models.Actor)

	// Owners and bank accounts
	ListOwners(ctx context.Context, activeOnly bool) ([]models.Owner, error)
	GetOwner(ctx context.Context, id string) (*models.OwnerDetailResponse, error)
	CreateOwner(ctx context.Context, actor models.Actor, req models.CreateOwnerRequest) (*models.Owner, error)
	UpdateOwner(ctx context.Context, actor models.Actor, id string, req models.UpdateOwnerRequest) (*models.Owner, error)
	SetOwnerActive(ctx context.Context, actor models.Actor, id string, active bool) error
	ListBankAccounts(ctx context.Context) ([]models.BankAccount, error)
	CreateBankAccount(ctx context.Context, actor models.Actor, req models.CreateBankAccountRequest) (*models.BankAccount, error)

	// Transactions
	ListTransactions(ctx context.Context, f filter.TransactionFilter) (*models.TransactionListResponse, error)
	ExportTransactions(ctx context.Context, f filter.TransactionFilter, w io.Writer) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, actor models.Actor, req models.CreateTransactionRequest) (*models.Transaction, error)
	ImportTransactions(ctx context.Context, actor models.Actor, r io.Reader, bankAccountID string) (*models.ImportResult, error)
	UpdateTransactionDescription(ctx context.Context, actor models.Actor, id, description string) error
	AssignTransactionOwner(ctx context.Context, actor models.Actor, id, ownerID string) error
	AddTransactionTag(ctx context.Context, actor models.Actor, id, tagID string) error
	RemoveTransactionTag(ctx context.Context, actor models.Actor, id, tagID string) error
	MarkTransactionDuplicate(ctx context.Context, actor models.Actor, id string, duplicate bool) error
	AutoAssign(ctx context.Context, actor models.Actor, id string) models.AutoAssignResult

	// Tags and patterns
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id string) (*models.TagDetailResponse, error)
	CreateTag(ctx context.Context, actor models.Actor, req models.CreateTagRequest) (*models.Tag, error)
	UpdateTag(ctx context.Context, actor models.Actor, id string, req models.UpdateTagRequest) (*models.Tag, error)
	DeleteTag(ctx context.Context, actor models.Actor, id string) error
	CreatePattern(ctx context.Context, actor models.Actor, target PatternTarget, req models.CreatePatternRequest) (*models.PatternResponse, error)
	TogglePattern(ctx context.Context, actor models.Actor, target PatternTarget, patternID string) (*models.Pattern, error)
	DeletePattern(ctx context.Context, actor models.Actor, target PatternTarget, patternID string) error

	// Monthly payments
	MonthlyPayments(ctx context.Context, tagIDs []string) (*models.PaymentsResponse, error)

	// LPG refills
	ListLpgRefills(ctx context.Context) ([]models.LpgRefill, error)
	GetLpgRefill(ctx context.Context, id string) (*models.LpgRefill, error)
	CreateLpgRefill(ctx context.Context, actor models.Actor, req models.CreateLpgRefillRequest) (*models.LpgRefill, error)
	DeleteLpgRefill(ctx context.Context, actor models.Actor, id string) error

	// Attachments
	UploadAttachment(ctx context.Context, actor models.Actor, parent AttachmentParent, file Upload) (*models.Attachment, error)
	DeleteAttachment(ctx context.Context, actor models.Actor, parent AttachmentParent, attachmentID string) error
	OpenAttachment(ctx context.Context, id string) (*models.Attachment, io.ReadCloser, error)

	// Audit log
	ListAuditLogs(ctx context.Context, f filter.AuditFilter) (*models.AuditLogListResponse, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	blobs         storage.BlobStore
	mailer        Mailer
	audit         *audit.Recorder
	logger        logrus.FieldLogger
	jwtSecret     []byte
	tokenDuration time.Duration
	linkDuration  time.Duration
	adminEmails   map[string]bool
	baseURL       string
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(
	repo repository.Repository,
	blobs storage.BlobStore,
	mailer Mailer,
	logger logrus.FieldLogger,
	cfg *config.Config,
) Service {
	admins := make(map[string]bool, len(cfg.Auth.AdminEmails))
	for _, email := range cfg.Auth.AdminEmails {
		admins[normalizeEmail(email)] = true
	}

	return &DefaultService{
		repo:          repo,
		blobs:         blobs,
		mailer:        mailer,
		audit:         audit.NewRecorder(repo, logger),
		logger:        logger,
		jwtSecret:     []byte(cfg.Auth.JWTSecret),
		tokenDuration: 24 * time.Hour, // 24 hours token validity
		linkDuration:  15 * time.Minute,
		adminEmails:   admins,
		baseURL:       cfg.Server.BaseURL,
	}
}

func (s *DefaultService) record(ctx context.Context, actor models.Actor, eventType, entityType, entityID string, details map[string]any) {
	s.audit.Record(ctx, audit.Event{
		Type:       eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		Details:    details,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// optionalID turns an empty id into nil
func optionalID(id string) *string {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return &id
}
