package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rongwang/condo-ledger/internal/filter"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// ErrDuplicate is returned when an insert or update violates a unique constraint
var ErrDuplicate = errors.New("duplicate key")

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserRole(ctx context.Context, id, role string) error
	CreateMagicLink(ctx context.Context, link *models.MagicLink) error
	GetMagicLink(ctx context.Context, id string) (*models.MagicLink, error)
	ConsumeMagicLink(ctx context.Context, id string, at time.Time) (bool, error)

	// Owner operations
	CreateOwner(ctx context.Context, owner *models.Owner) error
	UpdateOwner(ctx context.Context, owner *models.Owner) error
	SetOwnerActive(ctx context.Context, id string, active bool) error
	GetOwner(ctx context.Context, id string) (*models.Owner, error)
	ListOwners(ctx context.Context, activeOnly bool) ([]models.Owner, error)

	// Bank account operations
	CreateBankAccount(ctx context.Context, account *models.BankAccount) error
	GetBankAccount(ctx context.Context, id string) (*models.BankAccount, error)
	ListBankAccounts(ctx context.Context) ([]models.BankAccount, error)

	// Transaction operations
	CreateTransaction(ctx context.Context, tx *models.Transaction, tagIDs []string) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	CountTransactions(ctx context.Context, f filter.TransactionFilter) (int, error)
	ListTransactions(ctx context.Context, f filter.TransactionFilter, limit, offset int) ([]models.Transaction, error)
	SumTransactionsByType(ctx context.Context, f filter.TransactionFilter) (map[models.TransactionType]decimal.Decimal, error)
	UpdateTransactionDescription(ctx context.Context, id, description string) error
	AssignTransactionOwner(ctx context.Context, id string, ownerID *string) error
	AssignOwnerIfUnassigned(ctx context.Context, ownerID string, transactionIDs []string) (int64, error)
	SetTransactionDuplicate(ctx context.Context, id string, duplicate bool) error
	TransactionExists(ctx context.Context, tx *models.Transaction) (bool, error)
	ListMatchableTransactions(ctx context.Context) ([]models.Transaction, error)
	ListOwnerCreditsByTags(ctx context.Context, ownerIDs, tagIDs []string) ([]models.Transaction, error)

	// Tag operations
	CreateTag(ctx context.Context, tag *models.Tag) error
	UpdateTag(ctx context.Context, tag *models.Tag) error
	DeleteTag(ctx context.Context, id string) error
	GetTag(ctx context.Context, id string) (*models.Tag, error)
	ListTags(ctx context.Context, monthlyOnly bool) ([]models.Tag, error)
	AddTransactionTag(ctx context.Context, transactionID, tagID string) (bool, error)
	AddTagToTransactions(ctx context.Context, tagID string, transactionIDs []string) (int64, error)
	RemoveTransactionTag(ctx context.Context, transactionID, tagID string) error

	// Pattern operations
	CreatePattern(ctx context.Context, pattern *models.Pattern) error
	GetPattern(ctx context.Context, id string) (*models.Pattern, error)
	SetPatternActive(ctx context.Context, id string, active bool) error
	DeletePattern(ctx context.Context, id string) error
	ListPatternsForTag(ctx context.Context, tagID string) ([]models.Pattern, error)
	ListPatternsForOwner(ctx context.Context, ownerID string) ([]models.Pattern, error)
	ListActivePatterns(ctx context.Context) ([]models.Pattern, error)

	// Attachment operations
	CreateAttachment(ctx context.Context, attachment *models.Attachment) error
	GetAttachment(ctx context.Context, id string) (*models.Attachment, error)
	DeleteAttachment(ctx context.Context, id string) error

	// LPG operations
	CreateLpgRefill(ctx context.Context, refill *models.LpgRefill) error
	GetLpgRefill(ctx context.Context, id string) (*models.LpgRefill, error)
	ListLpgRefills(ctx context.Context) ([]models.LpgRefill, error)
	DeleteLpgRefill(ctx context.Context, id string) error
	LatestReadings(ctx context.Context) (map[string]decimal.Decimal, error)

	// Audit log operations
	InsertAuditLog(ctx context.Context, entry *models.AuditLogEntry) error
	CountAuditLogs(ctx context.Context, f filter.AuditFilter) (int, error)
	ListAuditLogs(ctx context.Context, f filter.AuditFilter) ([]models.AuditLogEntry, error)
}

// SQLRepository implements the Repository interface on PostgreSQL or SQLite.
// Queries are written with '?' placeholders and rebound for the driver.
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository creates a new SQL repository
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *SQLRepository) GetDB() *sqlx.DB {
	return r.db
}

// withTx runs fn in a transaction
func (r *SQLRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// in expands slice arguments for IN clauses and rebinds the result
func (r *SQLRepository) in(query string, args ...any) (string, []any, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return r.db.Rebind(query), args, nil
}

// mapWriteError converts unique violations from either driver into ErrDuplicate
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) &&
		(liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return ErrDuplicate
	}
	return err
}

// now returns UTC time truncated to the precision PostgreSQL keeps
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// uniqueStrings drops empty and repeated ids, keeping order
func uniqueStrings(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
