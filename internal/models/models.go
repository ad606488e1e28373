package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a bank movement
type TransactionType string

const (
	TransactionDebit  TransactionType = "debit"
	TransactionCredit TransactionType = "credit"
)

// Valid reports whether t is one of the known transaction types
func (t TransactionType) Valid() bool {
	return t == TransactionDebit || t == TransactionCredit
}

// Roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents someone who can sign in
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// IsAdmin reports whether the user may run mutating actions
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// MagicLink is a one-time sign-in link; only the bcrypt hash of its secret is kept
type MagicLink struct {
	ID        string     `db:"id"`
	Email     string     `db:"email"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// Actor identifies who performed an action
type Actor struct {
	UserID string
	Email  string
	Role   string
}

// SystemActor is used for events that are not triggered by a signed-in user
var SystemActor = Actor{Email: "system"}

// IsSystem reports whether the actor is the system itself
func (a Actor) IsSystem() bool {
	return a.UserID == ""
}

// Owner is the resident record for an apartment unit
type Owner struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	ApartmentID string    `db:"apartment_id" json:"apartmentId"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// BankAccount is the account a transaction was imported from
type BankAccount struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	BankName      string    `db:"bank_name" json:"bankName"`
	AccountNumber string    `db:"account_number" json:"accountNumber"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// Transaction is a single bank movement
type Transaction struct {
	ID              string          `db:"id" json:"id"`
	Type            TransactionType `db:"type" json:"type"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Description     string          `db:"description" json:"description"`
	BankDescription string          `db:"bank_description" json:"bankDescription"`
	Date            time.Time       `db:"date" json:"date"`
	OwnerID         *string         `db:"owner_id" json:"ownerId"`
	BankAccountID   *string         `db:"bank_account_id" json:"bankAccountId"`
	Reference       string          `db:"reference" json:"reference"`
	Category        string          `db:"category" json:"category"`
	Serial          string          `db:"serial" json:"serial"`
	IsDuplicate     bool            `db:"is_duplicate" json:"isDuplicate"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`

	Owner       *Owner       `db:"-" json:"owner,omitempty"`
	Tags        []Tag        `db:"-" json:"tags"`
	Attachments []Attachment `db:"-" json:"attachments"`
}

// MatchText is the text patterns are evaluated against
func (t *Transaction) MatchText() string {
	if t.Description != "" {
		return t.Description
	}
	return t.BankDescription
}

// Tag is a label attachable to transactions. Tags with MonthYear set mark a
// recurring monthly payment.
type Tag struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Color     *string   `db:"color" json:"color"`
	MonthYear *string   `db:"month_year" json:"monthYear"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// IsMonthlyPayment reports whether the tag tracks a monthly payment
func (t *Tag) IsMonthlyPayment() bool {
	return t.MonthYear != nil && *t.MonthYear != ""
}

// TransactionTag is one row of the transaction<->tag association
type TransactionTag struct {
	TransactionID string    `db:"transaction_id" json:"transactionId"`
	TagID         string    `db:"tag_id" json:"tagId"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// Pattern is a regular expression that classifies transactions for either a
// tag or an owner, never both.
type Pattern struct {
	ID        string    `db:"id" json:"id"`
	Pattern   string    `db:"pattern" json:"pattern"`
	TagID     *string   `db:"tag_id" json:"tagId"`
	OwnerID   *string   `db:"owner_id" json:"ownerId"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Attachment is a file stored for a transaction or an LPG refill
type Attachment struct {
	ID            string    `db:"id" json:"id"`
	TransactionID *string   `db:"transaction_id" json:"transactionId"`
	LpgRefillID   *string   `db:"lpg_refill_id" json:"lpgRefillId"`
	Filename      string    `db:"filename" json:"filename"`
	ContentType   string    `db:"content_type" json:"contentType"`
	SizeBytes     int64     `db:"size_bytes" json:"sizeBytes"`
	StorageKey    string    `db:"storage_key" json:"-"`
	UploadedBy    string    `db:"uploaded_by" json:"uploadedBy"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// LpgRefill is a gas refill event shared between apartments
type LpgRefill struct {
	ID           string          `db:"id" json:"id"`
	RefillDate   time.Time       `db:"refill_date" json:"refillDate"`
	PricePerUnit decimal.Decimal `db:"price_per_unit" json:"pricePerUnit"`
	TotalUnits   decimal.Decimal `db:"total_units" json:"totalUnits"`
	TotalCost    decimal.Decimal `db:"total_cost" json:"totalCost"`
	Notes        string          `db:"notes" json:"notes"`
	CreatedBy    string          `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`

	Entries     []LpgRefillEntry `db:"-" json:"entries,omitempty"`
	Attachments []Attachment     `db:"-" json:"attachments,omitempty"`
}

// LpgRefillEntry is one apartment's share of a refill
type LpgRefillEntry struct {
	ID              string          `db:"id" json:"id"`
	RefillID        string          `db:"refill_id" json:"refillId"`
	OwnerID         string          `db:"owner_id" json:"ownerId"`
	PreviousReading decimal.Decimal `db:"previous_reading" json:"previousReading"`
	CurrentReading  decimal.Decimal `db:"current_reading" json:"currentReading"`
	Consumption     decimal.Decimal `db:"consumption" json:"consumption"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`

	Owner *Owner `db:"-" json:"owner,omitempty"`
}

// Audit event types
const (
	AuditCreate     = "create"
	AuditUpdate     = "update"
	AuditDelete     = "delete"
	AuditSignIn     = "sign_in"
	AuditSignOut    = "sign_out"
	AuditAutoAssign = "auto_assign"
	AuditImport     = "import"
)

// Audit entity types
const (
	EntityOwner       = "owner"
	EntityTransaction = "transaction"
	EntityTag         = "tag"
	EntityPattern     = "pattern"
	EntityAttachment  = "attachment"
	EntityLpgRefill   = "lpg_refill"
	EntityBankAccount = "bank_account"
	EntityUser        = "user"
)

// AuditLogEntry is an append-only record of something that happened
type AuditLogEntry struct {
	ID         string    `db:"id" json:"id"`
	EventType  string    `db:"event_type" json:"eventType"`
	EntityType string    `db:"entity_type" json:"entityType"`
	EntityID   string    `db:"entity_id" json:"entityId"`
	UserID     string    `db:"user_id" json:"userId"`
	UserEmail  string    `db:"user_email" json:"userEmail"`
	IsSystem   bool      `db:"is_system" json:"isSystem"`
	Details    string    `db:"details" json:"details"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
