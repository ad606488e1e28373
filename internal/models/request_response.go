package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request models. Intent requests bind from either form fields or a JSON body.
type MagicLinkRequest struct {
	Email string `json:"email" form:"email" binding:"required,email"`
}

type CreateOwnerRequest struct {
	Name        string `json:"name" form:"name" binding:"required"`
	Email       string `json:"email" form:"email" binding:"omitempty,email"`
	Phone       string `json:"phone" form:"phone"`
	ApartmentID string `json:"apartmentId" form:"apartmentId" binding:"required"`
}

type UpdateOwnerRequest CreateOwnerRequest

type CreateBankAccountRequest struct {
	Name          string `json:"name" form:"name" binding:"required"`
	BankName      string `json:"bankName" form:"bankName"`
	AccountNumber string `json:"accountNumber" form:"accountNumber"`
}

type CreateTransactionRequest struct {
	Type            string   `json:"type" form:"type" binding:"required,oneof=debit credit"`
	Amount          string   `json:"amount" form:"amount" binding:"required"`
	Date            string   `json:"date" form:"date" binding:"required,datetime=2006-01-02"`
	Description     string   `json:"description" form:"description"`
	BankDescription string   `json:"bankDescription" form:"bankDescription"`
	OwnerID         string   `json:"ownerId" form:"ownerId"`
	BankAccountID   string   `json:"bankAccountId" form:"bankAccountId"`
	Reference       string   `json:"reference" form:"reference"`
	Category        string   `json:"category" form:"category"`
	Serial          string   `json:"serial" form:"serial"`
	TagIDs          []string `json:"tagIds" form:"tagIds"`
}

type UpdateDescriptionRequest struct {
	Description string `json:"description" form:"description"`
}

// AssignOwnerRequest assigns an owner; an empty OwnerID unassigns
type AssignOwnerRequest struct {
	OwnerID string `json:"ownerId" form:"ownerId"`
}

type TransactionTagRequest struct {
	TagID string `json:"tagId" form:"tagId" binding:"required"`
}

type MarkDuplicateRequest struct {
	Duplicate bool `json:"duplicate" form:"duplicate"`
}

type CreateTagRequest struct {
	Name      string `json:"name" form:"name" binding:"required"`
	Color     string `json:"color" form:"color" binding:"omitempty,hexcolor"`
	MonthYear string `json:"monthYear" form:"monthYear" binding:"omitempty,datetime=2006-01"`
}

type UpdateTagRequest CreateTagRequest

type CreatePatternRequest struct {
	Pattern         string `json:"pattern" form:"pattern" binding:"required,regex"`
	ApplyToExisting bool   `json:"applyToExisting" form:"applyToExisting"`
}

type PatternRequest struct {
	PatternID string `json:"patternId" form:"patternId" binding:"required"`
}

type AttachmentRequest struct {
	AttachmentID string `json:"attachmentId" form:"attachmentId" binding:"required"`
}

type LpgEntryRequest struct {
	OwnerID         string  `json:"ownerId" binding:"required"`
	PreviousReading *string `json:"previousReading"`
	CurrentReading  string  `json:"currentReading" binding:"required"`
}

type CreateLpgRefillRequest struct {
	Date         string            `json:"date" binding:"required,datetime=2006-01-02"`
	PricePerUnit string            `json:"pricePerUnit" binding:"required"`
	Notes        string            `json:"notes"`
	Entries      []LpgEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

// Response models
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type MagicLinkResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TransactionTotals sums the filtered transactions per direction
type TransactionTotals struct {
	Credit decimal.Decimal `json:"credit"`
	Debit  decimal.Decimal `json:"debit"`
}

type TransactionListResponse struct {
	Transactions []Transaction     `json:"transactions"`
	Total        int               `json:"total"`
	Page         int               `json:"page"`
	PageCount    int               `json:"pageCount"`
	Limit        int               `json:"limit"`
	Query        string            `json:"query"`
	Totals       TransactionTotals `json:"totals"`
}

// AutoAssignResult reports what the pattern heuristic did to one transaction
type AutoAssignResult struct {
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	OwnerID *string  `json:"ownerId"`
	TagIDs  []string `json:"tagIds"`
}

// ApplyPatternResult reports a pattern run against stored transactions
type ApplyPatternResult struct {
	Matched  int   `json:"matched"`
	Assigned int64 `json:"assigned"`
}

type PatternResponse struct {
	Pattern Pattern             `json:"pattern"`
	Applied *ApplyPatternResult `json:"applied,omitempty"`
}

type ImportResult struct {
	Imported     int      `json:"imported"`
	Duplicates   int      `json:"duplicates"`
	AutoAssigned int      `json:"autoAssigned"`
	Errors       []string `json:"errors"`
}

// Payment status values
const (
	PaymentPaid    = "paid"
	PaymentPending = "pending"
)

type PaymentEntry struct {
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
}

// OwnerPayment is one owner's standing for the selected monthly-payment tags
type OwnerPayment struct {
	Owner           Owner           `json:"owner"`
	AmountPaid      decimal.Decimal `json:"amountPaid"`
	PaymentCount    int             `json:"paymentCount"`
	LastPaymentDate *time.Time      `json:"lastPaymentDate"`
	Status          string          `json:"status"`
	Payments        []PaymentEntry  `json:"payments"`
}

type PaymentSummary struct {
	Paid           int             `json:"paid"`
	Pending        int             `json:"pending"`
	TotalCollected decimal.Decimal `json:"totalCollected"`
}

type PaymentsResponse struct {
	Tags    []Tag          `json:"tags"`
	Owners  []OwnerPayment `json:"owners"`
	Summary PaymentSummary `json:"summary"`
}

type OwnerDetailResponse struct {
	Owner    Owner     `json:"owner"`
	Patterns []Pattern `json:"patterns"`
}

type TagDetailResponse struct {
	Tag      Tag       `json:"tag"`
	Patterns []Pattern `json:"patterns"`
}

type AuditLogListResponse struct {
	Entries   []AuditLogEntry `json:"entries"`
	Total     int             `json:"total"`
	Page      int             `json:"page"`
	PageCount int             `json:"pageCount"`
}
