package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice types.
const (
	InvoiceTypeDeposit      = "deposit"      // acompte
	InvoiceTypeIntermediate = "intermediate" // situation intermédiaire
	InvoiceTypeFinal        = "final"
	InvoiceTypeCreditNote   = "credit_note" // avoir
)

// Invoice statuses. Invoices are never deleted, only status-transitioned.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Invoice (facture). Lines are flat; sections exist on quotes only.
// Totals and the AmountPaid/AmountDue ledger columns are derived: totals
// from the lines, the ledger from recorded payments.
type Invoice struct {
	ID        uint    `gorm:"primaryKey"`
	CompanyID uint    `gorm:"not null;index"`
	ClientID  uint    `gorm:"not null;index"`
	Client    Client  `gorm:"foreignKey:ClientID"`
	ProjectID uint    `gorm:"index"`
	Project   Project `gorm:"foreignKey:ProjectID"`
	QuoteID   uint    `gorm:"index"` // devis d'origine, le cas échéant
	Number    string  `gorm:"not null;index"`
	Type      string  `gorm:"not null;default:'final'"`
	Status    string  `gorm:"not null;default:'draft'"`

	Lines []InvoiceLine `gorm:"foreignKey:InvoiceID"`

	DiscountPercent decimal.Decimal `gorm:"type:numeric"`
	Subtotal        decimal.Decimal `gorm:"type:numeric"`
	DiscountAmount  decimal.Decimal `gorm:"type:numeric"`
	TotalHT         decimal.Decimal `gorm:"type:numeric"`
	TotalTTC        decimal.Decimal `gorm:"type:numeric"`
	VATDetail       string

	AmountPaid decimal.Decimal `gorm:"type:numeric"`
	AmountDue  decimal.Decimal `gorm:"type:numeric"`

	IssueDate time.Time
	DueDate   *time.Time
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i Invoice) GetCompanyID() uint { return i.CompanyID }

// Overdue: unpaid past the due date.
func (i Invoice) Overdue(now time.Time) bool {
	return i.Status != InvoiceStatusPaid && i.Status != InvoiceStatusCancelled &&
		i.DueDate != nil && i.DueDate.Before(now)
}

// InvoiceLine mirrors QuoteLine without the section grouping.
type InvoiceLine struct {
	ID              uint            `gorm:"primaryKey"`
	InvoiceID       uint            `gorm:"not null;index"`
	Designation     string          `gorm:"not null"`
	Description     string
	Quantity        decimal.Decimal `gorm:"type:numeric"`
	Unit            string
	UnitPrice       decimal.Decimal `gorm:"type:numeric"`
	VATRate         decimal.Decimal `gorm:"type:numeric"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric"`
	TotalHT         decimal.Decimal `gorm:"type:numeric"`
	Position        int             `gorm:"not null"`
}

// Payment methods.
const (
	PaymentMethodTransfer    = "transfer"
	PaymentMethodCard        = "card"
	PaymentMethodCheque      = "cheque"
	PaymentMethodCash        = "cash"
	PaymentMethodMobileMoney = "mobile_money"
)

// Payment is an immutable record owned by exactly one invoice.
// It has no UpdatedAt on purpose: created once, never edited.
type Payment struct {
	ID        uint            `gorm:"primaryKey"`
	CompanyID uint            `gorm:"not null;index"`
	InvoiceID uint            `gorm:"not null;index"`
	Amount    decimal.Decimal `gorm:"type:numeric;not null"`
	Date      time.Time       `gorm:"not null"`
	Method    string          `gorm:"not null"`
	Reference string
	Notes     string
	CreatedAt time.Time
}

func (p Payment) GetCompanyID() uint { return p.CompanyID }
