package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote lifecycle: draft → sent → accepted | rejected | expired.
const (
	QuoteStatusDraft    = "draft"
	QuoteStatusSent     = "sent"
	QuoteStatusAccepted = "accepted"
	QuoteStatusRejected = "rejected"
	QuoteStatusExpired  = "expired"
)

// Quote (devis) groups line items into ordered sections. The totals columns
// are a persisted snapshot of the billing computation; they are recomputed
// from the lines on every save, never edited directly.
type Quote struct {
	ID        uint    `gorm:"primaryKey"`
	CompanyID uint    `gorm:"not null;index"`
	ClientID  uint    `gorm:"not null;index"`
	Client    Client  `gorm:"foreignKey:ClientID"`
	ProjectID uint    `gorm:"index"`
	Project   Project `gorm:"foreignKey:ProjectID"`
	Number    string  `gorm:"not null;index"`
	Status    string  `gorm:"not null;default:'draft'"`

	Sections []QuoteSection `gorm:"foreignKey:QuoteID"`

	DiscountPercent decimal.Decimal `gorm:"type:numeric"` // remise globale
	Subtotal        decimal.Decimal `gorm:"type:numeric"`
	DiscountAmount  decimal.Decimal `gorm:"type:numeric"`
	TotalHT         decimal.Decimal `gorm:"type:numeric"`
	TotalTTC        decimal.Decimal `gorm:"type:numeric"`
	VATDetail       string          // JSON snapshot of per-rate buckets for display

	ValidUntil         *time.Time
	ConvertedInvoiceID uint // renseigné quand le devis a été converti en facture
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (q Quote) GetCompanyID() uint { return q.CompanyID }

// QuoteSection is an ordered group of lines within a quote.
type QuoteSection struct {
	ID       uint        `gorm:"primaryKey"`
	QuoteID  uint        `gorm:"not null;index"`
	Title    string      `gorm:"not null"`
	Position int         `gorm:"not null"`
	Lines    []QuoteLine `gorm:"foreignKey:SectionID"`
}

// QuoteLine is one billable row. TotalHT is derived, stored for display only.
type QuoteLine struct {
	ID              uint            `gorm:"primaryKey"`
	SectionID       uint            `gorm:"not null;index"`
	Designation     string          `gorm:"not null"`
	Description     string
	Quantity        decimal.Decimal `gorm:"type:numeric"`
	Unit            string          // m², unité, jour...
	UnitPrice       decimal.Decimal `gorm:"type:numeric"`
	VATRate         decimal.Decimal `gorm:"type:numeric"` // pourcentage
	DiscountPercent decimal.Decimal `gorm:"type:numeric"`
	TotalHT         decimal.Decimal `gorm:"type:numeric"`
	Position        int             `gorm:"not null"`
}
