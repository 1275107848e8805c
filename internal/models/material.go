package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier of materials and furniture.
type Supplier struct {
	ID          uint    `gorm:"primaryKey"`
	CompanyID   uint    `gorm:"not null;index"`
	Company     Company `gorm:"foreignKey:CompanyID"`
	Name        string  `gorm:"not null;index"`
	ContactName string
	Email       string
	Phone       string
	Address     string
	Website     string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s Supplier) GetCompanyID() uint { return s.CompanyID }

// Material is a library entry (matériau, mobilier, finition) reusable in
// quote lines. UnitPrice is a reference price, not a committed one.
type Material struct {
	ID          uint            `gorm:"primaryKey"`
	CompanyID   uint            `gorm:"not null;index"`
	SupplierID  uint            `gorm:"index"`
	Supplier    Supplier        `gorm:"foreignKey:SupplierID"`
	Name        string          `gorm:"not null;index"`
	Reference   string          `gorm:"index"` // référence fournisseur
	Category    string          // ex: revêtement, luminaire, textile
	Unit        string          // m², ml, unité...
	UnitPrice   decimal.Decimal `gorm:"type:numeric"`
	VATRate     decimal.Decimal `gorm:"type:numeric"`
	Description string
	ImagePath   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (m Material) GetCompanyID() uint { return m.CompanyID }
