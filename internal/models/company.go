package models

import (
	"strings"
	"time"
)

// Company is the tenant root. Every business entity carries a CompanyID
// used as the sole multi-tenancy boundary (enforced at query time).
type Company struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null;index"` // nom commercial
	LegalName   string
	VATNumber   string
	Address     string
	City        string
	Country     string
	Phone       string
	Email       string
	Website     string
	LogoPath    string // chemin du logo, repris sur les documents PDF
	Currency    string `gorm:"not null;default:'XOF'"` // montants affichés en FCFA
	LegalFooter string // mentions imprimées en pied de page des documents
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c Company) GetCompanyID() uint { return c.ID }

// Initials are used as the logo placeholder when the image cannot be loaded.
func (c Company) Initials() string {
	var b strings.Builder
	for _, word := range strings.Fields(c.Name) {
		b.WriteRune([]rune(word)[0])
		if b.Len() >= 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return strings.ToUpper(b.String())
}
