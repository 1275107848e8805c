package models

import "time"

// Document is an uploaded file attached to a business entity.
type Document struct {
	ID         uint   `gorm:"primaryKey"`
	CompanyID  uint   `gorm:"not null;index"`
	OwnerType  string // ex: "Project", "Client", "Invoice", "Moodboard"
	OwnerID    uint
	Name       string `gorm:"not null"` // nom du fichier d'origine
	Path       string `gorm:"not null"` // chemin dans le magasin de fichiers
	MimeType   string
	Size       int64
	UploadedBy uint
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (d Document) GetCompanyID() uint { return d.CompanyID }

// Template is an HTML document template filled with entity fields for the
// generic (non-financial) document export.
type Template struct {
	ID        uint   `gorm:"primaryKey"`
	CompanyID uint   `gorm:"not null;index"`
	Type      string // ex: "letter", "contract", "handover"
	Name      string `gorm:"not null"`
	Content   string // HTML avec des champs {{.Client.Name}} etc.
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Template) GetCompanyID() uint { return t.CompanyID }

// Moodboard collects visual references for a project.
type Moodboard struct {
	ID          uint            `gorm:"primaryKey"`
	CompanyID   uint            `gorm:"not null;index"`
	ProjectID   uint            `gorm:"index"`
	Title       string          `gorm:"not null"`
	Description string
	Items       []MoodboardItem `gorm:"foreignKey:MoodboardID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (m Moodboard) GetCompanyID() uint { return m.CompanyID }

type MoodboardItem struct {
	ID          uint   `gorm:"primaryKey"`
	MoodboardID uint   `gorm:"not null;index"`
	ImagePath   string
	Caption     string
	Position    int `gorm:"not null"`
}
