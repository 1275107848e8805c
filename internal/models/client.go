package models

import "time"

// Client statuses, canonical English values. The backend historically mixed
// French and English spellings; i18n.Label is the single mapping out.
const (
	ClientStatusLead     = "lead"
	ClientStatusActive   = "active"
	ClientStatusArchived = "archived"
)

// Client of a company: the party quoted and invoiced.
type Client struct {
	ID          uint    `gorm:"primaryKey"`
	CompanyID   uint    `gorm:"not null;index"`
	Company     Company `gorm:"foreignKey:CompanyID"`
	Name        string  `gorm:"not null;index"` // raison sociale ou nom
	ContactName string
	Email       string
	Phone       string
	Address     string
	City        string
	Country     string
	Status      string `gorm:"not null;default:'lead'"`
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c Client) GetCompanyID() uint { return c.CompanyID }

// Project statuses.
const (
	ProjectStatusPlanned    = "planned"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusOnHold     = "on_hold"
	ProjectStatusCompleted  = "completed"
)

// Project is an interior-design assignment for a client.
type Project struct {
	ID          uint   `gorm:"primaryKey"`
	CompanyID   uint   `gorm:"not null;index"`
	ClientID    uint   `gorm:"not null;index"`
	Client      Client `gorm:"foreignKey:ClientID"`
	Name        string `gorm:"not null"`
	Description string
	Status      string `gorm:"not null;default:'planned'"`
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p Project) GetCompanyID() uint { return p.CompanyID }
