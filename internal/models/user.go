package models

import "time"

// Member roles. Stored as canonical English values; i18n owns the labels.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is a member of exactly one company.
type User struct {
	ID        uint    `gorm:"primaryKey"`
	CompanyID uint    `gorm:"not null;index"`
	Company   Company `gorm:"foreignKey:CompanyID"`
	Email     string  `gorm:"unique;not null;index"`
	Password  string  `gorm:"not null"` // bcrypt hash
	FirstName string
	LastName  string
	Role      string `gorm:"not null;default:'member'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) GetCompanyID() uint { return u.CompanyID }

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Notification is a dashboard message pushed to a member. Rows are also
// published on the realtime channel at creation; delivery is best effort.
type Notification struct {
	ID        uint   `gorm:"primaryKey"`
	CompanyID uint   `gorm:"not null;index"`
	UserID    uint   `gorm:"not null;index"`
	Type      string // ex: "payment", "quote", "invoice"
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (n Notification) GetCompanyID() uint { return n.CompanyID }
