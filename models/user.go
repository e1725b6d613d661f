package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleOwner      = "owner"
	RoleEmployee   = "employee"
	RoleSuperadmin = "superadmin"
)

// User represents a login in the system (workshop owner, employee or superadmin)
type User struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Auth0ID    string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name       string         `gorm:"not null" json:"name"`
	Email      string         `gorm:"uniqueIndex;not null" json:"email"`
	Role       string         `gorm:"not null;default:'owner'" json:"role"` // "owner", "employee" or "superadmin"
	WorkshopID *uint          `gorm:"index" json:"workshop_id"`             // nil for superadmins
	Workshop   *Workshop      `gorm:"foreignKey:WorkshopID" json:"workshop,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user can manage the workshop (owners and superadmins)
func (u *User) IsAdmin() bool {
	return u.Role == RoleOwner || u.Role == RoleSuperadmin
}
