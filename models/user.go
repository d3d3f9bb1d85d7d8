package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the tagged variant stored on every identity.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleTailor   Role = "tailor"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleTailor, RoleAdmin:
		return true
	}
	return false
}

// User represents an authenticated identity (customer, tailor or admin).
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      Role           `gorm:"type:varchar(20);not null;default:'customer'" json:"role"` // fixed at sign-up
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
