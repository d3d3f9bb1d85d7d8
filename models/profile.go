package models

import (
	"time"

	"gorm.io/gorm"
)

// CustomerProfile holds customer-specific contact and preference data.
type CustomerProfile struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName         string         `gorm:"not null" json:"full_name"`
	Email            string         `gorm:"not null" json:"email"`
	Phone            *string        `json:"phone,omitempty"`
	Address          *string        `json:"address,omitempty"`
	City             *string        `json:"city,omitempty"`
	State            *string        `json:"state,omitempty"`
	PostalCode       *string        `json:"postal_code,omitempty"`
	Country          *string        `json:"country,omitempty"`
	ProfileImageKey  *string        `json:"profile_image_key,omitempty"`
	Bio              *string        `json:"bio,omitempty"`
	PreferredStyle   *string        `json:"preferred_style,omitempty"`
	BudgetPreference *string        `json:"budget_preference,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the CustomerProfile model.
func (CustomerProfile) TableName() string {
	return "customer_profiles"
}

// TailorProfile holds a tailor's business details.
// Rating, TotalOrders and TotalCustomers are aggregates maintained outside the API.
type TailorProfile struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName         string         `gorm:"not null" json:"full_name"`
	Email            string         `gorm:"not null" json:"email"`
	Phone            string         `json:"phone"`
	BusinessName     string         `json:"business_name"`
	Address          string         `json:"address"`
	City             string         `json:"city"`
	State            string         `json:"state"`
	PostalCode       string         `json:"postal_code"`
	Country          *string        `json:"country,omitempty"`
	ProfileImageKey  *string        `json:"profile_image_key,omitempty"`
	BusinessImageKey *string        `json:"business_image_key,omitempty"`
	Bio              *string        `json:"bio,omitempty"`
	Specializations  []string       `gorm:"type:text;serializer:json" json:"specializations"`
	ExperienceYears  *int           `json:"experience_years,omitempty"`
	Rating           float64        `gorm:"not null;default:0" json:"rating"`
	TotalOrders      int            `gorm:"not null;default:0" json:"total_orders"`
	TotalCustomers   int            `gorm:"not null;default:0" json:"total_customers"`
	IsVerified       bool           `gorm:"not null;default:false;index" json:"is_verified"`
	ServiceRadiusKm  float64        `gorm:"not null;default:10" json:"service_radius_km"`
	Latitude         *float64       `json:"latitude,omitempty"`
	Longitude        *float64       `json:"longitude,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the TailorProfile model.
func (TailorProfile) TableName() string {
	return "tailor_profiles"
}

// AdminProfile holds an administrator's details.
type AdminProfile struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName    string         `gorm:"not null" json:"full_name"`
	Email       string         `gorm:"not null" json:"email"`
	Permissions []string       `gorm:"type:text;serializer:json" json:"permissions"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the AdminProfile model.
func (AdminProfile) TableName() string {
	return "admin_profiles"
}

// TailorReview is a customer's rating of a tailor.
type TailorReview struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TailorID    uint      `gorm:"not null;index" json:"tailor_id"`
	CustomerID  uint      `gorm:"not null;index" json:"customer_id"`
	OrderID     *uint     `gorm:"index" json:"order_id,omitempty"`
	Rating      int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Title       *string   `json:"title,omitempty"`
	Comment     *string   `gorm:"type:text" json:"comment,omitempty"`
	IsPublished bool      `gorm:"not null;default:true" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for the TailorReview model.
func (TailorReview) TableName() string {
	return "tailor_reviews"
}
