package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a campaign-owner account in the system
type User struct {
	ID             string     `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	OrganizationID string     `json:"organization_id" gorm:"not null;index;type:uuid"`
	Email          string     `json:"email" gorm:"type:varchar(255);not null;unique;index"`
	PasswordHash   string     `json:"-" gorm:"type:varchar(255);not null"`
	FirstName      string     `json:"first_name" gorm:"type:varchar(255)"`
	LastName       string     `json:"last_name" gorm:"type:varchar(255)"`
	IsActive       bool       `json:"is_active" gorm:"default:true;index"`
	IsAdmin        bool       `json:"is_admin" gorm:"default:false;index"`
	TokenVersion   uint       `json:"token_version" gorm:"default:0"`
	LastLoginAt    *time.Time `json:"last_login_at"`

	// Relationships
	Organization  Organization   `json:"organization,omitempty" gorm:"foreignKey:OrganizationID;references:ID;constraint:OnDelete:CASCADE"`
	RefreshTokens []RefreshToken `json:"refresh_tokens,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
