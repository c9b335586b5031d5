// internal/models/user.go
package models

import (
	"time"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleClient, RoleFreelancer:
		return true
	default:
		return false
	}
}

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"type:varchar(80);uniqueIndex;not null" json:"username"`

	// PasswordHash holds a bcrypt hash, a passlib "$pbkdf2-sha256$" hash, or a legacy
	// "plain:" value that is upgraded on the next successful login.
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;index" json:"role"`

	FullName string  `gorm:"type:varchar(120);not null" json:"full_name"`
	Phone    *string `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Email    *string `gorm:"type:varchar(150);index" json:"email,omitempty"`
	IsActive bool    `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
