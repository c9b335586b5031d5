// internal/models/project.go
package models

import (
	"time"
)

type ProjectStatus string

const (
	ProjectOpen       ProjectStatus = "open"
	ProjectInProgress ProjectStatus = "in_progress" // awarded, waiting for (or reviewing) a delivery
	ProjectReopened   ProjectStatus = "reopened"    // delivery rejected, a new version is expected
	ProjectClosed     ProjectStatus = "closed"      // terminal
)

// Deliverable reports whether the awarded freelancer may upload in this status.
func (s ProjectStatus) Deliverable() bool {
	return s == ProjectInProgress || s == ProjectReopened
}

// Awarded reports whether a project in this status must carry an awarded bid.
func (s ProjectStatus) Awarded() bool {
	return s == ProjectInProgress || s == ProjectReopened || s == ProjectClosed
}

type Project struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	ClientID uint `gorm:"not null;index" json:"client_id"`

	Title       string     `gorm:"type:varchar(200);not null" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Budget      *int64     `json:"budget,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`

	Status       ProjectStatus `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	AwardedBidID *uint         `gorm:"index" json:"awarded_bid_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
