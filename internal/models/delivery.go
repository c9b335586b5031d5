// internal/models/delivery.go
package models

import (
	"time"
)

// Delivery is one uploaded version of the awarded freelancer's work.
// Versions are kept across reject cycles.
type Delivery struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	ProjectID    uint `gorm:"not null;uniqueIndex:idx_deliveries_version" json:"project_id"`
	FreelancerID uint `gorm:"not null;uniqueIndex:idx_deliveries_version" json:"freelancer_id"`
	Version      int  `gorm:"not null;uniqueIndex:idx_deliveries_version" json:"version"`

	Filename    string `gorm:"type:varchar(255);not null" json:"filename"`
	StorageKey  string `gorm:"type:varchar(255);not null;index" json:"storage_key"`
	ContentType string `gorm:"type:varchar(120)" json:"content_type"`
	Size        int64  `json:"size"`
	Note        string `gorm:"type:text" json:"note"`

	CreatedAt time.Time `json:"created_at"`
}
