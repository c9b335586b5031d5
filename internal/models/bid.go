// internal/models/bid.go
package models

import (
	"time"
)

type Bid struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	ProjectID    uint   `gorm:"not null;uniqueIndex:idx_bids_project_freelancer" json:"project_id"`
	FreelancerID uint   `gorm:"not null;uniqueIndex:idx_bids_project_freelancer;index" json:"freelancer_id"`
	Price        int64  `gorm:"not null" json:"price"`
	Message      string `gorm:"type:text" json:"message"`

	// Optional PDF proposal. ProposalName is what the freelancer uploaded,
	// ProposalKey is where the artifact store keeps it.
	ProposalName string `gorm:"type:varchar(255)" json:"proposal_name,omitempty"`
	ProposalKey  string `gorm:"type:varchar(255);index" json:"proposal_key,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
