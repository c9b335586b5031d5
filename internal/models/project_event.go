// internal/models/project_event.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

type ProjectAction string

const (
	ActionCreated      ProjectAction = "project.created"
	ActionEdited       ProjectAction = "project.edited"
	ActionBidPlaced    ProjectAction = "bid.placed"
	ActionAwarded      ProjectAction = "project.awarded"
	ActionBidsReopened ProjectAction = "bids.reopened"
	ActionDelivered    ProjectAction = "delivery.submitted"
	ActionRejected     ProjectAction = "project.rejected"
	ActionClosed       ProjectAction = "project.closed"
)

// ProjectEvent is the append-only transition log of a project.
type ProjectEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProjectID uint           `gorm:"not null;index" json:"project_id"`
	ActorID   uint           `gorm:"not null" json:"actor_id"`
	Action    ProjectAction  `gorm:"type:varchar(40);not null" json:"action"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
