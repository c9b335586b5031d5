package catalog

import (
	"gorm.io/gorm"

	"github.com/xin-kz910/SE-project/internal/models"
)

func statusIn(statuses ...models.ProjectStatus) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("projects.status IN ?", statuses)
	}
}

func ownedBy(clientID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("projects.client_id = ?", clientID)
	}
}

func awardedTo(freelancerID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN bids ON bids.id = projects.awarded_bid_id").
			Where("bids.freelancer_id = ?", freelancerID)
	}
}

var (
	openStatuses     = []models.ProjectStatus{models.ProjectOpen}
	progressStatuses = []models.ProjectStatus{models.ProjectInProgress, models.ProjectReopened}
	closedStatuses   = []models.ProjectStatus{models.ProjectClosed}
)
