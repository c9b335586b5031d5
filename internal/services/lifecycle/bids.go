package lifecycle

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/internal/session"
	"github.com/xin-kz910/SE-project/internal/storage"
)

type BidInput struct {
	Price    int64
	Message  string
	Proposal *Upload // optional, must be a PDF
}

// PlaceBid records the acting freelancer's single bid on an open project
// whose deadline has not passed.
func (e *Engine) PlaceBid(ctx context.Context, u *session.User, projectID uint, in BidInput) (*models.Bid, error) {
	if err := requireRole(u, models.RoleFreelancer); err != nil {
		return nil, err
	}
	if in.Price <= 0 {
		return nil, errValidation(ReasonInvalid)
	}
	proposal := in.Proposal
	if proposal.empty() {
		proposal = nil
	}
	if proposal != nil {
		if !proposal.isPDF() {
			return nil, errValidation(ReasonNotPDF)
		}
		if e.tooLarge(proposal) {
			return nil, errValidation(ReasonFileTooLarge)
		}
	}

	bid := models.Bid{
		ProjectID:    projectID,
		FreelancerID: u.ID(),
		Price:        in.Price,
		Message:      strings.TrimSpace(in.Message),
	}

	err := e.run(ctx, func(t *txn) error {
		p, err := lockProject(t.tx, projectID)
		if err != nil {
			return err
		}
		if p.Status != models.ProjectOpen || p.AwardedBidID != nil {
			return errPrecondition(ReasonNotOpen)
		}
		if p.Deadline != nil && !t.now.Before(*p.Deadline) {
			return errPrecondition(ReasonDeadlinePassed)
		}

		var n int64
		if err := t.tx.Model(&models.Bid{}).
			Where("project_id = ? AND freelancer_id = ?", projectID, u.ID()).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return errPrecondition(ReasonDuplicateBid)
		}

		if proposal != nil {
			key, err := t.store(ctx, e.Store, storage.PrefixProposals, proposal)
			if err != nil {
				return err
			}
			bid.ProposalName = proposal.Filename
			bid.ProposalKey = key
		}

		bid.CreatedAt = t.now
		if err := t.tx.Create(&bid).Error; err != nil {
			// a concurrent bid by the same freelancer got in first
			if isUniqueViolation(err) {
				return errPrecondition(ReasonDuplicateBid)
			}
			return err
		}

		t.notify(p.ClientID, Notification{
			Type:      models.ActionBidPlaced,
			ProjectID: p.ID,
			Title:     p.Title,
			Status:    p.Status,
			ActorID:   u.ID(),
		})
		return t.record(p.ID, u.ID(), models.ActionBidPlaced, map[string]interface{}{
			"bid_id": bid.ID,
			"price":  bid.Price,
		})
	})
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// Award picks bidID as the winning bid. It succeeds once per project.
func (e *Engine) Award(ctx context.Context, u *session.User, projectID, bidID uint) error {
	if err := requireRole(u, models.RoleClient); err != nil {
		return err
	}

	return e.run(ctx, func(t *txn) error {
		p, err := lockOwnedProject(t.tx, u, projectID)
		if err != nil {
			return err
		}
		if p.AwardedBidID != nil || p.Status != models.ProjectOpen {
			return errPrecondition(ReasonAwarded)
		}

		var bid models.Bid
		err = t.tx.First(&bid, "id = ? AND project_id = ?", bidID, projectID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errPrecondition(ReasonBadBid)
		}
		if err != nil {
			return err
		}

		if p.Deadline != nil && t.now.Before(*p.Deadline) {
			return errPrecondition(ReasonTooEarly)
		}

		res := t.tx.Model(&models.Project{}).
			Where("id = ? AND status = ? AND awarded_bid_id IS NULL", p.ID, models.ProjectOpen).
			Updates(map[string]interface{}{
				"awarded_bid_id": bid.ID,
				"status":         models.ProjectInProgress,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errPrecondition(ReasonAwarded)
		}

		t.notify(bid.FreelancerID, Notification{
			Type:      models.ActionAwarded,
			ProjectID: p.ID,
			Title:     p.Title,
			Status:    models.ProjectInProgress,
			ActorID:   u.ID(),
		})
		return t.record(p.ID, u.ID(), models.ActionAwarded, map[string]interface{}{
			"bid_id":        bid.ID,
			"freelancer_id": bid.FreelancerID,
		})
	})
}
