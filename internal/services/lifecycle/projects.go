package lifecycle

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/internal/session"
)

const maxTitleLen = 200

type ProjectInput struct {
	Title       string
	Description string
	Budget      *int64
	Deadline    *time.Time
}

func (in *ProjectInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" || utf8.RuneCountInString(in.Title) > maxTitleLen {
		return errValidation(ReasonInvalid)
	}
	if in.Budget != nil && *in.Budget < 0 {
		return errValidation(ReasonInvalid)
	}
	return nil
}

// Create opens a new project owned by the acting client.
func (e *Engine) Create(ctx context.Context, u *session.User, in ProjectInput) (*models.Project, error) {
	if err := requireRole(u, models.RoleClient); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	p := models.Project{
		ClientID:    u.ID(),
		Title:       in.Title,
		Description: in.Description,
		Budget:      in.Budget,
		Deadline:    in.Deadline,
		Status:      models.ProjectOpen,
	}
	err := e.run(ctx, func(t *txn) error {
		if err := t.tx.Create(&p).Error; err != nil {
			return err
		}
		return t.record(p.ID, u.ID(), models.ActionCreated, map[string]interface{}{"title": p.Title})
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Edit changes title, description, budget and deadline while the project is
// open and has no bids.
func (e *Engine) Edit(ctx context.Context, u *session.User, projectID uint, in ProjectInput) error {
	if err := requireRole(u, models.RoleClient); err != nil {
		return err
	}
	if err := in.normalize(); err != nil {
		return err
	}

	return e.run(ctx, func(t *txn) error {
		p, err := lockOwnedProject(t.tx, u, projectID)
		if err != nil {
			return err
		}
		if p.Status != models.ProjectOpen {
			return errPrecondition(ReasonNotOpen)
		}
		locked, err := hasBids(t.tx, p.ID)
		if err != nil {
			return err
		}
		if locked {
			return errPrecondition(ReasonEditLocked)
		}

		if err := t.tx.Model(p).Updates(map[string]interface{}{
			"title":       in.Title,
			"description": in.Description,
			"budget":      in.Budget,
			"deadline":    in.Deadline,
		}).Error; err != nil {
			return err
		}
		return t.record(p.ID, u.ID(), models.ActionEdited, nil)
	})
}

// Delete removes an open project that has no bids, along with its history.
func (e *Engine) Delete(ctx context.Context, u *session.User, projectID uint) error {
	if err := requireRole(u, models.RoleClient); err != nil {
		return err
	}

	return e.run(ctx, func(t *txn) error {
		p, err := lockOwnedProject(t.tx, u, projectID)
		if err != nil {
			return err
		}
		if p.Status != models.ProjectOpen {
			return errPrecondition(ReasonNotOpen)
		}
		locked, err := hasBids(t.tx, p.ID)
		if err != nil {
			return err
		}
		if locked {
			return errPrecondition(ReasonDeleteLocked)
		}

		if err := t.tx.Where("project_id = ?", p.ID).Delete(&models.ProjectEvent{}).Error; err != nil {
			return err
		}
		return t.tx.Delete(p).Error
	})
}

// ReopenBids extends the bidding window of an open, unawarded project to
// max(deadline, now) + BidReopenWindow.
func (e *Engine) ReopenBids(ctx context.Context, u *session.User, projectID uint) (time.Time, error) {
	if err := requireRole(u, models.RoleClient); err != nil {
		return time.Time{}, err
	}

	var deadline time.Time
	err := e.run(ctx, func(t *txn) error {
		p, err := lockOwnedProject(t.tx, u, projectID)
		if err != nil {
			return err
		}
		if p.Status != models.ProjectOpen || p.AwardedBidID != nil {
			return errPrecondition(ReasonNotOpen)
		}

		base := t.now
		if p.Deadline != nil && p.Deadline.After(base) {
			base = *p.Deadline
		}
		deadline = base.Add(BidReopenWindow)

		if err := t.tx.Model(p).Update("deadline", deadline).Error; err != nil {
			return err
		}
		return t.record(p.ID, u.ID(), models.ActionBidsReopened, map[string]interface{}{"deadline": deadline})
	})
	if err != nil {
		return time.Time{}, err
	}
	return deadline, nil
}
