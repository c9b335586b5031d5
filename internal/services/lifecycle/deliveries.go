package lifecycle

import (
	"context"
	"strings"

	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/internal/session"
	"github.com/xin-kz910/SE-project/internal/storage"
)

// Deliver stores a new delivery version from the awarded freelancer.
//
// While in_progress the freelancer gets one delivery. After a Reject the
// project is reopened and the next delivery is accepted as a new version and
// moves the project back to in_progress. Earlier versions are kept.
func (e *Engine) Deliver(ctx context.Context, u *session.User, projectID uint, file *Upload, note string) (*models.Delivery, error) {
	if err := requireRole(u, models.RoleFreelancer); err != nil {
		return nil, err
	}
	if file.empty() {
		return nil, errValidation(ReasonNoFile)
	}
	if e.tooLarge(file) {
		return nil, errValidation(ReasonFileTooLarge)
	}

	var d models.Delivery
	err := e.run(ctx, func(t *txn) error {
		p, err := lockProject(t.tx, projectID)
		if err != nil {
			return err
		}
		if !p.Status.Deliverable() {
			return errPrecondition(ReasonNotDeliverable)
		}
		awardee, err := awardedFreelancer(t.tx, p)
		if err != nil {
			return err
		}
		if awardee != u.ID() {
			return errForbidden()
		}

		var prev struct {
			Count int64
			Max   int
		}
		if err := t.tx.Model(&models.Delivery{}).
			Select("COUNT(*) AS count, COALESCE(MAX(version), 0) AS max").
			Where("project_id = ? AND freelancer_id = ?", p.ID, u.ID()).
			Scan(&prev).Error; err != nil {
			return err
		}
		if p.Status == models.ProjectInProgress && prev.Count > 0 {
			return errPrecondition(ReasonFileDup)
		}

		key, err := t.store(ctx, e.Store, storage.PrefixDeliveries, file)
		if err != nil {
			return err
		}

		d = models.Delivery{
			ProjectID:    p.ID,
			FreelancerID: u.ID(),
			Version:      prev.Max + 1,
			Filename:     file.Filename,
			StorageKey:   key,
			ContentType:  file.ContentType,
			Size:         file.Size,
			Note:         strings.TrimSpace(note),
			CreatedAt:    t.now,
		}
		if err := t.tx.Create(&d).Error; err != nil {
			return err
		}

		if p.Status == models.ProjectReopened {
			if err := t.tx.Model(p).Update("status", models.ProjectInProgress).Error; err != nil {
				return err
			}
		}

		t.notify(p.ClientID, Notification{
			Type:      models.ActionDelivered,
			ProjectID: p.ID,
			Title:     p.Title,
			Status:    models.ProjectInProgress,
			ActorID:   u.ID(),
		})
		return t.record(p.ID, u.ID(), models.ActionDelivered, map[string]interface{}{
			"delivery_id": d.ID,
			"version":     d.Version,
		})
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Close finishes an in-progress project. Closed is terminal.
func (e *Engine) Close(ctx context.Context, u *session.User, projectID uint) error {
	return e.settle(ctx, u, projectID, models.ProjectClosed, models.ActionClosed)
}

// Reject sends the current delivery back. Delivery history is kept and the
// awarded freelancer may upload a new version.
func (e *Engine) Reject(ctx context.Context, u *session.User, projectID uint) error {
	return e.settle(ctx, u, projectID, models.ProjectReopened, models.ActionRejected)
}

func (e *Engine) settle(ctx context.Context, u *session.User, projectID uint, to models.ProjectStatus, action models.ProjectAction) error {
	if err := requireRole(u, models.RoleClient); err != nil {
		return err
	}

	return e.run(ctx, func(t *txn) error {
		p, err := lockOwnedProject(t.tx, u, projectID)
		if err != nil {
			return err
		}
		if p.Status != models.ProjectInProgress {
			return errPrecondition(ReasonNotInProgress)
		}
		if err := t.tx.Model(p).Update("status", to).Error; err != nil {
			return err
		}

		awardee, err := awardedFreelancer(t.tx, p)
		if err != nil {
			return err
		}
		if awardee != 0 {
			t.notify(awardee, Notification{
				Type:      action,
				ProjectID: p.ID,
				Title:     p.Title,
				Status:    to,
				ActorID:   u.ID(),
			})
		}
		return t.record(p.ID, u.ID(), action, map[string]interface{}{"status": to})
	})
}
