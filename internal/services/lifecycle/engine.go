// Package lifecycle applies every state transition on a project and its bids
// and deliveries. Each operation runs in one transaction that locks the
// project row, so guards and writes see the same state.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/internal/session"
	"github.com/xin-kz910/SE-project/internal/storage"
	"github.com/xin-kz910/SE-project/pkg/logger"
)

// BidReopenWindow is how far ReopenBids pushes the deadline.
const BidReopenWindow = 7 * 24 * time.Hour

// Notification is pushed to a user after a transition commits.
type Notification struct {
	Type      models.ProjectAction `json:"type"`
	ProjectID uint                 `json:"project_id"`
	Title     string               `json:"title"`
	Status    models.ProjectStatus `json:"status"`
	ActorID   uint                 `json:"actor_id"`
	At        time.Time            `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, userID uint, n Notification)
}

type Engine struct {
	DB             *gorm.DB
	Store          storage.Store
	Notifier       Notifier // optional
	MaxUploadBytes int64

	now func() time.Time
}

func New(db *gorm.DB, store storage.Store, notifier Notifier, maxUploadBytes int64) *Engine {
	return &Engine{
		DB:             db,
		Store:          store,
		Notifier:       notifier,
		MaxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// SetClock replaces the engine's time source.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

type outbound struct {
	userID uint
	n      Notification
}

// txn carries what an operation collects while its transaction is open.
type txn struct {
	tx      *gorm.DB
	now     time.Time
	notices []outbound
	stored  []string
}

func (t *txn) notify(userID uint, n Notification) {
	n.At = t.now
	t.notices = append(t.notices, outbound{userID: userID, n: n})
}

func (e *Engine) run(ctx context.Context, fn func(t *txn) error) error {
	t := &txn{now: e.now()}
	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t.tx = tx
		return fn(t)
	})
	if err != nil {
		// objects written for a rolled back transaction have no row pointing at them
		for _, key := range t.stored {
			if derr := e.Store.Delete(context.WithoutCancel(ctx), key); derr != nil {
				logger.Warn().Err(derr).Str("key", key).Msg("cleanup of unreferenced upload failed")
			}
		}
		return AsError(err)
	}

	if e.Notifier != nil {
		for _, o := range t.notices {
			e.Notifier.Notify(ctx, o.userID, o.n)
		}
	}
	return nil
}

// lockProject loads the project with a row lock held until commit.
func lockProject(tx *gorm.DB, id uint) (*models.Project, error) {
	var p models.Project
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errPrecondition(ReasonNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func lockOwnedProject(tx *gorm.DB, u *session.User, id uint) (*models.Project, error) {
	p, err := lockProject(tx, id)
	if err != nil {
		return nil, err
	}
	if p.ClientID != u.ID() {
		return nil, errForbidden()
	}
	return p, nil
}

func hasBids(tx *gorm.DB, projectID uint) (bool, error) {
	var n int64
	if err := tx.Model(&models.Bid{}).Where("project_id = ?", projectID).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// awardedFreelancer returns the freelancer holding the awarded bid, or 0.
func awardedFreelancer(tx *gorm.DB, p *models.Project) (uint, error) {
	if p.AwardedBidID == nil {
		return 0, nil
	}
	var bid models.Bid
	if err := tx.Select("id", "freelancer_id").First(&bid, "id = ?", *p.AwardedBidID).Error; err != nil {
		return 0, err
	}
	return bid.FreelancerID, nil
}

func (t *txn) record(projectID, actorID uint, action models.ProjectAction, payload map[string]interface{}) error {
	ev := models.ProjectEvent{
		ProjectID: projectID,
		ActorID:   actorID,
		Action:    action,
		CreatedAt: t.now,
	}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		ev.Payload = datatypes.JSON(b)
	}
	return t.tx.Create(&ev).Error
}

func requireRole(u *session.User, role models.Role) error {
	if u == nil {
		return errLogin()
	}
	if u.Role() != role {
		return errForbidden()
	}
	return nil
}
