package lifecycle_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/xin-kz910/SE-project/internal/db/dbtest"
	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/internal/services/lifecycle"
	"github.com/xin-kz910/SE-project/internal/session"
	"github.com/xin-kz910/SE-project/internal/storage/storagetest"
)

type sent struct {
	userID uint
	n      lifecycle.Notification
}

type recorder struct {
	mu   sync.Mutex
	sent []sent
}

func (r *recorder) Notify(_ context.Context, userID uint, n lifecycle.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{userID: userID, n: n})
}

func (r *recorder) all() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.sent...)
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	db    *gorm.DB
	store *storagetest.MemStore
	rec   *recorder
	eng   *lifecycle.Engine
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		db:    dbtest.Open(t),
		store: storagetest.NewMemStore(),
		rec:   &recorder{},
		now:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.eng = lifecycle.New(f.db, f.store, f.rec, 1<<20)
	f.eng.SetClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) user(name string, role models.Role) *session.User {
	f.t.Helper()
	u := models.User{Username: name, PasswordHash: "x", Role: role, FullName: name, IsActive: true}
	if err := f.db.Create(&u).Error; err != nil {
		f.t.Fatalf("create user %s: %v", name, err)
	}
	su, err := session.New(u.ID, u.Username, u.Role)
	if err != nil {
		f.t.Fatalf("session user: %v", err)
	}
	return su
}

func (f *fixture) project(owner *session.User, deadline *time.Time) *models.Project {
	f.t.Helper()
	p, err := f.eng.Create(f.ctx, owner, lifecycle.ProjectInput{
		Title:       "Landing page",
		Description: "One page, responsive",
		Deadline:    deadline,
	})
	if err != nil {
		f.t.Fatalf("Create() err=%v", err)
	}
	return p
}

func (f *fixture) bid(u *session.User, projectID uint, price int64) *models.Bid {
	f.t.Helper()
	b, err := f.eng.PlaceBid(f.ctx, u, projectID, lifecycle.BidInput{Price: price, Message: "hi"})
	if err != nil {
		f.t.Fatalf("PlaceBid(%s) err=%v", u.Username(), err)
	}
	return b
}

func (f *fixture) reload(id uint) models.Project {
	f.t.Helper()
	var p models.Project
	if err := f.db.First(&p, id).Error; err != nil {
		f.t.Fatalf("reload project %d: %v", id, err)
	}
	return p
}

func (f *fixture) count(model interface{}, where string, args ...interface{}) int64 {
	f.t.Helper()
	var n int64
	if err := f.db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		f.t.Fatalf("count: %v", err)
	}
	return n
}

func upload(name, contentType, body string) *lifecycle.Upload {
	return &lifecycle.Upload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func wantReason(t *testing.T, err error, kind lifecycle.Kind, reason lifecycle.Reason) {
	t.Helper()
	le := lifecycle.AsError(err)
	if le == nil {
		t.Fatalf("err=nil, want %s/%s", kind, reason)
	}
	if le.Kind != kind || le.Reason != reason {
		t.Fatalf("err=%v, want %s/%s", err, kind, reason)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
