package catalog

import (
	"context"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/internal/session"
)

const snippetLen = 200

type Tab string

const (
	TabOpen     Tab = "open"
	TabProgress Tab = "progress"
	TabClosed   Tab = "closed"
)

func ParseTab(s string) Tab {
	switch Tab(s) {
	case TabProgress, TabClosed:
		return Tab(s)
	default:
		return TabOpen
	}
}

func (t Tab) statuses() []models.ProjectStatus {
	switch t {
	case TabProgress:
		return progressStatuses
	case TabClosed:
		return closedStatuses
	default:
		return openStatuses
	}
}

type Stats struct {
	Open     int64 `json:"open"`
	Progress int64 `json:"progress"`
	Closed   int64 `json:"closed"`
}

// Summary is one row of the listing. Count fields are set only for the tab
// and role that shows them.
type Summary struct {
	ID          uint                 `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	Budget      *int64               `json:"budget,omitempty"`
	Deadline    *time.Time           `json:"deadline,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`

	BidCount        *int64 `json:"bid_count,omitempty"`
	DeliveryCount   *int64 `json:"delivery_count,omitempty"`
	HasBid          *bool  `json:"has_bid,omitempty"`
	MyDeliveryCount *int64 `json:"my_delivery_count,omitempty"`
}

type Listing struct {
	Tab      Tab       `json:"tab"`
	Stats    Stats     `json:"stats"`
	Projects []Summary `json:"projects"`
}

type Service struct {
	DB  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Service {
	return &Service{DB: db, now: time.Now}
}

// SetClock replaces the clock used for deadline-dependent permissions.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// List builds the home listing. Guests see open projects. Clients see their
// own projects by tab. Freelancers see every open project, plus the projects
// awarded to them in the other tabs.
func (s *Service) List(ctx context.Context, viewer *session.User, tab Tab) (*Listing, error) {
	db := s.DB.WithContext(ctx)
	out := &Listing{Tab: tab, Projects: []Summary{}}

	var scope func(*gorm.DB) *gorm.DB
	switch {
	case viewer == nil:
		out.Tab = TabOpen
		scope = func(db *gorm.DB) *gorm.DB { return db }
	case viewer.IsClient():
		scope = ownedBy(viewer.ID())
	default:
		scope = awardedTo(viewer.ID())
	}

	if viewer != nil {
		stats, err := s.stats(db, viewer, scope)
		if err != nil {
			return nil, err
		}
		out.Stats = stats
	}

	q := db.Model(&models.Project{}).Select("projects.*")
	if viewer == nil || (viewer.IsFreelancer() && out.Tab == TabOpen) {
		q = q.Scopes(statusIn(openStatuses...))
	} else {
		q = q.Scopes(scope, statusIn(out.Tab.statuses()...))
	}

	var projects []models.Project
	if err := q.Order("projects.id DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return out, nil
	}

	ids := make([]uint, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
		out.Projects = append(out.Projects, Summary{
			ID:          p.ID,
			Title:       p.Title,
			Description: Snippet(p.Description, snippetLen),
			Status:      p.Status,
			Budget:      p.Budget,
			Deadline:    p.Deadline,
			CreatedAt:   p.CreatedAt,
		})
	}

	if viewer == nil {
		return out, nil
	}
	return out, s.decorate(db, viewer, out, ids)
}

func (s *Service) stats(db *gorm.DB, viewer *session.User, scope func(*gorm.DB) *gorm.DB) (Stats, error) {
	var st Stats
	openScope := scope
	if viewer.IsFreelancer() {
		// every open project is biddable
		openScope = func(db *gorm.DB) *gorm.DB { return db }
	}
	counts := []struct {
		dst   *int64
		scope func(*gorm.DB) *gorm.DB
		in    []models.ProjectStatus
	}{
		{&st.Open, openScope, openStatuses},
		{&st.Progress, scope, progressStatuses},
		{&st.Closed, scope, closedStatuses},
	}
	for _, c := range counts {
		if err := db.Model(&models.Project{}).Scopes(c.scope, statusIn(c.in...)).Count(c.dst).Error; err != nil {
			return Stats{}, err
		}
	}
	return st, nil
}

type idCount struct {
	ProjectID uint
	N         int64
}

func countBy(db *gorm.DB, model interface{}, ids []uint, extra func(*gorm.DB) *gorm.DB) (map[uint]int64, error) {
	var rows []idCount
	q := db.Model(model).Select("project_id, COUNT(*) AS n").Where("project_id IN ?", ids)
	if extra != nil {
		q = q.Scopes(extra)
	}
	if err := q.Group("project_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.ProjectID] = r.N
	}
	return out, nil
}

func byFreelancer(id uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Where("freelancer_id = ?", id) }
}

func (s *Service) decorate(db *gorm.DB, viewer *session.User, out *Listing, ids []uint) error {
	switch {
	case viewer.IsClient() && out.Tab == TabOpen:
		counts, err := countBy(db, &models.Bid{}, ids, nil)
		if err != nil {
			return err
		}
		for i := range out.Projects {
			n := counts[out.Projects[i].ID]
			out.Projects[i].BidCount = &n
		}
	case viewer.IsClient() && out.Tab == TabProgress:
		counts, err := countBy(db, &models.Delivery{}, ids, nil)
		if err != nil {
			return err
		}
		for i := range out.Projects {
			n := counts[out.Projects[i].ID]
			out.Projects[i].DeliveryCount = &n
		}
	case viewer.IsFreelancer() && out.Tab == TabOpen:
		counts, err := countBy(db, &models.Bid{}, ids, byFreelancer(viewer.ID()))
		if err != nil {
			return err
		}
		for i := range out.Projects {
			has := counts[out.Projects[i].ID] > 0
			out.Projects[i].HasBid = &has
		}
	case viewer.IsFreelancer() && out.Tab == TabProgress:
		counts, err := countBy(db, &models.Delivery{}, ids, byFreelancer(viewer.ID()))
		if err != nil {
			return err
		}
		for i := range out.Projects {
			n := counts[out.Projects[i].ID]
			out.Projects[i].MyDeliveryCount = &n
		}
	}
	return nil
}

// Snippet cuts s to at most n characters.
func Snippet(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
