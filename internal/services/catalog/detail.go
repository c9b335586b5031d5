package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/internal/session"
	"github.com/xin-kz910/SE-project/internal/storage"
)

var ErrNotFound = errors.New("catalog: not found")

type ProjectView struct {
	models.Project
	ClientName          string `json:"client_name"`
	AwardedFreelancerID *uint  `json:"awarded_freelancer_id,omitempty"`
}

type BidView struct {
	ID           uint      `json:"id"`
	Price        int64     `json:"price"`
	Message      string    `json:"message"`
	Freelancer   string    `json:"freelancer"`
	ProposalName string    `json:"proposal_name,omitempty"`
	ProposalURL  string    `json:"proposal_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type DeliveryView struct {
	ID         uint      `json:"id"`
	Version    int       `json:"version"`
	Filename   string    `json:"filename"`
	Note       string    `json:"note"`
	Freelancer string    `json:"freelancer"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
}

// Permissions tell a view which actions to offer. The engine still checks
// every one of them.
type Permissions struct {
	IsOwner    bool `json:"is_owner"`
	IsAwarded  bool `json:"is_awarded"`
	CanEdit    bool `json:"can_edit"`
	CanBid     bool `json:"can_bid"`
	CanAward   bool `json:"can_award"`
	CanDeliver bool `json:"can_deliver"`
	CanSettle  bool `json:"can_settle"`
}

type Detail struct {
	Project     ProjectView           `json:"project"`
	Bids        []BidView             `json:"bids"`
	Deliveries  []DeliveryView        `json:"deliveries"`
	History     []models.ProjectEvent `json:"history,omitempty"`
	Permissions Permissions           `json:"permissions"`
}

// FileURL is where GET /files serves a stored key.
func FileURL(key string) string {
	if key == "" {
		return ""
	}
	return "/files/" + key
}

// Detail loads one project. The owner sees every bid (cheapest first) and
// the history. A freelancer sees only their own bid. Deliveries are listed
// newest first for everyone.
func (s *Service) Detail(ctx context.Context, viewer *session.User, id uint) (*Detail, error) {
	db := s.DB.WithContext(ctx)

	var p models.Project
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	out := &Detail{
		Project:    ProjectView{Project: p},
		Bids:       []BidView{},
		Deliveries: []DeliveryView{},
	}

	if p.AwardedBidID != nil {
		var awarded models.Bid
		if err := db.Select("id", "freelancer_id").First(&awarded, "id = ?", *p.AwardedBidID).Error; err != nil {
			return nil, err
		}
		out.Project.AwardedFreelancerID = &awarded.FreelancerID
	}

	isOwner := viewer != nil && viewer.IsClient() && viewer.ID() == p.ClientID
	isFreelancer := viewer != nil && viewer.IsFreelancer()

	var bids []models.Bid
	switch {
	case isOwner:
		if err := db.Where("project_id = ?", p.ID).Order("price ASC, created_at ASC").Find(&bids).Error; err != nil {
			return nil, err
		}
	case isFreelancer:
		if err := db.Where("project_id = ? AND freelancer_id = ?", p.ID, viewer.ID()).Find(&bids).Error; err != nil {
			return nil, err
		}
	}

	var deliveries []models.Delivery
	if err := db.Where("project_id = ?", p.ID).Order("created_at DESC, id DESC").Find(&deliveries).Error; err != nil {
		return nil, err
	}

	userIDs := []uint{p.ClientID}
	for _, b := range bids {
		userIDs = append(userIDs, b.FreelancerID)
	}
	for _, d := range deliveries {
		userIDs = append(userIDs, d.FreelancerID)
	}
	names, err := s.usernames(db, userIDs)
	if err != nil {
		return nil, err
	}
	out.Project.ClientName = names[p.ClientID]

	for _, b := range bids {
		out.Bids = append(out.Bids, BidView{
			ID:           b.ID,
			Price:        b.Price,
			Message:      b.Message,
			Freelancer:   names[b.FreelancerID],
			ProposalName: b.ProposalName,
			ProposalURL:  FileURL(b.ProposalKey),
			CreatedAt:    b.CreatedAt,
		})
	}
	for _, d := range deliveries {
		out.Deliveries = append(out.Deliveries, DeliveryView{
			ID:         d.ID,
			Version:    d.Version,
			Filename:   d.Filename,
			Note:       d.Note,
			Freelancer: names[d.FreelancerID],
			URL:        FileURL(d.StorageKey),
			CreatedAt:  d.CreatedAt,
		})
	}

	if isOwner {
		if err := db.Where("project_id = ?", p.ID).Order("id ASC").Find(&out.History).Error; err != nil {
			return nil, err
		}
	}

	isAwarded := isFreelancer && out.Project.AwardedFreelancerID != nil && *out.Project.AwardedFreelancerID == viewer.ID()
	open := p.Status == models.ProjectOpen
	beforeDeadline := p.Deadline == nil || s.now().Before(*p.Deadline)
	out.Permissions = Permissions{
		IsOwner:    isOwner,
		IsAwarded:  isAwarded,
		CanEdit:    isOwner && open && len(bids) == 0,
		CanBid:     isFreelancer && open && p.AwardedBidID == nil && beforeDeadline && len(bids) == 0,
		CanAward:   isOwner && open && p.AwardedBidID == nil,
		CanDeliver: isAwarded && p.Status.Deliverable(),
		CanSettle:  isOwner && p.Status == models.ProjectInProgress,
	}
	return out, nil
}

func (s *Service) usernames(db *gorm.DB, ids []uint) (map[uint]string, error) {
	var users []models.User
	if err := db.Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]string, len(users))
	for _, u := range users {
		out[u.ID] = u.Username
	}
	return out, nil
}

// CanRead reports whether viewer may download the stored object at key.
// Delivery files are visible to the project owner and the delivering
// freelancer. Proposals are visible to the project owner and the bidder.
func (s *Service) CanRead(ctx context.Context, viewer *session.User, key string) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	db := s.DB.WithContext(ctx)

	var projectID, ownerID uint
	switch {
	case strings.HasPrefix(key, storage.PrefixDeliveries+"/"):
		var d models.Delivery
		if err := db.Select("project_id", "freelancer_id").First(&d, "storage_key = ?", key).Error; err != nil {
			return false, ignoreNotFound(err)
		}
		projectID, ownerID = d.ProjectID, d.FreelancerID
	case strings.HasPrefix(key, storage.PrefixProposals+"/"):
		var b models.Bid
		if err := db.Select("project_id", "freelancer_id").First(&b, "proposal_key = ?", key).Error; err != nil {
			return false, ignoreNotFound(err)
		}
		projectID, ownerID = b.ProjectID, b.FreelancerID
	default:
		return false, nil
	}

	if viewer.ID() == ownerID {
		return true, nil
	}
	var p models.Project
	if err := db.Select("id", "client_id").First(&p, "id = ?", projectID).Error; err != nil {
		return false, ignoreNotFound(err)
	}
	return viewer.ID() == p.ClientID, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
