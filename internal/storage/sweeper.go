package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/pkg/logger"
)

const sweepLockKey = "locks:orphan-sweep"

// Locker gives one process at a time the right to sweep.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Sweeper deletes stored objects that no delivery or bid row references.
// Objects younger than Grace are left alone so uploads whose transaction is
// still open are not touched.
type Sweeper struct {
	DB     *gorm.DB
	Store  Store
	Grace  time.Duration
	Locker Locker // optional

	now  func() time.Time
	cron *cron.Cron
}

func NewSweeper(db *gorm.DB, store Store, grace time.Duration, locker Locker) *Sweeper {
	return &Sweeper{DB: db, Store: store, Grace: grace, Locker: locker, now: time.Now}
}

// Sweep returns how many objects were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	if s.Locker != nil {
		release, ok, err := s.Locker.TryLock(ctx, sweepLockKey, 10*time.Minute)
		if err != nil {
			return 0, err
		}
		if !ok {
			logger.Debug().Msg("orphan sweep skipped, lock held elsewhere")
			return 0, nil
		}
		defer release()
	}

	referenced, err := s.referencedKeys(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := s.clock().Add(-s.Grace)
	removed := 0
	for _, prefix := range []string{PrefixDeliveries, PrefixProposals} {
		objs, err := s.Store.List(ctx, prefix+"/")
		if err != nil {
			return removed, err
		}
		for _, obj := range objs {
			if referenced[obj.Key] || obj.LastModified.After(cutoff) {
				continue
			}
			if err := s.Store.Delete(ctx, obj.Key); err != nil {
				logger.Warn().Err(err).Str("key", obj.Key).Msg("orphan delete failed")
				continue
			}
			removed++
		}
	}
	return removed, nil
}

func (s *Sweeper) referencedKeys(ctx context.Context) (map[string]bool, error) {
	var deliveryKeys, proposalKeys []string
	db := s.DB.WithContext(ctx)
	if err := db.Model(&models.Delivery{}).Pluck("storage_key", &deliveryKeys).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Bid{}).Where("proposal_key <> ''").Pluck("proposal_key", &proposalKeys).Error; err != nil {
		return nil, err
	}

	out := make(map[string]bool, len(deliveryKeys)+len(proposalKeys))
	for _, k := range deliveryKeys {
		out[k] = true
	}
	for _, k := range proposalKeys {
		out[k] = true
	}
	return out, nil
}

func (s *Sweeper) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *Sweeper) StartScheduler(spec string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		n, err := s.Sweep(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("orphan sweep failed")
			return
		}
		if n > 0 {
			logger.Info().Int("removed", n).Msg("orphan sweep done")
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	logger.Infof("[Sweeper] scheduled (%s)", spec)
	return nil
}

func (s *Sweeper) StopScheduler() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SETNX lock. Release only deletes the key if we still own it.
type RedisLocker struct {
	RDB *redis.Client
}

func (l RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.RDB.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}
	return func() {
		_ = unlockScript.Run(context.Background(), l.RDB, []string{key}, token).Err()
	}, true, nil
}
