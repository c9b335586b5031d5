package realtime

import (
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/xin-kz910/SE-project/internal/config"
	"github.com/xin-kz910/SE-project/pkg/logger"
)

const channelPrefix = "notifications:"

// NewRedis creates a new Redis client
func NewRedis(cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	logger.Infof("Redis client created (addr: %s)", cfg.Addr)
	return rdb
}

func Channel(userID uint) string {
	return channelPrefix + strconv.FormatUint(uint64(userID), 10)
}

func userFromChannel(ch string) (uint, bool) {
	if !strings.HasPrefix(ch, channelPrefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(ch, channelPrefix), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// RunRelay forwards every notifications:<uid> message to this instance's
// connected websocket clients. It returns when ctx is done.
func RunRelay(ctx context.Context, rdb *redis.Client, hub *Hub) {
	sub := rdb.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	logger.Info().Msg("notification relay subscribed")
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			uid, ok := userFromChannel(msg.Channel)
			if !ok {
				logger.Warn().Str("channel", msg.Channel).Msg("relay: bad channel")
				continue
			}
			hub.SendRaw(uid, []byte(msg.Payload))
		}
	}
}
