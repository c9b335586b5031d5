package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/xin-kz910/SE-project/internal/services/lifecycle"
	"github.com/xin-kz910/SE-project/pkg/logger"
)

// Notifier delivers lifecycle notifications. With redis every instance's
// relay picks the message up. Without it only local connections get it.
type Notifier struct {
	Hub *Hub
	RDB *redis.Client
}

func (n *Notifier) Notify(ctx context.Context, userID uint, msg lifecycle.Notification) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error().Err(err).Msg("marshal notification")
		return
	}

	if n.RDB == nil {
		n.Hub.SendRaw(userID, payload)
		return
	}
	if err := n.RDB.Publish(context.WithoutCancel(ctx), Channel(userID), payload).Err(); err != nil {
		logger.Warn().Err(err).Uint("user_id", userID).Msg("publish notification failed, sending locally")
		n.Hub.SendRaw(userID, payload)
	}
}
