package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"tempnote-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const DefaultRelayChannel = "tempnote:note_changes"

// RedisRelay mirrors change events between instances through a Redis pub/sub
// channel. Events carrying this instance's origin are ignored on receipt.
type RedisRelay struct {
	rdb     *redis.Client
	channel string
	feed    *Feed
	logger  logger.ILogger
}

func NewRedisRelay(rdb *redis.Client, channel string, feed *Feed, log logger.ILogger) *RedisRelay {
	return &RedisRelay{
		rdb:     rdb,
		channel: channel,
		feed:    feed,
		logger:  log,
	}
}

func (r *RedisRelay) Forward(ctx context.Context, evt ChangeEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	return r.rdb.Publish(ctx, r.channel, payload).Err()
}

// Run consumes the channel until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.receive([]byte(msg.Payload))
		}
	}
}

func (r *RedisRelay) receive(payload []byte) {
	var evt ChangeEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		r.logger.Warn("Relay", "Redis change event parse error", map[string]interface{}{"error": err})
		return
	}
	if evt.Origin == r.feed.Origin() {
		return
	}
	if err := r.feed.Inject(evt); err != nil {
		r.logger.Error("Relay", "Failed to inject relayed change event", map[string]interface{}{"error": err})
	}
}
