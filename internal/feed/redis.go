// Package feed provides the streaming source implementations behind the
// pkg/feed contract: a Redis-backed source (snapshot lists plus pub/sub
// events) and a websocket source for gateway deployments.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	corefeed "github.com/rsodre/d20-dojo/pkg/feed"
	"github.com/rsodre/d20-dojo/pkg/felt"
)

const (
	// snapshotKey holds the current full listing for one model, as a
	// list of JSON-encoded items.
	snapshotKeyPrefix = "feed:snapshot:"
	// eventsChannel carries incremental items as JSON.
	eventsChannel = "feed:events"
)

func snapshotKey(model string) string {
	return snapshotKeyPrefix + model
}

// RedisSource serves subscriptions from Redis: the initial snapshot is
// read from per-model lists, and incremental events arrive over pub/sub.
type RedisSource struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisSource connects to Redis and verifies the connection.
func NewRedisSource(redisURL string, logger *slog.Logger) (*RedisSource, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Connected to Redis feed", "url", redisURL)
	return &RedisSource{client: rdb, logger: logger}, nil
}

// Close closes the Redis connection.
func (s *RedisSource) Close() error {
	return s.client.Close()
}

// Subscribe reads the snapshot for the queried models and opens a pub/sub
// subscription for incremental events. Items not covered by the query are
// filtered out on this side of the wire.
func (s *RedisSource) Subscribe(ctx context.Context, q corefeed.Query) ([]corefeed.Item, corefeed.Subscription, error) {
	subID := uuid.New()
	logger := s.logger.With("subscription_id", subID.String())

	snapshot, err := s.readSnapshot(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	pubsub := s.client.Subscribe(ctx, eventsChannel)
	// Force the subscription onto the wire before returning, so no event
	// published after Subscribe returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", eventsChannel, err)
	}

	handle := corefeed.NewHandle(64, func() {
		if err := pubsub.Close(); err != nil {
			logger.Error("Failed to close pubsub", "error", err)
		}
	})

	go func() {
		defer handle.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					// Closed by Cancel; not a feed error.
					return
				}
				var it corefeed.Item
				if err := json.Unmarshal([]byte(msg.Payload), &it); err != nil {
					logger.Debug("Dropping undecodable feed payload", "error", err)
					continue
				}
				if !matches(q, it) {
					continue
				}
				if !handle.SendCtx(ctx, corefeed.Event{Item: it}) {
					return
				}
			}
		}
	}()

	logger.Debug("Subscribed to feed", "channel", eventsChannel, "snapshot_items", len(snapshot))
	return snapshot, handle, nil
}

func (s *RedisSource) readSnapshot(ctx context.Context, q corefeed.Query) ([]corefeed.Item, error) {
	models := q.Models
	if len(models) == 0 {
		return nil, fmt.Errorf("redis feed requires explicit models in the query")
	}

	limit := int64(q.Limit)
	if limit <= 0 {
		limit = 1000
	}

	var out []corefeed.Item
	for _, model := range models {
		raw, err := s.client.LRange(ctx, snapshotKey(model), 0, limit-1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot for %s: %w", model, err)
		}
		for _, payload := range raw {
			var it corefeed.Item
			if err := json.Unmarshal([]byte(payload), &it); err != nil {
				s.logger.Debug("Dropping undecodable snapshot payload", "model", model, "error", err)
				continue
			}
			if matches(q, it) {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

// matches applies the query filters to one item. Address filters only
// constrain items that carry the corresponding field.
func matches(q corefeed.Query, it corefeed.Item) bool {
	if !q.WantsModel(it.Model) {
		return false
	}
	if !addressMatches(q.ContractAddresses, it.Field("contract_address")) {
		return false
	}
	return addressMatches(q.AccountAddresses, it.Field("account_address"))
}

func addressMatches(filter []string, value string) bool {
	if len(filter) == 0 || value == "" {
		return true
	}
	canon, err := felt.ParseAddress(value)
	if err != nil {
		return false
	}
	for _, f := range filter {
		fc, err := felt.ParseAddress(f)
		if err == nil && fc == canon {
			return true
		}
	}
	return false
}

// Publisher pushes feed items into Redis, for test harnesses and local
// tooling that stand in for the real indexer.
type Publisher struct {
	client *redis.Client
	logger *slog.Logger
}

// NewPublisher wraps an existing source's connection settings.
func NewPublisher(redisURL string, logger *slog.Logger) (*Publisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &Publisher{client: redis.NewClient(opt), logger: logger}, nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// Seed replaces the snapshot listing for the items' models.
func (p *Publisher) Seed(ctx context.Context, items []corefeed.Item) error {
	seen := make(map[string]bool)
	for _, it := range items {
		if !seen[it.Model] {
			if err := p.client.Del(ctx, snapshotKey(it.Model)).Err(); err != nil {
				return fmt.Errorf("failed to clear snapshot for %s: %w", it.Model, err)
			}
			seen[it.Model] = true
		}
		payload, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("failed to encode item: %w", err)
		}
		if err := p.client.RPush(ctx, snapshotKey(it.Model), payload).Err(); err != nil {
			return fmt.Errorf("failed to push snapshot item: %w", err)
		}
	}
	return nil
}

// Publish broadcasts one incremental item to live subscribers.
func (p *Publisher) Publish(ctx context.Context, it corefeed.Item) error {
	payload, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("failed to encode item: %w", err)
	}
	if err := p.client.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish item: %w", err)
	}
	return nil
}
