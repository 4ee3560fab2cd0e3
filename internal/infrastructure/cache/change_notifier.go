package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChangeChannel is the Pub/Sub channel UI subscribers listen on
const DefaultChangeChannel = "orderflow:changes"

// ChangeNotification is the message relayed to subscribers when domain
// state changes. It carries enough to decide what to refetch, not the
// state itself.
type ChangeNotification struct {
	EventID       string `json:"event_id"`
	EventType     string `json:"event_type"`
	AggregateID   string `json:"aggregate_id"`
	AggregateType string `json:"aggregate_type"`
	OccurredAt    int64  `json:"occurred_at"`
}

// RedisChangeNotifier relays domain events to a Redis Pub/Sub channel so
// UI layers can subscribe for live updates. It subscribes to the event bus
// as a catch-all handler; publish failures are logged and never propagate
// to the operation that raised the event.
type RedisChangeNotifier struct {
	client     *redis.Client
	ownsClient bool
	channel    string
	logger     *zap.Logger
}

// RedisChangeNotifierOption is a functional option for configuring the notifier
type RedisChangeNotifierOption func(*RedisChangeNotifier)

// WithNotifierChannel sets the Pub/Sub channel name
func WithNotifierChannel(channel string) RedisChangeNotifierOption {
	return func(n *RedisChangeNotifier) {
		n.channel = channel
	}
}

// WithNotifierLogger sets the logger for the notifier
func WithNotifierLogger(logger *zap.Logger) RedisChangeNotifierOption {
	return func(n *RedisChangeNotifier) {
		n.logger = logger
	}
}

// NewRedisChangeNotifier creates a notifier with its own Redis connection
func NewRedisChangeNotifier(cfg RedisConfig, opts ...RedisChangeNotifierOption) (*RedisChangeNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	notifier := &RedisChangeNotifier{
		client:     client,
		ownsClient: true,
		channel:    DefaultChangeChannel,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(notifier)
	}

	return notifier, nil
}

// NewRedisChangeNotifierWithClient creates a notifier with an existing Redis client
// Note: The caller retains ownership of the client and is responsible for closing it
func NewRedisChangeNotifierWithClient(client *redis.Client, opts ...RedisChangeNotifierOption) *RedisChangeNotifier {
	notifier := &RedisChangeNotifier{
		client:     client,
		ownsClient: false,
		channel:    DefaultChangeChannel,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(notifier)
	}

	return notifier
}

// Handle publishes a change notification for the event
func (n *RedisChangeNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	msg := ChangeNotification{
		EventID:       event.EventID().String(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID().String(),
		AggregateType: event.AggregateType(),
		OccurredAt:    event.OccurredAt().UnixNano(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal change notification: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, data).Err(); err != nil {
		n.logger.Warn("Failed to publish change notification",
			zap.String("channel", n.channel),
			zap.String("event_type", msg.EventType),
			zap.Error(err))
		return nil
	}

	n.logger.Debug("Published change notification",
		zap.String("event_type", msg.EventType),
		zap.String("aggregate_id", msg.AggregateID),
		zap.String("channel", n.channel))

	return nil
}

// EventTypes returns nil so the notifier receives every event type
func (n *RedisChangeNotifier) EventTypes() []string {
	return nil
}

// Close releases the Redis connection if the notifier owns it
func (n *RedisChangeNotifier) Close() error {
	if n.ownsClient {
		return n.client.Close()
	}
	return nil
}

// Ensure RedisChangeNotifier implements EventHandler
var _ shared.EventHandler = (*RedisChangeNotifier)(nil)
