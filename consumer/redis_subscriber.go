package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSubscriber reads RecordUpserted/RecordDeleted events off a Redis
// Stream consumer group and dispatches each to an IndexEventHandler,
// acknowledging only after a successful HandleEvent call.
//
// Grounded on the sibling message-queue service's driver/redis_driver.go
// (go-redis/v9 XAdd-based publishing, consumer-group creation tolerant of
// BUSYGROUP) — generalized to the read side, which that file's StreamPort
// never implemented.
type RedisSubscriber struct {
	client  *redis.Client
	stream  string
	group   string
	handler *IndexEventHandler
	logger  *slog.Logger
}

// NewRedisSubscriber binds a subscriber to addr, creating the consumer group
// (tolerating BUSYGROUP if it already exists) before returning.
func NewRedisSubscriber(ctx context.Context, addr, stream, group string, handler *IndexEventHandler, logger *slog.Logger) (*RedisSubscriber, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err(); err != nil {
		if !strings.Contains(err.Error(), "BUSYGROUP") {
			return nil, err
		}
	}

	return &RedisSubscriber{client: client, stream: stream, group: group, handler: handler, logger: logger}, nil
}

// Run blocks, reading events for consumerName until ctx is canceled.
func (s *RedisSubscriber) Run(ctx context.Context, consumerName string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		res, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: consumerName,
			Streams:  []string{s.stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			s.logger.Error("consumer: redis read failed", "err", err)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				s.handleMessage(ctx, msg)
			}
		}
	}
}

func (s *RedisSubscriber) handleMessage(ctx context.Context, msg redis.XMessage) {
	eventType, _ := msg.Values["event_type"].(string)
	eventID, _ := msg.Values["event_id"].(string)
	payloadRaw, _ := msg.Values["payload"].(string)

	event := Event{EventType: eventType, EventID: eventID, Payload: json.RawMessage(payloadRaw)}

	if err := s.handler.HandleEvent(ctx, event); err != nil {
		s.logger.Error("consumer: failed handling event", "event_id", eventID, "event_type", eventType, "err", err)
		return
	}

	if err := s.client.XAck(ctx, s.stream, s.group, msg.ID).Err(); err != nil {
		s.logger.Error("consumer: failed acking message", "message_id", msg.ID, "err", err)
	}
}

// Close releases the underlying Redis client.
func (s *RedisSubscriber) Close() error {
	return s.client.Close()
}
