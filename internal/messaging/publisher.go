// Package messaging delivers guide assignments to the collaborator that
// mirrors them onto each member's own assignment record.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
	"github.com/redis/go-redis/v9"
)

// DefaultAssignmentStream is the stream consumed by the assignment mirror.
const DefaultAssignmentStream = "guide_assignments"

const (
	ActionAssign   = "assign"
	ActionUnassign = "unassign"
)

// StreamAdder is the subset of the redis client used for publishing.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamPublisher appends guide assignments to a Redis stream.
type RedisStreamPublisher struct {
	client StreamAdder
	stream string
	maxLen int64
}

// RedisStreamPublisherConfig holds configuration for the stream publisher
type RedisStreamPublisherConfig struct {
	Client StreamAdder
	Stream string // Optional, defaults to DefaultAssignmentStream
	MaxLen int64  // Optional, approximate trim length; 0 keeps every entry
}

// NewRedisStreamPublisher creates a publisher writing to cfg.Stream.
func NewRedisStreamPublisher(cfg RedisStreamPublisherConfig) *RedisStreamPublisher {
	stream := cfg.Stream
	if stream == "" {
		stream = DefaultAssignmentStream
	}
	return &RedisStreamPublisher{
		client: cfg.Client,
		stream: stream,
		maxLen: cfg.MaxLen,
	}
}

// PublishGuideAssignment adds one stream entry per assignment. A nil guide is
// published as an unassign with an empty guide_id.
func (p *RedisStreamPublisher) PublishGuideAssignment(ctx context.Context, msg *model.GuideAssignmentMessage) error {
	values, err := streamValues(msg)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}

	slog.Debug("guide assignment published",
		slog.String("stream", p.stream),
		slog.String("entry_id", id),
		slog.String("group_id", msg.GroupID),
	)
	return nil
}

func streamValues(msg *model.GuideAssignmentMessage) (map[string]interface{}, error) {
	members, err := json.Marshal(msg.Members)
	if err != nil {
		return nil, fmt.Errorf("encode members: %w", err)
	}

	action, guideID := ActionUnassign, ""
	if msg.GuideID != nil {
		action, guideID = ActionAssign, *msg.GuideID
	}

	return map[string]interface{}{
		"action":       action,
		"group_id":     msg.GroupID,
		"guide_id":     guideID,
		"service_date": msg.ServiceDate,
		"service_time": msg.ServiceTime,
		"members":      string(members),
		"issued_on":    msg.IssuedOn.UTC().Format(time.RFC3339Nano),
	}, nil
}

// LogPublisher only logs assignments. It is used when Redis is disabled.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher writing to logger, or the default
// logger when nil.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// PublishGuideAssignment logs the assignment and never fails.
func (p *LogPublisher) PublishGuideAssignment(ctx context.Context, msg *model.GuideAssignmentMessage) error {
	guideID := ""
	if msg.GuideID != nil {
		guideID = *msg.GuideID
	}
	keys := make([]string, 0, len(msg.Members))
	for _, m := range msg.Members {
		keys = append(keys, m.Key())
	}

	p.logger.InfoContext(ctx, "guide assignment",
		slog.String("group_id", msg.GroupID),
		slog.String("guide_id", guideID),
		slog.String("service_date", msg.ServiceDate),
		slog.String("service_time", msg.ServiceTime),
		slog.Any("members", keys),
	)
	return nil
}
