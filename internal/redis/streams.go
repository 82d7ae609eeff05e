package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

const (
	readBlock    = 5 * time.Second
	readCount    = 16
	streamMaxLen = 10000

	fieldType = "type"
	fieldData = "data"
)

// Delivery is one stream entry. Err is set when the entry could not be decoded.
type Delivery struct {
	ID    string
	Event domain.NeedPosted
	Err   error
}

// NeedStream carries need.posted events from the API to notification workers
// through a Redis stream and consumer group.
type NeedStream struct {
	client *redis.Client
	stream string
	group  string
	block  time.Duration
	log    *zap.Logger
}

func NewNeedStream(client *redis.Client, stream, group string, log *zap.Logger) *NeedStream {
	return &NeedStream{
		client: client,
		stream: stream,
		group:  group,
		block:  readBlock,
		log:    log,
	}
}

func (s *NeedStream) PublishNeedPosted(ctx context.Context, ev domain.NeedPosted) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal need posted: %w", err)
	}

	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: streamMaxLen,
		Values: map[string]any{
			fieldType: domain.EventNeedPosted,
			fieldData: string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}

	s.log.Debug("need posted published",
		zap.String("stream", s.stream),
		zap.String("message_id", id),
		zap.String("need_id", ev.NeedID.String()),
	)
	return nil
}

// EnsureGroup creates the stream and consumer group if missing.
func (s *NeedStream) EnsureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", s.group, err)
	}
	return nil
}

// Read returns new entries for consumer, or with pending set, the entries
// already delivered to it but never acked.
func (s *NeedStream) Read(ctx context.Context, consumer string, pending bool) ([]Delivery, error) {
	start := ">"
	block := s.block
	if pending {
		start = "0"
		block = -1
	}

	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: consumer,
		Streams:  []string{s.stream, start},
		Count:    readCount,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("xreadgroup %s: %w", s.stream, err)
	}

	var out []Delivery
	for _, st := range streams {
		for _, msg := range st.Messages {
			out = append(out, decode(msg))
		}
	}
	return out, nil
}

func decode(msg redis.XMessage) Delivery {
	d := Delivery{ID: msg.ID}

	if typ, _ := msg.Values[fieldType].(string); typ != domain.EventNeedPosted {
		d.Err = fmt.Errorf("unexpected event type %q", typ)
		return d
	}
	data, ok := msg.Values[fieldData].(string)
	if !ok {
		d.Err = errors.New("missing data field")
		return d
	}
	if err := json.Unmarshal([]byte(data), &d.Event); err != nil {
		d.Err = fmt.Errorf("decode need posted: %w", err)
	}
	return d
}

func (s *NeedStream) Ack(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.client.XAck(ctx, s.stream, s.group, ids...).Err(); err != nil {
		return fmt.Errorf("xack %s: %w", s.stream, err)
	}
	return nil
}

// Consume runs handle for every event until ctx is done. Entries left pending
// by an earlier run of the same consumer are handled first. Every entry is
// acked once handled, whether or not handle failed; delivery is best effort.
func (s *NeedStream) Consume(ctx context.Context, consumer string, handle func(ctx context.Context, ev domain.NeedPosted) error) error {
	if err := s.EnsureGroup(ctx); err != nil {
		return err
	}

	s.log.Info("need stream consumer started",
		zap.String("stream", s.stream),
		zap.String("group", s.group),
		zap.String("consumer", consumer),
	)

	pending := true
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return nil
		}

		deliveries, err := s.Read(ctx, consumer, pending)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error("read need stream", zap.Error(err), zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		if pending && len(deliveries) == 0 {
			pending = false
			continue
		}

		for _, d := range deliveries {
			s.process(ctx, d, handle)
		}
	}
}

func (s *NeedStream) process(ctx context.Context, d Delivery, handle func(ctx context.Context, ev domain.NeedPosted) error) {
	if d.Err != nil {
		s.log.Warn("dropping malformed stream entry", zap.String("message_id", d.ID), zap.Error(d.Err))
	} else if err := handle(ctx, d.Event); err != nil {
		s.log.Error("handle need posted",
			zap.String("message_id", d.ID),
			zap.String("need_id", d.Event.NeedID.String()),
			zap.Error(err),
		)
	}

	if err := s.Ack(context.WithoutCancel(ctx), d.ID); err != nil {
		s.log.Error("ack need posted", zap.String("message_id", d.ID), zap.Error(err))
	}
}
