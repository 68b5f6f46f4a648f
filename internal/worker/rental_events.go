package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"

	"toolrental/internal/api/services"
	"toolrental/internal/domain"
	"toolrental/internal/events"
	"toolrental/internal/logger"
	r "toolrental/internal/redis"
)

const maxBackoff = 30 * time.Second

// RentalEventWorker consumes rental status events, writes them to the audit log
// and drops the cached copy of the affected tool.
type RentalEventWorker struct {
	url       string
	queue     string
	prefetch  int
	toolCache *r.JSONCache[domain.Tool]
	log       *slog.Logger
}

func NewRentalEventWorker(url, queue string, rdb *goredis.Client) *RentalEventWorker {
	return &RentalEventWorker{
		url:       url,
		queue:     queue,
		prefetch:  50,
		toolCache: services.NewToolCache(rdb),
		log:       logger.WithComponent("rental-events"),
	}
}

// Start blocks until ctx is cancelled, reconnecting to the broker with backoff.
func (w *RentalEventWorker) Start(ctx context.Context) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(w.url)
		if err != nil {
			w.log.Warn("dial broker failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = w.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		w.log.Warn("consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func (w *RentalEventWorker) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(w.prefetch, 0, false); err != nil {
		w.log.Warn("set qos failed", "error", err)
	}

	if _, err := ch.QueueDeclare(w.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	deliveries, err := ch.Consume(w.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	w.log.Info("consuming rental events", "queue", w.queue)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := w.handleDelivery(ctx, d.Body); err != nil {
				w.log.Error("handle rental event", "error", err)
				// a malformed event will never succeed, so it is not requeued
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (w *RentalEventWorker) handleDelivery(ctx context.Context, body []byte) error {
	var event events.RentalEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if event.RentalID == uuid.Nil {
		return errors.New("event without rental id")
	}

	w.log.Info("rental status changed",
		"rental_id", event.RentalID,
		"tool_id", event.ToolID,
		"owner_id", event.OwnerID,
		"renter_id", event.RenterID,
		"from", event.PreviousStatus,
		"to", event.Status,
		"start_date", event.StartDate,
		"end_date", event.EndDate,
		"occurred_at", event.OccurredAt,
	)

	if err := w.toolCache.Delete(ctx, event.ToolID.String()); err != nil {
		w.log.Warn("invalidate tool cache", "tool_id", event.ToolID, "error", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
