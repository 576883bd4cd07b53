package rabbit

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"bakery-shop-backend/internal/model"
)

// Publisher is the part of *amqp091.Channel the relay uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

type OutboxStore interface {
	Pending(ctx context.Context, limit int64) ([]*model.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string) error
}

// Relay publishes pending outbox events to the orders exchange, oldest
// first, with the event type as routing key. Delivery is at least once.
type Relay struct {
	store    OutboxStore
	pub      Publisher
	interval time.Duration
	batch    int64
	lg       *zap.Logger
}

func NewRelay(store OutboxStore, pub Publisher, interval time.Duration, lg *zap.Logger) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	return &Relay{store: store, pub: pub, interval: interval, batch: 100, lg: lg}
}

func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.lg.Warn("Outbox flush failed", zap.Error(err))
			}
		}
	}
}

// Flush publishes one batch and returns how many events were marked
// published. It stops at the first publish failure to keep event order.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	events, err := r.store.Pending(ctx, r.batch)
	if err != nil {
		return 0, errors.Wrap(err, "load pending events")
	}

	sent := 0
	for _, ev := range events {
		err := r.pub.PublishWithContext(ctx, OrdersExchange, ev.Type, false, false, amqp091.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp091.Persistent,
			MessageId:     uuid.NewString(),
			CorrelationId: ev.AggregateID,
			Type:          ev.Type,
			Timestamp:     ev.CreatedAt,
			Body:          ev.Payload,
		})
		if err != nil {
			return sent, errors.Wrapf(err, "publish %s", ev.ID)
		}
		if err := r.store.MarkPublished(ctx, ev.ID); err != nil {
			return sent, errors.Wrapf(err, "mark %s published", ev.ID)
		}
		sent++
	}
	if sent > 0 {
		r.lg.Debug("Outbox flushed", zap.Int("events", sent))
	}
	return sent, nil
}
