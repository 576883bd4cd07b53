package rabbit

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	OrdersExchange      = "bakery.orders"
	KitchenExchange     = "kitchen_status"
	KitchenStatusQueue  = "bakery_kitchen_status"
	kitchenConsumerName = "bakery-shop-backend"
)

// Declare creates the exchanges and the kitchen status queue.
func Declare(ch *amqp091.Channel) error {
	if err := ch.ExchangeDeclare(OrdersExchange, amqp091.ExchangeTopic, true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "declare orders exchange")
	}
	if err := ch.ExchangeDeclare(KitchenExchange, amqp091.ExchangeFanout, true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "declare kitchen exchange")
	}
	q, err := ch.QueueDeclare(KitchenStatusQueue, true, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "declare kitchen queue")
	}
	// fanout ignores the routing key
	if err := ch.QueueBind(q.Name, "", KitchenExchange, false, nil); err != nil {
		return errors.Wrap(err, "bind kitchen queue")
	}
	return nil
}

// ConsumeKitchenStatus delivers kitchen status messages to consumer until
// ctx is done or the channel closes. Messages are acked after handling;
// malformed or rejected messages are dropped, others requeued.
func ConsumeKitchenStatus(ctx context.Context, ch *amqp091.Channel, consumer *KitchenStatusConsumer, lg *zap.Logger) error {
	if err := ch.Qos(16, 0, false); err != nil {
		return errors.Wrap(err, "set qos")
	}
	msgs, err := ch.ConsumeWithContext(ctx, KitchenStatusQueue, kitchenConsumerName, false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "consume kitchen queue")
	}
	lg.Info("Subscribed to kitchen status", zap.String("exchange", KitchenExchange))

	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("kitchen delivery channel closed")
			}
			ack(m, consumer.Handle(ctx, m.Body), lg)
		}
	}
}

func ack(m amqp091.Delivery, err error, lg *zap.Logger) {
	var ackErr error
	switch {
	case err == nil:
		ackErr = m.Ack(false)
	case IsPermanent(err):
		lg.Warn("Dropping kitchen message", zap.String("message_id", m.MessageId), zap.Error(err))
		ackErr = m.Nack(false, false)
	default:
		lg.Error("Kitchen message failed, requeueing", zap.String("message_id", m.MessageId), zap.Error(err))
		ackErr = m.Nack(false, true)
	}
	if ackErr != nil {
		lg.Error("Acknowledge failed", zap.Error(ackErr))
	}
}
