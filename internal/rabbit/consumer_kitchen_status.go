package rabbit

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"bakery-shop-backend/internal/dto"
	"bakery-shop-backend/internal/model"
	"bakery-shop-backend/internal/service"
)

var errMalformed = errors.New("malformed message")

// StatusUpdater is satisfied by *service.OrderService.
type StatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
}

// KitchenStatusConsumer applies status updates published by the kitchen.
type KitchenStatusConsumer struct {
	Service StatusUpdater
	lg      *zap.Logger
}

func NewKitchenStatusConsumer(s StatusUpdater, lg *zap.Logger) *KitchenStatusConsumer {
	return &KitchenStatusConsumer{Service: s, lg: lg}
}

func (c *KitchenStatusConsumer) Handle(ctx context.Context, body []byte) error {
	var msg dto.KitchenStatusMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return errors.Wrap(errMalformed, err.Error())
	}
	if msg.OrderID == "" || msg.Status == "" {
		return errors.Wrap(errMalformed, "orderId and status are required")
	}

	o, err := c.Service.UpdateOrderStatus(ctx, msg.OrderID, model.OrderStatus(msg.Status))
	if err != nil {
		return errors.Wrapf(err, "update order %s", msg.OrderID)
	}
	c.lg.Info("Kitchen status applied",
		zap.String("order_number", o.OrderNumber),
		zap.String("status", string(o.Status)),
	)
	return nil
}

// IsPermanent reports whether redelivering the message cannot succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, errMalformed) ||
		service.IsKind(err, service.KindValidation) ||
		service.IsKind(err, service.KindNotFound)
}
