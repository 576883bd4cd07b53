package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"bakery-shop-backend/internal/model"
)

const orderCounter = "orders"

// CreateOrderInput is a checkout request.
type CreateOrderInput struct {
	Items           []model.OrderItem `validate:"min=1,dive"`
	DeliveryAddress model.DeliveryAddress
	PaymentMethod   string `validate:"required"`
	Notes           string `validate:"max=500"`
}

type OrderDeps struct {
	Tx       Transactor
	Orders   OrderRepository
	Counters CounterRepository
	Users    UserRepository
	Carts    CartRepository
	Outbox   OutboxRepository
	Catalog  *CatalogService
}

type OrderConfig struct {
	Pricing PricingPolicy
	// VerifyPrices re-prices every line from the catalog and rejects
	// checkouts whose client prices disagree.
	VerifyPrices bool
	CancelWindow time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type OrderService struct {
	OrderDeps
	pricing      PricingPolicy
	verifyPrices bool
	cancelWindow time.Duration
	now          func() time.Time
	lg           *zap.Logger
}

func NewOrderService(deps OrderDeps, cfg OrderConfig, lg *zap.Logger) *OrderService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CancelWindow <= 0 {
		cfg.CancelWindow = 5 * time.Minute
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &OrderService{
		OrderDeps:    deps,
		pricing:      cfg.Pricing,
		verifyPrices: cfg.VerifyPrices,
		cancelWindow: cfg.CancelWindow,
		now:          cfg.Now,
		lg:           lg,
	}
}

// CreateOrder prices the checkout and, in one transaction, stores the order
// under a fresh order number, credits reward points, empties the cart and
// records an order.placed event.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (*model.Order, error) {
	if err := check(in); err != nil {
		return nil, err
	}

	items := in.Items
	if s.verifyPrices {
		var err error
		if items, err = s.reprice(ctx, in.Items); err != nil {
			return nil, err
		}
	}

	quote := s.pricing.Quote(items)
	points, ok := s.pricing.PointsAwarded(quote.Total)
	if !ok {
		return nil, validationError("order total is too large")
	}
	now := s.now().UTC()

	order := &model.Order{
		UserID:          userID,
		Items:           items,
		Subtotal:        quote.Subtotal,
		DeliveryFee:     quote.DeliveryFee,
		Tax:             quote.Tax,
		Total:           quote.Total,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPaid,
		DeliveryAddress: in.DeliveryAddress,
		PaymentMethod:   in.PaymentMethod,
		Notes:           in.Notes,
		CreatedAt:       now,
	}

	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		seq, err := s.Counters.Next(ctx, orderCounter)
		if err != nil {
			return errors.Wrap(err, "next order number")
		}
		order.OrderNumber = FormatOrderNumber(now.Year(), seq)

		if err := s.Orders.Create(ctx, order); err != nil {
			return err
		}
		if err := s.Users.AddRewardPoints(ctx, userID, points); err != nil {
			return err
		}
		if err := s.Carts.Clear(ctx, userID); err != nil {
			return err
		}
		return s.enqueue(ctx, model.EventOrderPlaced, order)
	})
	if err != nil {
		return nil, storeErr(err, "User not found", "create order")
	}

	s.lg.Info("Order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int64("points", points),
	)
	return order, nil
}

// reprice replaces each line's price, name and image with the catalog's.
// A client price that differs from the catalog price is rejected.
func (s *OrderService) reprice(ctx context.Context, items []model.OrderItem) ([]model.OrderItem, error) {
	out := make([]model.OrderItem, len(items))
	var reasons []string
	for i, it := range items {
		p, err := s.Catalog.Product(ctx, it.ProductID)
		if IsKind(err, KindNotFound) || (err == nil && !p.IsActive) {
			reasons = append(reasons, fmt.Sprintf("items[%d].productId %s is not available", i, it.ProductID))
			continue
		}
		if err != nil {
			return nil, err
		}
		if !it.Price.Equal(p.Price) {
			reasons = append(reasons, fmt.Sprintf("items[%d].price %s does not match catalog price %s",
				i, it.Price.StringFixed(2), p.Price.StringFixed(2)))
			continue
		}
		out[i] = model.OrderItem{
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductImage: p.Image,
			Quantity:     it.Quantity,
			Price:        p.Price,
		}
	}
	if len(reasons) > 0 {
		return nil, validationError(reasons...)
	}
	return out, nil
}

// CancelOrder cancels and refunds the caller's order while it is at most
// cancelWindow old.
func (s *OrderService) CancelOrder(ctx context.Context, orderID string, id Identity) (*model.Order, error) {
	order, err := s.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, storeErr(err, "Order not found", "find order")
	}
	if err := Authorize(id, order.UserID); err != nil {
		return nil, forbidden("Not authorized to cancel this order")
	}
	if s.now().Sub(order.CreatedAt) > s.cancelWindow {
		return nil, invalidState(fmt.Sprintf("Order cannot be cancelled after %s", humanMinutes(s.cancelWindow)))
	}

	refunded := model.PaymentStatusRefunded
	var updated *model.Order
	err = s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.Orders.SetStatus(ctx, orderID, model.OrderStatusCancelled, &refunded)
		if err != nil {
			return err
		}
		return s.enqueue(ctx, model.EventOrderCancelled, updated)
	})
	if err != nil {
		return nil, storeErr(err, "Order not found", "cancel order")
	}

	s.lg.Info("Order cancelled", zap.String("order_number", updated.OrderNumber))
	return updated, nil
}

// UpdateOrderStatus sets any status without a transition check. Callers are
// administrators or the kitchen feed.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, validationError(fmt.Sprintf("status must be one of %v", model.OrderStatuses))
	}

	var updated *model.Order
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.Orders.SetStatus(ctx, orderID, status, nil)
		if err != nil {
			return err
		}
		return s.enqueue(ctx, model.EventOrderStatusChanged, updated)
	})
	if err != nil {
		return nil, storeErr(err, "Order not found", "update order status")
	}
	return updated, nil
}

// GetOrders lists the user's orders newest first. filter is "", "pending"
// or "completed".
func (s *OrderService) GetOrders(ctx context.Context, userID, filter string) ([]*model.Order, error) {
	statuses, err := statusesFor(filter, false)
	if err != nil {
		return nil, err
	}
	orders, err := s.Orders.FindByUser(ctx, userID, statuses)
	if err != nil {
		return nil, errors.Wrap(err, "find orders")
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string, id Identity) (*model.Order, error) {
	order, err := s.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, storeErr(err, "Order not found", "find order")
	}
	if err := AuthorizeView(id, order.UserID); err != nil {
		return nil, forbidden("Not authorized to view this order")
	}
	return order, nil
}

// ListAllOrders accepts the same groups as GetOrders plus any single status.
func (s *OrderService) ListAllOrders(ctx context.Context, filter string) ([]*model.Order, error) {
	statuses, err := statusesFor(filter, true)
	if err != nil {
		return nil, err
	}
	orders, err := s.Orders.FindAll(ctx, statuses)
	if err != nil {
		return nil, errors.Wrap(err, "find orders")
	}
	return orders, nil
}

func statusesFor(filter string, allowExact bool) ([]model.OrderStatus, error) {
	switch filter {
	case "":
		return nil, nil
	case "pending":
		return []model.OrderStatus{model.OrderStatusPending, model.OrderStatusPreparing, model.OrderStatusReady}, nil
	case "completed":
		return []model.OrderStatus{model.OrderStatusDelivered, model.OrderStatusCancelled}, nil
	}
	if st := model.OrderStatus(filter); allowExact && st.Valid() {
		return []model.OrderStatus{st}, nil
	}
	return nil, validationError(fmt.Sprintf("unknown status filter %q", filter))
}

// OrderEvent is the JSON body of every order event sent to the broker.
type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	UserID        string    `json:"userId"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	Total         string    `json:"total"`
	Items         int       `json:"items"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func (s *OrderService) enqueue(ctx context.Context, eventType string, o *model.Order) error {
	payload, err := json.Marshal(OrderEvent{
		Type:          eventType,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		Total:         o.Total.StringFixed(2),
		Items:         len(o.Items),
		OccurredAt:    s.now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "marshal order event")
	}
	return s.Outbox.Enqueue(ctx, &model.OutboxEvent{
		AggregateID: o.ID,
		Type:        eventType,
		Payload:     payload,
	})
}

func humanMinutes(d time.Duration) string {
	if d == time.Minute {
		return "1 minute"
	}
	return fmt.Sprintf("%g minutes", d.Minutes())
}
