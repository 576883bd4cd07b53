package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"bakery-shop-backend/internal/model"
)

func TestCreateOrder_Scenario(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	_, err := e.carts.AddItem(ctx, e.alice.ID, e.bread.ID, 2)
	require.NoError(t, err)

	o, err := e.orders.CreateOrder(ctx, e.alice.ID, e.checkout())
	require.NoError(t, err)

	assert.Equal(t, "ORD-2026-0001", o.OrderNumber)
	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.Equal(t, model.PaymentStatusPaid, o.PaymentStatus)
	assert.True(t, o.Subtotal.Equal(dec("25.00")))
	assert.True(t, o.DeliveryFee.Equal(dec("4.99")))
	assert.True(t, o.Tax.Equal(dec("2.00")))
	assert.True(t, o.Total.Equal(dec("31.99")))
	assert.Equal(t, "bread.jpg", o.Items[0].ProductImage, "snapshot taken from the catalog")

	u, _ := e.store.User(e.alice.ID)
	assert.Equal(t, int64(319), u.RewardPoints)

	cart, ok := e.store.Cart(e.alice.ID)
	require.True(t, ok)
	assert.Empty(t, cart.Items)

	events := e.store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventOrderPlaced, events[0].Type)
	assert.Equal(t, o.ID, events[0].AggregateID)

	var ev OrderEvent
	require.NoError(t, json.Unmarshal(events[0].Payload, &ev))
	assert.Equal(t, "ORD-2026-0001", ev.OrderNumber)
	assert.Equal(t, "31.99", ev.Total)
}

func TestCreateOrder_FreeDelivery(t *testing.T) {
	e := newEnv(t, true)
	in := e.checkout()
	in.Items = []model.OrderItem{
		{ProductID: e.bread.ID, ProductName: e.bread.Name, Quantity: 6, Price: dec("10.00")},
	}

	o, err := e.orders.CreateOrder(context.Background(), e.alice.ID, in)
	require.NoError(t, err)
	assert.True(t, o.Subtotal.Equal(dec("60.00")))
	assert.True(t, o.DeliveryFee.IsZero())
	assert.True(t, o.Tax.Equal(dec("4.80")))
	assert.True(t, o.Total.Equal(dec("64.80")))

	u, _ := e.store.User(e.alice.ID)
	assert.Equal(t, int64(648), u.RewardPoints)
}

func TestCreateOrder_PointsAccumulate(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := e.orders.CreateOrder(ctx, e.alice.ID, e.checkout())
		require.NoError(t, err)
	}

	u, _ := e.store.User(e.alice.ID)
	assert.Equal(t, int64(3*319), u.RewardPoints)
}

func TestCreateOrder_Validation(t *testing.T) {
	e := newEnv(t, false)

	in := CreateOrderInput{
		Items: []model.OrderItem{
			{ProductID: "", ProductName: "Loaf", Quantity: 0, Price: dec("-1")},
			{ProductID: "x", ProductName: "Bun", Quantity: 1, Price: dec("1.005")},
		},
	}
	_, err := e.orders.CreateOrder(context.Background(), e.alice.ID, in)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindValidation, se.Kind)
	joined := strings.Join(se.Reasons, "\n")
	assert.Contains(t, joined, "items[0].productId is required")
	assert.Contains(t, joined, "items[0].quantity must be at least 1")
	assert.Contains(t, joined, "items[0].price must be a non-negative amount")
	assert.Contains(t, joined, "items[1].price must be a non-negative amount")
	assert.Contains(t, joined, "deliveryAddress.type is required")
	assert.Contains(t, joined, "deliveryAddress.address is required")
	assert.Contains(t, joined, "paymentMethod is required")
	assert.Zero(t, e.store.OrderCount())
}

func TestCreateOrder_HugeQuantityRejected(t *testing.T) {
	e := newEnv(t, true)
	in := e.checkout()
	in.Items = in.Items[:1]
	in.Items[0].Quantity = 1_000_000_000_000_000_000

	_, err := e.orders.CreateOrder(context.Background(), e.alice.ID, in)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindValidation, se.Kind)
	assert.Contains(t, strings.Join(se.Reasons, "\n"), "items[0].quantity must be at most 1000")
	u, _ := e.store.User(e.alice.ID)
	assert.Zero(t, u.RewardPoints)
	assert.Zero(t, e.store.OrderCount())
}

func TestCreateOrder_PointsOverflowRejected(t *testing.T) {
	e := newEnv(t, false)
	in := e.checkout()
	in.Items = []model.OrderItem{{
		ProductID: "gold-cake", ProductName: "Gold Cake", Quantity: 1000, Price: dec("10000000000000000.00"),
	}}

	_, err := e.orders.CreateOrder(context.Background(), e.alice.ID, in)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindValidation, se.Kind)
	assert.Equal(t, []string{"order total is too large"}, se.Reasons)
	u, _ := e.store.User(e.alice.ID)
	assert.Zero(t, u.RewardPoints)
	assert.Zero(t, e.store.OrderCount())
	assert.Empty(t, e.store.OutboxEvents())
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	e := newEnv(t, false)
	in := e.checkout()
	in.Items = nil

	_, err := e.orders.CreateOrder(context.Background(), e.alice.ID, in)
	assert.True(t, IsKind(err, KindValidation))
}

func TestCreateOrder_PriceMismatchRejected(t *testing.T) {
	e := newEnv(t, true)
	in := e.checkout()
	in.Items[1].Price = dec("0.01")

	_, err := e.orders.CreateOrder(context.Background(), e.alice.ID, in)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindValidation, se.Kind)
	require.Len(t, se.Reasons, 1)
	assert.Contains(t, se.Reasons[0], "does not match catalog price 5.00")
	assert.Zero(t, e.store.OrderCount())
}

func TestCreateOrder_UnknownProductRejected(t *testing.T) {
	e := newEnv(t, true)
	in := e.checkout()
	in.Items[0].ProductID = "missing"

	_, err := e.orders.CreateOrder(context.Background(), e.alice.ID, in)
	assert.True(t, IsKind(err, KindValidation))
}

func TestCreateOrder_InactiveProductRejected(t *testing.T) {
	e := newEnv(t, true)
	retired := e.store.AddProduct(model.Product{Name: "Retired Tart", Price: dec("3.00")})
	in := e.checkout()
	in.Items[0].ProductID = retired.ID
	in.Items[0].Price = dec("3.00")

	_, err := e.orders.CreateOrder(context.Background(), e.alice.ID, in)
	assert.True(t, IsKind(err, KindValidation))
}

func TestCreateOrder_TrustedPrices(t *testing.T) {
	e := newEnv(t, false)
	in := e.checkout()
	in.Items[0].ProductID = "not-in-catalog"
	in.Items[0].Price = dec("12.50")

	o, err := e.orders.CreateOrder(context.Background(), e.alice.ID, in)
	require.NoError(t, err)
	assert.True(t, o.Subtotal.Equal(dec("30.00")))
}

func TestCreateOrder_RollsBackOnFailure(t *testing.T) {
	for _, op := range []string{"users.AddRewardPoints", "carts.Clear", "outbox.Enqueue"} {
		t.Run(op, func(t *testing.T) {
			e := newEnv(t, true)
			ctx := context.Background()
			_, err := e.carts.AddItem(ctx, e.alice.ID, e.bread.ID, 1)
			require.NoError(t, err)

			e.store.FailOn(op, errors.New("store unavailable"))
			_, err = e.orders.CreateOrder(ctx, e.alice.ID, e.checkout())
			require.Error(t, err)
			assert.False(t, IsKind(err, KindValidation))

			assert.Zero(t, e.store.OrderCount())
			assert.Empty(t, e.store.OutboxEvents())
			u, _ := e.store.User(e.alice.ID)
			assert.Zero(t, u.RewardPoints)
			cart, _ := e.store.Cart(e.alice.ID)
			assert.Len(t, cart.Items, 1)

			// The failed attempt consumed no order number.
			e.store.FailOn(op, nil)
			o, err := e.orders.CreateOrder(ctx, e.alice.ID, e.checkout())
			require.NoError(t, err)
			assert.Equal(t, "ORD-2026-0001", o.OrderNumber)
		})
	}
}

func TestCreateOrder_UnknownUser(t *testing.T) {
	e := newEnv(t, true)

	_, err := e.orders.CreateOrder(context.Background(), "ghost", e.checkout())
	assert.True(t, IsKind(err, KindNotFound))
	assert.Zero(t, e.store.OrderCount())
}

func TestCreateOrder_ConcurrentOrderNumbersUnique(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	const n = 50
	numbers := make([]string, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		buyer := e.alice
		if i%2 == 1 {
			buyer = e.bob
		}
		g.Go(func() error {
			o, err := e.orders.CreateOrder(ctx, buyer.ID, e.checkout())
			if err != nil {
				return err
			}
			numbers[i] = o.OrderNumber
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[string]bool, n)
	for _, num := range numbers {
		assert.False(t, seen[num], "duplicate order number %s", num)
		seen[num] = true
	}
	assert.True(t, seen["ORD-2026-0001"])
	assert.True(t, seen["ORD-2026-0050"])
}

func TestCancelOrder_Window(t *testing.T) {
	for _, tt := range []struct {
		name    string
		elapsed time.Duration
		ok      bool
	}{
		{"immediately", 0, true},
		{"at 4:59", 4*time.Minute + 59*time.Second, true},
		{"at exactly 5:00", 5 * time.Minute, true},
		{"at 5:01", 5*time.Minute + time.Second, false},
		{"an hour later", time.Hour, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, true)
			ctx := context.Background()
			o, err := e.orders.CreateOrder(ctx, e.alice.ID, e.checkout())
			require.NoError(t, err)

			e.clock.Advance(tt.elapsed)
			got, err := e.orders.CancelOrder(ctx, o.ID, e.identity(e.alice))
			if !tt.ok {
				assert.True(t, IsKind(err, KindInvalidState), "got %v", err)
				stored, _ := e.store.Orders().FindByID(ctx, o.ID)
				assert.Equal(t, model.OrderStatusPending, stored.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.OrderStatusCancelled, got.Status)
			assert.Equal(t, model.PaymentStatusRefunded, got.PaymentStatus)
			assert.Equal(t, o.OrderNumber, got.OrderNumber)

			events := e.store.OutboxEvents()
			require.Len(t, events, 2)
			assert.Equal(t, model.EventOrderCancelled, events[1].Type)
		})
	}
}

func TestCancelOrder_KeepsPoints(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	o, err := e.orders.CreateOrder(ctx, e.alice.ID, e.checkout())
	require.NoError(t, err)

	_, err = e.orders.CancelOrder(ctx, o.ID, e.identity(e.alice))
	require.NoError(t, err)

	u, _ := e.store.User(e.alice.ID)
	assert.Equal(t, int64(319), u.RewardPoints)
}

func TestCancelOrder_NotOwner(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	o, err := e.orders.CreateOrder(ctx, e.alice.ID, e.checkout())
	require.NoError(t, err)

	_, err = e.orders.CancelOrder(ctx, o.ID, e.identity(e.bob))
	assert.True(t, IsKind(err, KindForbidden))

	_, err = e.orders.CancelOrder(ctx, o.ID, e.identity(e.admin))
	assert.True(t, IsKind(err, KindForbidden), "admins cannot cancel on behalf of users")
}

func TestCancelOrder_NotFound(t *testing.T) {
	e := newEnv(t, true)
	_, err := e.orders.CancelOrder(context.Background(), "nope", e.identity(e.alice))
	assert.True(t, IsKind(err, KindNotFound))
}

func TestUpdateOrderStatus(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	o, err := e.orders.CreateOrder(ctx, e.alice.ID, e.checkout())
	require.NoError(t, err)

	// No transition graph: pending straight to delivered is allowed.
	got, err := e.orders.UpdateOrderStatus(ctx, o.ID, model.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, got.Status)
	assert.Equal(t, model.PaymentStatusPaid, got.PaymentStatus)

	got, err = e.orders.UpdateOrderStatus(ctx, o.ID, model.OrderStatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPreparing, got.Status)

	events := e.store.OutboxEvents()
	require.Len(t, events, 3)
	assert.Equal(t, model.EventOrderStatusChanged, events[2].Type)

	_, err = e.orders.UpdateOrderStatus(ctx, o.ID, "baking")
	assert.True(t, IsKind(err, KindValidation))

	_, err = e.orders.UpdateOrderStatus(ctx, "nope", model.OrderStatusReady)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestGetOrders_Filters(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		o, err := e.orders.CreateOrder(ctx, e.alice.ID, e.checkout())
		require.NoError(t, err)
		ids = append(ids, o.ID)
		e.clock.Advance(time.Minute)
	}
	_, err := e.orders.CreateOrder(ctx, e.bob.ID, e.checkout())
	require.NoError(t, err)

	statuses := []model.OrderStatus{
		model.OrderStatusPending, model.OrderStatusPreparing, model.OrderStatusReady,
		model.OrderStatusDelivered, model.OrderStatusCancelled,
	}
	for i, st := range statuses {
		_, err := e.orders.UpdateOrderStatus(ctx, ids[i], st)
		require.NoError(t, err)
	}

	all, err := e.orders.GetOrders(ctx, e.alice.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, ids[4], all[0].ID, "newest first")
	assert.Equal(t, ids[0], all[4].ID)

	pending, err := e.orders.GetOrders(ctx, e.alice.ID, "pending")
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	completed, err := e.orders.GetOrders(ctx, e.alice.ID, "completed")
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	_, err = e.orders.GetOrders(ctx, e.alice.ID, "delivered")
	assert.True(t, IsKind(err, KindValidation))

	adminAll, err := e.orders.ListAllOrders(ctx, "")
	require.NoError(t, err)
	assert.Len(t, adminAll, 6)

	delivered, err := e.orders.ListAllOrders(ctx, "delivered")
	require.NoError(t, err)
	assert.Len(t, delivered, 1)

	_, err = e.orders.ListAllOrders(ctx, "burnt")
	assert.True(t, IsKind(err, KindValidation))
}

func TestGetOrder_Access(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	o, err := e.orders.CreateOrder(ctx, e.alice.ID, e.checkout())
	require.NoError(t, err)

	_, err = e.orders.GetOrder(ctx, o.ID, e.identity(e.alice))
	assert.NoError(t, err)

	_, err = e.orders.GetOrder(ctx, o.ID, e.identity(e.admin))
	assert.NoError(t, err)

	_, err = e.orders.GetOrder(ctx, o.ID, e.identity(e.bob))
	assert.True(t, IsKind(err, KindForbidden))

	_, err = e.orders.GetOrder(ctx, "nope", e.identity(e.alice))
	assert.True(t, IsKind(err, KindNotFound))
}
