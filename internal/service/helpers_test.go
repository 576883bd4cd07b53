package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"bakery-shop-backend/internal/cache"
	"bakery-shop-backend/internal/model"
	"bakery-shop-backend/internal/service/servicetest"
)

// clock is a settable time source shared by a test and the services.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	store    *servicetest.Store
	clock    *clock
	catalog  *CatalogService
	orders   *OrderService
	rewards  *RewardService
	carts    *CartService
	addrs    *AddressService
	payments *PaymentService
	users    *UserService

	alice *model.User
	bob   *model.User
	admin *model.User

	bread     *model.Product
	croissant *model.Product
}

func newEnv(t *testing.T, verifyPrices bool) *env {
	t.Helper()

	st := servicetest.NewStore()
	clk := &clock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	lg := zaptest.NewLogger(t)

	catalog := NewCatalogService(st.Catalog(), cache.Nop{}, lg)
	offers, err := NewOfferCatalog(DefaultOffers())
	require.NoError(t, err)

	e := &env{
		store:   st,
		clock:   clk,
		catalog: catalog,
		orders: NewOrderService(OrderDeps{
			Tx:       st,
			Orders:   st.Orders(),
			Counters: st.Counters(),
			Users:    st.Users(),
			Carts:    st.Carts(),
			Outbox:   st.Outbox(),
			Catalog:  catalog,
		}, OrderConfig{
			Pricing:      DefaultPricingPolicy(),
			VerifyPrices: verifyPrices,
			CancelWindow: 5 * time.Minute,
			Now:          clk.Now,
		}, lg),
		rewards:  NewRewardService(st.Users(), offers),
		carts:    NewCartService(st.Carts(), catalog),
		addrs:    NewAddressService(st, st.Addresses()),
		payments: NewPaymentService(st, st.PaymentMethods()),
		users:    NewUserService(st.Users(), st.Orders(), st.Favourites(), catalog),
	}

	e.alice = st.AddUser(model.User{Name: "Alice"})
	e.bob = st.AddUser(model.User{Name: "Bob"})
	e.admin = st.AddUser(model.User{Name: "Admin", Role: model.RoleAdmin})

	e.bread = st.AddProduct(model.Product{
		Name: "Sourdough Loaf", Price: dec("10.00"), Image: "bread.jpg",
		CategoryName: "Breads", IsActive: true, Rating: 4.8,
	})
	e.croissant = st.AddProduct(model.Product{
		Name: "Butter Croissant", Price: dec("5.00"), Image: "croissant.jpg",
		CategoryName: "Pastries", IsActive: true, IsFeatured: true, Rating: 4.5,
	})
	return e
}

func (e *env) identity(u *model.User) Identity {
	return Identity{UserID: u.ID, Role: u.Role}
}

// checkout is the scenario order: two loaves and one croissant.
func (e *env) checkout() CreateOrderInput {
	return CreateOrderInput{
		Items: []model.OrderItem{
			{ProductID: e.bread.ID, ProductName: e.bread.Name, Quantity: 2, Price: dec("10.00")},
			{ProductID: e.croissant.ID, ProductName: e.croissant.Name, Quantity: 1, Price: dec("5.00")},
		},
		DeliveryAddress: model.DeliveryAddress{Type: "Home", Address: "12 Baker Street"},
		PaymentMethod:   "card",
	}
}
