// Package servicetest provides in-memory implementations of the service
// repositories. A Store behaves like the Mongo-backed repositories for the
// properties the services rely on: transactions roll back on error, the
// order counter is atomic and at most one default entry exists per user.
package servicetest

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bakery-shop-backend/internal/model"
)

type state struct {
	orders     map[string]model.Order
	orderSeq   map[string]int
	counters   map[string]int64
	users      map[string]model.User
	carts      map[string]model.Cart
	favourites map[string]model.Favourite
	addresses  map[string]model.Address
	payments   map[string]model.PaymentMethod
	products   map[string]model.Product
	categories map[string]model.Category
	outbox     []model.OutboxEvent
}

func (s state) clone() state {
	return state{
		orders:     maps.Clone(s.orders),
		orderSeq:   maps.Clone(s.orderSeq),
		counters:   maps.Clone(s.counters),
		users:      maps.Clone(s.users),
		carts:      maps.Clone(s.carts),
		favourites: maps.Clone(s.favourites),
		addresses:  maps.Clone(s.addresses),
		payments:   maps.Clone(s.payments),
		products:   maps.Clone(s.products),
		categories: maps.Clone(s.categories),
		outbox:     slices.Clone(s.outbox),
	}
}

// Store is the shared backing state of every fake repository. Values are
// stored by copy and slices are never mutated in place, so a shallow clone
// of the maps is a consistent snapshot.
type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	st       state
	nextSeq  int
	failures map[string]error
}

func NewStore() *Store {
	return &Store{
		st: state{
			orders:     map[string]model.Order{},
			orderSeq:   map[string]int{},
			counters:   map[string]int64{},
			users:      map[string]model.User{},
			carts:      map[string]model.Cart{},
			favourites: map[string]model.Favourite{},
			addresses:  map[string]model.Address{},
			payments:   map[string]model.PaymentMethod{},
			products:   map[string]model.Product{},
			categories: map[string]model.Category{},
		},
		failures: map[string]error{},
	}
}

// FailOn makes every later call of op (for example "carts.Clear") return err.
// A nil err clears the failure.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) fail(op string) error {
	return s.failures[op]
}

// WithinTransaction serializes transactions and restores the previous state
// when fn fails.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.st.clone()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.st = snap
		s.mu.Unlock()
		return err
	}
	return nil
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// Fixtures.

func (s *Store) AddUser(u model.User) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = newID()
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if u.Tier == "" {
		u.Tier = model.TierBronze
	}
	s.st.users[u.ID] = u
	return &u
}

func (s *Store) AddProduct(p model.Product) *model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.st.products[p.ID] = p
	return &p
}

func (s *Store) AddCategory(c model.Category) *model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	s.st.categories[c.ID] = c
	return &c
}

// Inspection.

func (s *Store) User(id string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	return u, ok
}

func (s *Store) Cart(userID string) (model.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.carts[userID]
	return c, ok
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.orders)
}

func (s *Store) OutboxEvents() []model.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.st.outbox)
}

// SetOrderCreatedAt backdates an order, for cancellation window tests.
func (s *Store) SetOrderCreatedAt(id string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.st.orders[id]
	o.CreatedAt = t
	s.st.orders[id] = o
}

func (s *Store) Addresses() *Addresses           { return &Addresses{s} }
func (s *Store) Carts() *Carts                   { return &Carts{s} }
func (s *Store) Catalog() *Catalog               { return &Catalog{s} }
func (s *Store) Counters() *Counters             { return &Counters{s} }
func (s *Store) Favourites() *Favourites         { return &Favourites{s} }
func (s *Store) Orders() *Orders                 { return &Orders{s} }
func (s *Store) Outbox() *Outbox                 { return &Outbox{s} }
func (s *Store) PaymentMethods() *PaymentMethods { return &PaymentMethods{s} }
func (s *Store) Users() *Users                   { return &Users{s} }

type Orders struct{ s *Store }

func (r *Orders) Create(_ context.Context, o *model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("orders.Create"); err != nil {
		return err
	}
	for _, existing := range r.s.st.orders {
		if existing.OrderNumber == o.OrderNumber {
			return model.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	o.ID = newID()
	o.Items = slices.Clone(o.Items)

	r.s.nextSeq++
	r.s.st.orders[o.ID] = *o
	r.s.st.orderSeq[o.ID] = r.s.nextSeq
	return nil
}

func (r *Orders) FindByID(_ context.Context, id string) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.st.orders[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &o, nil
}

func (r *Orders) FindByUser(_ context.Context, userID string, statuses []model.OrderStatus) ([]*model.Order, error) {
	return r.find(func(o model.Order) bool {
		return o.UserID == userID && matchStatus(o.Status, statuses)
	}), nil
}

func (r *Orders) FindAll(_ context.Context, statuses []model.OrderStatus) ([]*model.Order, error) {
	return r.find(func(o model.Order) bool {
		return matchStatus(o.Status, statuses)
	}), nil
}

func (r *Orders) SetStatus(_ context.Context, id string, status model.OrderStatus, payment *model.PaymentStatus) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("orders.SetStatus"); err != nil {
		return nil, err
	}
	o, ok := r.s.st.orders[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	o.Status = status
	if payment != nil {
		o.PaymentStatus = *payment
	}
	o.UpdatedAt = time.Now().UTC()
	r.s.st.orders[id] = o
	return &o, nil
}

func (r *Orders) find(match func(model.Order) bool) []*model.Order {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Order{}
	for _, o := range r.s.st.orders {
		if match(o) {
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.s.st.orderSeq[out[i].ID] > r.s.st.orderSeq[out[j].ID]
	})
	return out
}

func matchStatus(s model.OrderStatus, statuses []model.OrderStatus) bool {
	return len(statuses) == 0 || slices.Contains(statuses, s)
}

type Counters struct{ s *Store }

func (r *Counters) Next(_ context.Context, name string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("counters.Next"); err != nil {
		return 0, err
	}
	r.s.st.counters[name]++
	return r.s.st.counters[name], nil
}

type Users struct{ s *Store }

func (r *Users) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &u, nil
}

func (r *Users) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.users[u.ID]; ok {
		return model.ErrDuplicate
	}
	if u.Tier == "" {
		u.Tier = model.TierBronze
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	r.s.st.users[u.ID] = *u
	return nil
}

func (r *Users) Ensure(_ context.Context, id, name string, role model.Role) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.st.users[id]
	if !ok {
		u = model.User{ID: id, Name: name, Tier: model.TierBronze, CreatedAt: time.Now().UTC()}
	}
	u.Role = role
	r.s.st.users[id] = u
	return &u, nil
}

func (r *Users) AddRewardPoints(_ context.Context, id string, points int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.AddRewardPoints"); err != nil {
		return err
	}
	u, ok := r.s.st.users[id]
	if !ok {
		return model.ErrNotFound
	}
	u.RewardPoints += points
	r.s.st.users[id] = u
	return nil
}

func (r *Users) DeductRewardPoints(_ context.Context, id string, points int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.st.users[id]
	if !ok || u.RewardPoints < points {
		return nil, model.ErrNotFound
	}
	u.RewardPoints -= points
	r.s.st.users[id] = u
	return &u, nil
}

type Carts struct{ s *Store }

func (r *Carts) GetOrCreate(_ context.Context, userID string) (*model.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.st.carts[userID]
	if !ok {
		now := time.Now().UTC()
		c = model.Cart{ID: newID(), UserID: userID, Items: []model.CartItem{}, CreatedAt: now, UpdatedAt: now}
		r.s.st.carts[userID] = c
	}
	c.Items = slices.Clone(c.Items)
	return &c, nil
}

func (r *Carts) AddItem(_ context.Context, userID, productID string, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.st.carts[userID]
	if !ok {
		c = model.Cart{ID: newID(), UserID: userID, CreatedAt: time.Now().UTC()}
	}
	items := slices.Clone(c.Items)
	if i := itemIndex(items, productID); i >= 0 {
		items[i].Quantity += quantity
	} else {
		items = append(items, model.CartItem{ProductID: productID, Quantity: quantity})
	}
	c.Items = items
	c.UpdatedAt = time.Now().UTC()
	r.s.st.carts[userID] = c
	return nil
}

func (r *Carts) SetItemQuantity(_ context.Context, userID, productID string, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.st.carts[userID]
	if !ok {
		return model.ErrNotFound
	}
	i := itemIndex(c.Items, productID)
	if i < 0 {
		return model.ErrNotFound
	}
	items := slices.Clone(c.Items)
	items[i].Quantity = quantity
	c.Items = items
	r.s.st.carts[userID] = c
	return nil
}

func (r *Carts) RemoveItem(_ context.Context, userID, productID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.st.carts[userID]
	if !ok {
		return model.ErrNotFound
	}
	c.Items = slices.DeleteFunc(slices.Clone(c.Items), func(it model.CartItem) bool {
		return it.ProductID == productID
	})
	r.s.st.carts[userID] = c
	return nil
}

func (r *Carts) Clear(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("carts.Clear"); err != nil {
		return err
	}
	c, ok := r.s.st.carts[userID]
	if !ok {
		c = model.Cart{ID: newID(), UserID: userID, CreatedAt: time.Now().UTC()}
	}
	c.Items = []model.CartItem{}
	c.UpdatedAt = time.Now().UTC()
	r.s.st.carts[userID] = c
	return nil
}

func itemIndex(items []model.CartItem, productID string) int {
	return slices.IndexFunc(items, func(it model.CartItem) bool { return it.ProductID == productID })
}

type Favourites struct{ s *Store }

func (r *Favourites) GetOrCreate(_ context.Context, userID string) (*model.Favourite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.st.favourites[userID]
	if !ok {
		f = model.Favourite{UserID: userID, ProductIDs: []string{}, UpdatedAt: time.Now().UTC()}
		r.s.st.favourites[userID] = f
	}
	f.ProductIDs = slices.Clone(f.ProductIDs)
	return &f, nil
}

func (r *Favourites) Add(_ context.Context, userID, productID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f := r.s.st.favourites[userID]
	f.UserID = userID
	if !slices.Contains(f.ProductIDs, productID) {
		f.ProductIDs = append(slices.Clone(f.ProductIDs), productID)
	}
	r.s.st.favourites[userID] = f
	return nil
}

func (r *Favourites) Remove(_ context.Context, userID, productID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.st.favourites[userID]
	if !ok {
		return model.ErrNotFound
	}
	f.ProductIDs = slices.DeleteFunc(slices.Clone(f.ProductIDs), func(id string) bool { return id == productID })
	r.s.st.favourites[userID] = f
	return nil
}

type Catalog struct{ s *Store }

func (r *Catalog) ListProducts(_ context.Context, f model.ProductFilter) ([]*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Product{}
	for _, p := range r.s.st.products {
		if !p.IsActive ||
			(f.CategoryName != "" && p.CategoryName != f.CategoryName) ||
			(f.FeaturedOnly && !p.IsFeatured) ||
			(f.Search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), strings.ToLower(f.Search))) {
			continue
		}
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool {
		switch f.Sort {
		case "price-asc":
			return out[i].Price.LessThan(out[j].Price)
		case "price-desc":
			return out[i].Price.GreaterThan(out[j].Price)
		case "rating":
			return out[i].Rating > out[j].Rating
		default:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
	})
	return out, nil
}

func (r *Catalog) FindProduct(_ context.Context, id string) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.products[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}

func (r *Catalog) FindProducts(_ context.Context, ids []string) ([]*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Product{}
	for _, id := range ids {
		if p, ok := r.s.st.products[id]; ok {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r *Catalog) ListCategories(_ context.Context) ([]*model.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Category{}
	for _, c := range r.s.st.categories {
		if c.IsActive {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Catalog) FindCategory(_ context.Context, id string) (*model.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.st.categories[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &c, nil
}

type Outbox struct{ s *Store }

func (r *Outbox) Enqueue(_ context.Context, e *model.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("outbox.Enqueue"); err != nil {
		return err
	}
	e.ID = newID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.s.st.outbox = append(r.s.st.outbox, *e)
	return nil
}

func (r *Outbox) Pending(_ context.Context, limit int64) ([]*model.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.OutboxEvent{}
	for _, e := range r.s.st.outbox {
		if e.PublishedAt == nil && int64(len(out)) < limit {
			out = append(out, &e)
		}
	}
	return out, nil
}

func (r *Outbox) MarkPublished(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	outbox := slices.Clone(r.s.st.outbox)
	for i := range outbox {
		if outbox[i].ID == id {
			now := time.Now().UTC()
			outbox[i].PublishedAt = &now
		}
	}
	r.s.st.outbox = outbox
	return nil
}
