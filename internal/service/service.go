package service

import (
	"context"

	"bakery-shop-backend/internal/model"
)

// Interfaces implemented by the repository package. Every method returns
// model.ErrNotFound or model.ErrDuplicate for the expected store failures.

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindByUser(ctx context.Context, userID string, statuses []model.OrderStatus) ([]*model.Order, error)
	FindAll(ctx context.Context, statuses []model.OrderStatus) ([]*model.Order, error)
	SetStatus(ctx context.Context, id string, status model.OrderStatus, payment *model.PaymentStatus) (*model.Order, error)
}

type CounterRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	Ensure(ctx context.Context, id, name string, role model.Role) (*model.User, error)
	AddRewardPoints(ctx context.Context, id string, points int64) error
	DeductRewardPoints(ctx context.Context, id string, points int64) (*model.User, error)
}

type CartRepository interface {
	GetOrCreate(ctx context.Context, userID string) (*model.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	SetItemQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

type FavouriteRepository interface {
	GetOrCreate(ctx context.Context, userID string) (*model.Favourite, error)
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
}

// DefaultFlagger keeps at most one entry per user flagged as default.
type DefaultFlagger interface {
	UnsetDefaults(ctx context.Context, userID, exceptID string) error
	MarkDefault(ctx context.Context, id string) error
}

type AddressRepository interface {
	DefaultFlagger
	List(ctx context.Context, userID string) ([]*model.Address, error)
	FindByID(ctx context.Context, id string) (*model.Address, error)
	Create(ctx context.Context, a *model.Address) error
	Update(ctx context.Context, a *model.Address) error
	Delete(ctx context.Context, id string) error
}

type PaymentMethodRepository interface {
	DefaultFlagger
	List(ctx context.Context, userID string) ([]*model.PaymentMethod, error)
	FindByID(ctx context.Context, id string) (*model.PaymentMethod, error)
	Create(ctx context.Context, p *model.PaymentMethod) error
	Delete(ctx context.Context, id string) error
}

type CatalogRepository interface {
	ListProducts(ctx context.Context, f model.ProductFilter) ([]*model.Product, error)
	FindProduct(ctx context.Context, id string) (*model.Product, error)
	FindProducts(ctx context.Context, ids []string) ([]*model.Product, error)
	ListCategories(ctx context.Context) ([]*model.Category, error)
	FindCategory(ctx context.Context, id string) (*model.Category, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, e *model.OutboxEvent) error
}

// Transactor runs fn atomically. Repository calls made with the ctx passed
// to fn take part in the transaction. fn may be invoked more than once.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
