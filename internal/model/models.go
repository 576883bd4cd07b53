package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Store-level errors returned by every repository implementation.
var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every status an order can take, in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

// Order is immutable after creation except for Status and PaymentStatus.
type Order struct {
	ID              string
	UserID          string
	OrderNumber     string
	Items           []OrderItem
	Subtotal        decimal.Decimal
	DeliveryFee     decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	DeliveryAddress DeliveryAddress
	PaymentMethod   string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is a snapshot of the product taken at checkout time.
type OrderItem struct {
	ProductID    string          `json:"productId" validate:"required"`
	ProductName  string          `json:"productName" validate:"required"`
	ProductImage string          `json:"productImage"`
	Quantity     int             `json:"quantity" validate:"min=1,max=1000"`
	Price        decimal.Decimal `json:"price" validate:"money"`
}

// MaxLineQuantity caps the quantity of a single order or cart line.
const MaxLineQuantity = 1000

type DeliveryAddress struct {
	Type    string `json:"type" validate:"required"`
	Address string `json:"address" validate:"required"`
}

type Cart struct {
	ID        string
	UserID    string
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	ProductID string
	Quantity  int
}

type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Role         Role
	RewardPoints int64
	Tier         Tier
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Address struct {
	ID        string
	UserID    string
	Type      string `validate:"oneof=Home Work Other"`
	Address   string `validate:"required"`
	City      string `validate:"required"`
	State     string `validate:"required"`
	ZipCode   string `validate:"required"`
	Country   string `validate:"required"`
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PaymentMethod struct {
	ID        string
	UserID    string
	Type      string `validate:"oneof=card upi wallet"`
	Name      string `validate:"required"`
	Details   string `validate:"required"`
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Favourite struct {
	UserID     string
	ProductIDs []string
	UpdatedAt  time.Time
}

type Product struct {
	ID           string
	Name         string
	Description  string
	Price        decimal.Decimal
	Image        string
	CategoryID   string
	CategoryName string
	Rating       float64
	Reviews      int
	Stock        int
	Ingredients  []string
	Features     []string
	IsActive     bool
	IsFeatured   bool
	CreatedAt    time.Time
}

type Category struct {
	ID          string
	Name        string
	Icon        string
	Image       string
	Description string
	IsActive    bool
}

// ProductFilter narrows catalog listings. Sort is one of price-asc,
// price-desc, rating or empty for newest first.
type ProductFilter struct {
	CategoryName string
	Search       string
	FeaturedOnly bool
	Sort         string
}

// Offer is an entry of the reward catalog.
type Offer struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Points      int64  `yaml:"points" json:"points"`
	Icon        string `yaml:"icon" json:"icon"`
}

// OutboxEvent is an order event waiting to be relayed to the broker.
type OutboxEvent struct {
	ID          string
	AggregateID string
	Type        string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}

const (
	EventOrderPlaced        = "order.placed"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusChanged = "order.status_changed"
)
