package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"bakery-shop-backend/internal/model"
)

const (
	colOrders         = "orders"
	colCounters       = "counters"
	colUsers          = "users"
	colCarts          = "carts"
	colAddresses      = "addresses"
	colPaymentMethods = "payment_methods"
	colFavourites     = "favourites"
	colProducts       = "products"
	colCategories     = "categories"
	colOutbox         = "outbox"
)

// objectID converts a hex id from a URL into an ObjectID. Malformed ids can
// never match a document, so they surface as not found.
func objectID(hex string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, model.ErrNotFound
	}
	return oid, nil
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func mapWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrDuplicate
	}
	return err
}

type orderDoc struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	UserID          string               `bson:"user_id"`
	OrderNumber     string               `bson:"order_number"`
	Items           []orderItemDoc       `bson:"items"`
	Subtotal        primitive.Decimal128 `bson:"subtotal"`
	DeliveryFee     primitive.Decimal128 `bson:"delivery_fee"`
	Tax             primitive.Decimal128 `bson:"tax"`
	Total           primitive.Decimal128 `bson:"total"`
	Status          string               `bson:"status"`
	PaymentStatus   string               `bson:"payment_status"`
	DeliveryAddress deliveryAddressDoc   `bson:"delivery_address"`
	PaymentMethod   string               `bson:"payment_method"`
	Notes           string               `bson:"notes,omitempty"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

type orderItemDoc struct {
	ProductID    string               `bson:"product_id"`
	ProductName  string               `bson:"product_name"`
	ProductImage string               `bson:"product_image"`
	Quantity     int                  `bson:"quantity"`
	Price        primitive.Decimal128 `bson:"price"`
}

type deliveryAddressDoc struct {
	Type    string `bson:"type"`
	Address string `bson:"address"`
}

func newOrderDoc(o *model.Order) orderDoc {
	items := make([]orderItemDoc, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemDoc{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductImage: it.ProductImage,
			Quantity:     it.Quantity,
			Price:        toDecimal128(it.Price),
		}
	}
	return orderDoc{
		UserID:        o.UserID,
		OrderNumber:   o.OrderNumber,
		Items:         items,
		Subtotal:      toDecimal128(o.Subtotal),
		DeliveryFee:   toDecimal128(o.DeliveryFee),
		Tax:           toDecimal128(o.Tax),
		Total:         toDecimal128(o.Total),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		DeliveryAddress: deliveryAddressDoc{
			Type:    o.DeliveryAddress.Type,
			Address: o.DeliveryAddress.Address,
		},
		PaymentMethod: o.PaymentMethod,
		Notes:         o.Notes,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func (d orderDoc) model() *model.Order {
	items := make([]model.OrderItem, len(d.Items))
	for i, it := range d.Items {
		items[i] = model.OrderItem{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductImage: it.ProductImage,
			Quantity:     it.Quantity,
			Price:        fromDecimal128(it.Price),
		}
	}
	return &model.Order{
		ID:            d.ID.Hex(),
		UserID:        d.UserID,
		OrderNumber:   d.OrderNumber,
		Items:         items,
		Subtotal:      fromDecimal128(d.Subtotal),
		DeliveryFee:   fromDecimal128(d.DeliveryFee),
		Tax:           fromDecimal128(d.Tax),
		Total:         fromDecimal128(d.Total),
		Status:        model.OrderStatus(d.Status),
		PaymentStatus: model.PaymentStatus(d.PaymentStatus),
		DeliveryAddress: model.DeliveryAddress{
			Type:    d.DeliveryAddress.Type,
			Address: d.DeliveryAddress.Address,
		},
		PaymentMethod: d.PaymentMethod,
		Notes:         d.Notes,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	Phone        string    `bson:"phone,omitempty"`
	Role         string    `bson:"role"`
	RewardPoints int64     `bson:"reward_points"`
	Tier         string    `bson:"tier"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d userDoc) model() *model.User {
	return &model.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		Phone:        d.Phone,
		Role:         model.Role(d.Role),
		RewardPoints: d.RewardPoints,
		Tier:         model.Tier(d.Tier),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type cartDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Items     []cartItemDoc      `bson:"items"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type cartItemDoc struct {
	ProductID string    `bson:"product_id"`
	Quantity  int       `bson:"quantity"`
	AddedAt   time.Time `bson:"added_at"`
}

func (d cartDoc) model() *model.Cart {
	items := make([]model.CartItem, len(d.Items))
	for i, it := range d.Items {
		items[i] = model.CartItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return &model.Cart{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Items:     items,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type addressDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Type      string             `bson:"type"`
	Address   string             `bson:"address"`
	City      string             `bson:"city"`
	State     string             `bson:"state"`
	ZipCode   string             `bson:"zip_code"`
	Country   string             `bson:"country"`
	IsDefault bool               `bson:"is_default"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d addressDoc) model() *model.Address {
	return &model.Address{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Type:      d.Type,
		Address:   d.Address,
		City:      d.City,
		State:     d.State,
		ZipCode:   d.ZipCode,
		Country:   d.Country,
		IsDefault: d.IsDefault,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type paymentMethodDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Type      string             `bson:"type"`
	Name      string             `bson:"name"`
	Details   string             `bson:"details"`
	IsDefault bool               `bson:"is_default"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d paymentMethodDoc) model() *model.PaymentMethod {
	return &model.PaymentMethod{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Type:      d.Type,
		Name:      d.Name,
		Details:   d.Details,
		IsDefault: d.IsDefault,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type favouriteDoc struct {
	UserID     string    `bson:"user_id"`
	ProductIDs []string  `bson:"products"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

type productDoc struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Name         string               `bson:"name"`
	Description  string               `bson:"description"`
	Price        primitive.Decimal128 `bson:"price"`
	Image        string               `bson:"image"`
	CategoryID   string               `bson:"category_id"`
	CategoryName string               `bson:"category_name"`
	Rating       float64              `bson:"rating"`
	Reviews      int                  `bson:"reviews"`
	Stock        int                  `bson:"stock"`
	Ingredients  []string             `bson:"ingredients,omitempty"`
	Features     []string             `bson:"features,omitempty"`
	IsActive     bool                 `bson:"is_active"`
	IsFeatured   bool                 `bson:"is_featured"`
	CreatedAt    time.Time            `bson:"created_at"`
}

func newProductDoc(p *model.Product) productDoc {
	return productDoc{
		Name:         p.Name,
		Description:  p.Description,
		Price:        toDecimal128(p.Price),
		Image:        p.Image,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		Rating:       p.Rating,
		Reviews:      p.Reviews,
		Stock:        p.Stock,
		Ingredients:  p.Ingredients,
		Features:     p.Features,
		IsActive:     p.IsActive,
		IsFeatured:   p.IsFeatured,
		CreatedAt:    p.CreatedAt,
	}
}

func (d productDoc) model() *model.Product {
	return &model.Product{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Description:  d.Description,
		Price:        fromDecimal128(d.Price),
		Image:        d.Image,
		CategoryID:   d.CategoryID,
		CategoryName: d.CategoryName,
		Rating:       d.Rating,
		Reviews:      d.Reviews,
		Stock:        d.Stock,
		Ingredients:  d.Ingredients,
		Features:     d.Features,
		IsActive:     d.IsActive,
		IsFeatured:   d.IsFeatured,
		CreatedAt:    d.CreatedAt,
	}
}

type categoryDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Icon        string             `bson:"icon"`
	Image       string             `bson:"image"`
	Description string             `bson:"description,omitempty"`
	IsActive    bool               `bson:"is_active"`
}

func (d categoryDoc) model() *model.Category {
	return &model.Category{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Icon:        d.Icon,
		Image:       d.Image,
		Description: d.Description,
		IsActive:    d.IsActive,
	}
}

type outboxDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	AggregateID string             `bson:"aggregate_id"`
	Type        string             `bson:"type"`
	Payload     []byte             `bson:"payload"`
	CreatedAt   time.Time          `bson:"created_at"`
	PublishedAt *time.Time         `bson:"published_at"`
}

func (d outboxDoc) model() *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:          d.ID.Hex(),
		AggregateID: d.AggregateID,
		Type:        d.Type,
		Payload:     d.Payload,
		CreatedAt:   d.CreatedAt,
		PublishedAt: d.PublishedAt,
	}
}
