package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"bakery-shop-backend/internal/model"
	"bakery-shop-backend/internal/service"
)

// Response is the envelope of every API response.
type Response struct {
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func OK(data any) Response {
	return Response{Success: true, Data: data}
}

// List wraps a collection and sets count to its length.
func List[T any](items []T) Response {
	n := len(items)
	if items == nil {
		items = []T{}
	}
	return Response{Success: true, Count: &n, Data: items}
}

func Fail(message string) Response {
	return Response{Success: false, Message: message}
}

// Money renders as a JSON number with exactly two decimals.
type Money decimal.Decimal

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

// Requests.

type OrderItemRequest struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	ProductImage string          `json:"productImage"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}

type DeliveryAddressDTO struct {
	Type    string `json:"type"`
	Address string `json:"address"`
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items"`
	DeliveryAddress DeliveryAddressDTO `json:"deliveryAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	Notes           string             `json:"notes"`
}

func (r CreateOrderRequest) Input() service.CreateOrderInput {
	items := make([]model.OrderItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = model.OrderItem{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductImage: it.ProductImage,
			Quantity:     it.Quantity,
			Price:        it.Price,
		}
	}
	return service.CreateOrderInput{
		Items:           items,
		DeliveryAddress: model.DeliveryAddress(r.DeliveryAddress),
		PaymentMethod:   r.PaymentMethod,
		Notes:           r.Notes,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type RedeemRequest struct {
	OfferID string `json:"offerId" binding:"required"`
}

type CartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

// Qty defaults a missing quantity to one.
func (r CartItemRequest) Qty() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

type CartQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type AddressRequest struct {
	Type      string `json:"type"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	IsDefault *bool  `json:"isDefault"`
}

func (r AddressRequest) Input() service.AddressInput {
	return service.AddressInput(r)
}

type PaymentMethodRequest struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Details   string `json:"details"`
	IsDefault bool   `json:"isDefault"`
}

func (r PaymentMethodRequest) Input() service.PaymentMethodInput {
	return service.PaymentMethodInput(r)
}

// Responses.

type OrderItemResponse struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	ProductImage string `json:"productImage,omitempty"`
	Quantity     int    `json:"quantity"`
	Price        Money  `json:"price"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"userId"`
	OrderNumber     string              `json:"orderNumber"`
	Items           []OrderItemResponse `json:"items"`
	Subtotal        Money               `json:"subtotal"`
	DeliveryFee     Money               `json:"deliveryFee"`
	Tax             Money               `json:"tax"`
	Total           Money               `json:"total"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"paymentStatus"`
	DeliveryAddress DeliveryAddressDTO  `json:"deliveryAddress"`
	PaymentMethod   string              `json:"paymentMethod"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func ToOrderResponse(o *model.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductImage: it.ProductImage,
			Quantity:     it.Quantity,
			Price:        Money(it.Price),
		}
	}
	return OrderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderNumber:     o.OrderNumber,
		Items:           items,
		Subtotal:        Money(o.Subtotal),
		DeliveryFee:     Money(o.DeliveryFee),
		Tax:             Money(o.Tax),
		Total:           Money(o.Total),
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		DeliveryAddress: DeliveryAddressDTO(o.DeliveryAddress),
		PaymentMethod:   o.PaymentMethod,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func ToOrderResponses(orders []*model.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = ToOrderResponse(o)
	}
	return out
}

type ProductResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        Money     `json:"price"`
	Image        string    `json:"image"`
	CategoryID   string    `json:"categoryId,omitempty"`
	CategoryName string    `json:"categoryName"`
	Rating       float64   `json:"rating"`
	Reviews      int       `json:"reviews"`
	Stock        int       `json:"stock"`
	Ingredients  []string  `json:"ingredients"`
	Features     []string  `json:"features"`
	IsActive     bool      `json:"isActive"`
	IsFeatured   bool      `json:"isFeatured"`
	CreatedAt    time.Time `json:"createdAt"`
}

func ToProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        Money(p.Price),
		Image:        p.Image,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		Rating:       p.Rating,
		Reviews:      p.Reviews,
		Stock:        p.Stock,
		Ingredients:  nonNil(p.Ingredients),
		Features:     nonNil(p.Features),
		IsActive:     p.IsActive,
		IsFeatured:   p.IsFeatured,
		CreatedAt:    p.CreatedAt,
	}
}

func ToProductResponses(products []*model.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = ToProductResponse(p)
	}
	return out
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Image       string `json:"image"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

func ToCategoryResponses(cats []*model.Category) []CategoryResponse {
	out := make([]CategoryResponse, len(cats))
	for i, c := range cats {
		out[i] = CategoryResponse(*c)
	}
	return out
}

type CartLineResponse struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Product   *ProductResponse `json:"product"`
}

type CartResponse struct {
	ID     string             `json:"id"`
	UserID string             `json:"userId"`
	Items  []CartLineResponse `json:"items"`
}

func ToCartResponse(v *service.CartView) CartResponse {
	out := CartResponse{ID: v.ID, UserID: v.UserID, Items: make([]CartLineResponse, len(v.Items))}
	for i, l := range v.Items {
		line := CartLineResponse{ProductID: l.ProductID, Quantity: l.Quantity}
		if l.Product != nil {
			p := ToProductResponse(l.Product)
			line.Product = &p
		}
		out.Items[i] = line
	}
	return out
}

type AddressResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zipCode"`
	Country   string    `json:"country"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToAddressResponse(a *model.Address) AddressResponse {
	return AddressResponse{
		ID: a.ID, Type: a.Type, Address: a.Address, City: a.City, State: a.State,
		ZipCode: a.ZipCode, Country: a.Country, IsDefault: a.IsDefault, CreatedAt: a.CreatedAt,
	}
}

func ToAddressResponses(list []*model.Address) []AddressResponse {
	out := make([]AddressResponse, len(list))
	for i, a := range list {
		out[i] = ToAddressResponse(a)
	}
	return out
}

type PaymentMethodResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Details   string    `json:"details"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToPaymentMethodResponse(p *model.PaymentMethod) PaymentMethodResponse {
	return PaymentMethodResponse{
		ID: p.ID, Type: p.Type, Name: p.Name, Details: p.Details,
		IsDefault: p.IsDefault, CreatedAt: p.CreatedAt,
	}
}

func ToPaymentMethodResponses(list []*model.PaymentMethod) []PaymentMethodResponse {
	out := make([]PaymentMethodResponse, len(list))
	for i, p := range list {
		out[i] = ToPaymentMethodResponse(p)
	}
	return out
}

type RewardsResponse struct {
	Points int64         `json:"points"`
	Tier   string        `json:"tier"`
	Offers []model.Offer `json:"offers"`
}

type RedemptionResponse struct {
	Points        int64       `json:"points"`
	RedeemedOffer model.Offer `json:"redeemedOffer"`
}

type FavouritesResponse struct {
	UserID   string            `json:"userId"`
	Products []ProductResponse `json:"products"`
}

type StatsResponse struct {
	TotalOrders     int    `json:"totalOrders"`
	CompletedOrders int    `json:"completedOrders"`
	TotalSpent      Money  `json:"totalSpent"`
	RewardPoints    int64  `json:"rewardPoints"`
	Tier            string `json:"tier"`
}

// KitchenStatusMessage is the body of a kitchen_status message.
type KitchenStatusMessage struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
