package service

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"bakery-shop-backend/internal/model"
)

// CartLine is a cart entry joined with its catalog product. Product is nil
// when the product has since been removed from the catalog.
type CartLine struct {
	ProductID string
	Quantity  int
	Product   *model.Product
}

type CartView struct {
	ID     string
	UserID string
	Items  []CartLine
}

type CartService struct {
	carts   CartRepository
	catalog *CatalogService
}

func NewCartService(carts CartRepository, catalog *CatalogService) *CartService {
	return &CartService{carts: carts, catalog: catalog}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	return s.view(ctx, cart)
}

// AddItem adds quantity of a product, merging with an existing line.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, validationError("quantity must be at least 1")
	}
	if _, err := s.catalog.Product(ctx, productID); err != nil {
		return nil, err
	}
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	if lineQuantity(cart, productID)+quantity > model.MaxLineQuantity {
		return nil, validationError(fmt.Sprintf("quantity must be at most %d", model.MaxLineQuantity))
	}
	if err := s.carts.AddItem(ctx, userID, productID, quantity); err != nil {
		return nil, storeErr(err, "Cart not found", "add cart item")
	}
	return s.GetCart(ctx, userID)
}

// UpdateItem sets the quantity of a line; zero or less removes it.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*CartView, error) {
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	if !hasItem(cart, productID) {
		return nil, notFound("Item not found in cart")
	}
	if quantity > model.MaxLineQuantity {
		return nil, validationError(fmt.Sprintf("quantity must be at most %d", model.MaxLineQuantity))
	}

	if quantity <= 0 {
		err = s.carts.RemoveItem(ctx, userID, productID)
	} else {
		err = s.carts.SetItemQuantity(ctx, userID, productID, quantity)
	}
	if err != nil {
		return nil, storeErr(err, "Item not found in cart", "update cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*CartView, error) {
	if err := s.carts.RemoveItem(ctx, userID, productID); err != nil {
		return nil, storeErr(err, "Cart not found", "remove cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID string) (*CartView, error) {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) view(ctx context.Context, cart *model.Cart) (*CartView, error) {
	ids := make([]string, len(cart.Items))
	for i, it := range cart.Items {
		ids[i] = it.ProductID
	}
	products, err := s.catalog.ProductsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	v := &CartView{ID: cart.ID, UserID: cart.UserID, Items: make([]CartLine, len(cart.Items))}
	for i, it := range cart.Items {
		v.Items[i] = CartLine{ProductID: it.ProductID, Quantity: it.Quantity, Product: byID[it.ProductID]}
	}
	return v, nil
}

func lineQuantity(cart *model.Cart, productID string) int {
	for _, it := range cart.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

func hasItem(cart *model.Cart, productID string) bool {
	for _, it := range cart.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}
