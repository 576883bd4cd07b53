package cache

import (
	"context"
	"errors"

	"bakery-shop-backend/internal/model"
)

// ProductCache holds single products looked up at checkout and on the
// product detail page.
type ProductCache interface {
	Get(ctx context.Context, id string) (*model.Product, error)
	Set(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Nop is used when no Redis address is configured. Every lookup misses.
type Nop struct{}

func (Nop) Get(context.Context, string) (*model.Product, error) { return nil, ErrCacheMiss }
func (Nop) Set(context.Context, *model.Product) error            { return nil }
func (Nop) Delete(context.Context, string) error                 { return nil }
