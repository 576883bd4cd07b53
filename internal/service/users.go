package service

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"bakery-shop-backend/internal/model"
)

type Favourites struct {
	UserID   string
	Products []*model.Product
}

type UserStats struct {
	TotalOrders     int
	CompletedOrders int
	TotalSpent      decimal.Decimal
	RewardPoints    int64
	Tier            model.Tier
}

// UserService covers the per-user pages: favourites and order statistics.
type UserService struct {
	users      UserRepository
	orders     OrderRepository
	favourites FavouriteRepository
	catalog    *CatalogService
}

func NewUserService(users UserRepository, orders OrderRepository, favourites FavouriteRepository, catalog *CatalogService) *UserService {
	return &UserService{users: users, orders: orders, favourites: favourites, catalog: catalog}
}

func (s *UserService) GetFavourites(ctx context.Context, userID string) (*Favourites, error) {
	fav, err := s.favourites.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get favourites")
	}
	products, err := s.catalog.ProductsByID(ctx, fav.ProductIDs)
	if err != nil {
		return nil, err
	}
	return &Favourites{UserID: userID, Products: products}, nil
}

func (s *UserService) AddFavourite(ctx context.Context, userID, productID string) (*Favourites, error) {
	if _, err := s.catalog.Product(ctx, productID); err != nil {
		return nil, err
	}
	if err := s.favourites.Add(ctx, userID, productID); err != nil {
		return nil, storeErr(err, "Favourites not found", "add favourite")
	}
	return s.GetFavourites(ctx, userID)
}

func (s *UserService) RemoveFavourite(ctx context.Context, userID, productID string) (*Favourites, error) {
	if err := s.favourites.Remove(ctx, userID, productID); err != nil {
		return nil, storeErr(err, "Favourites not found", "remove favourite")
	}
	return s.GetFavourites(ctx, userID)
}

func (s *UserService) GetStats(ctx context.Context, userID string) (*UserStats, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "User not found", "find user")
	}
	orders, err := s.orders.FindByUser(ctx, userID, nil)
	if err != nil {
		return nil, errors.Wrap(err, "find orders")
	}

	st := &UserStats{
		TotalOrders:  len(orders),
		TotalSpent:   decimal.Zero,
		RewardPoints: u.RewardPoints,
		Tier:         u.Tier,
	}
	for _, o := range orders {
		if o.Status == model.OrderStatusDelivered {
			st.CompletedOrders++
		}
		st.TotalSpent = st.TotalSpent.Add(o.Total)
	}
	st.TotalSpent = st.TotalSpent.Round(2)
	if st.Tier == "" {
		st.Tier = model.TierBronze
	}
	return st, nil
}
