package service

import (
	"context"
	"os"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"bakery-shop-backend/internal/model"
)

// OfferCatalog is the read-only table of redeemable offers.
type OfferCatalog struct {
	offers []model.Offer
	byID   map[string]model.Offer
}

func NewOfferCatalog(offers []model.Offer) (*OfferCatalog, error) {
	c := &OfferCatalog{
		offers: make([]model.Offer, len(offers)),
		byID:   make(map[string]model.Offer, len(offers)),
	}
	copy(c.offers, offers)
	for _, o := range offers {
		if o.ID == "" {
			return nil, errors.New("offer without id")
		}
		if o.Points <= 0 {
			return nil, errors.Errorf("offer %s: points must be positive", o.ID)
		}
		if _, dup := c.byID[o.ID]; dup {
			return nil, errors.Errorf("offer %s: duplicate id", o.ID)
		}
		c.byID[o.ID] = o
	}
	return c, nil
}

func DefaultOffers() []model.Offer {
	return []model.Offer{
		{ID: "1", Title: "Free Donut", Description: "Get a free donut on your next order", Points: 100, Icon: "🍩"},
		{ID: "2", Title: "20% Off", Description: "20% discount on all cakes", Points: 200, Icon: "🎂"},
		{ID: "3", Title: "Free Delivery", Description: "Free delivery on your next 3 orders", Points: 150, Icon: "🚚"},
		{ID: "4", Title: "Buy 1 Get 1", Description: "BOGO on all cookies", Points: 250, Icon: "🍪"},
	}
}

// LoadOfferCatalog reads offers from a YAML file with a top level "offers"
// list. An empty path yields the built-in offers.
func LoadOfferCatalog(path string) (*OfferCatalog, error) {
	if path == "" {
		return NewOfferCatalog(DefaultOffers())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read offers file")
	}
	var file struct {
		Offers []model.Offer `yaml:"offers"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "parse offers file")
	}
	return NewOfferCatalog(file.Offers)
}

func (c *OfferCatalog) All() []model.Offer {
	out := make([]model.Offer, len(c.offers))
	copy(out, c.offers)
	return out
}

func (c *OfferCatalog) Find(id string) (model.Offer, bool) {
	o, ok := c.byID[id]
	return o, ok
}

type Rewards struct {
	Points int64
	Tier   model.Tier
	Offers []model.Offer
}

type Redemption struct {
	Points int64
	Offer  model.Offer
}

type RewardService struct {
	users  UserRepository
	offers *OfferCatalog
}

func NewRewardService(users UserRepository, offers *OfferCatalog) *RewardService {
	return &RewardService{users: users, offers: offers}
}

func (s *RewardService) GetRewards(ctx context.Context, userID string) (*Rewards, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "User not found", "find user")
	}
	tier := u.Tier
	if tier == "" {
		tier = model.TierBronze
	}
	return &Rewards{Points: u.RewardPoints, Tier: tier, Offers: s.offers.All()}, nil
}

// RedeemReward deducts the offer's points with a single conditional update,
// so the balance can never go negative under concurrent redemptions.
func (s *RewardService) RedeemReward(ctx context.Context, userID, offerID string) (*Redemption, error) {
	offer, ok := s.offers.Find(offerID)
	if !ok {
		return nil, notFound("Offer not found")
	}

	u, err := s.users.DeductRewardPoints(ctx, userID, offer.Points)
	if errors.Is(err, model.ErrNotFound) {
		if _, err := s.users.FindByID(ctx, userID); err != nil {
			return nil, storeErr(err, "User not found", "find user")
		}
		return nil, errInsufficientPoints
	}
	if err != nil {
		return nil, errors.Wrap(err, "deduct reward points")
	}
	return &Redemption{Points: u.RewardPoints, Offer: offer}, nil
}
