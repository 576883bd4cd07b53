package service

import (
	"context"

	"github.com/go-faster/errors"

	"bakery-shop-backend/internal/model"
)

const defaultCountry = "USA"

// AddressInput carries address fields from a request. On update, empty
// strings and a nil IsDefault leave the stored value untouched.
type AddressInput struct {
	Type      string
	Address   string
	City      string
	State     string
	ZipCode   string
	Country   string
	IsDefault *bool
}

type AddressService struct {
	tx        Transactor
	addresses AddressRepository
}

func NewAddressService(tx Transactor, addresses AddressRepository) *AddressService {
	return &AddressService{tx: tx, addresses: addresses}
}

func (s *AddressService) List(ctx context.Context, userID string) ([]*model.Address, error) {
	out, err := s.addresses.List(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	return out, nil
}

func (s *AddressService) Create(ctx context.Context, userID string, in AddressInput) (*model.Address, error) {
	a := &model.Address{UserID: userID, Country: defaultCountry}
	in.applyTo(a)
	if err := check(a); err != nil {
		return nil, err
	}

	err := withDefault(ctx, s.tx, s.addresses, a.IsDefault, userID, "", func(ctx context.Context) error {
		return s.addresses.Create(ctx, a)
	})
	if err != nil {
		return nil, storeErr(err, "Address not found", "create address")
	}
	return a, nil
}

func (s *AddressService) Update(ctx context.Context, id Identity, addressID string, in AddressInput) (*model.Address, error) {
	a, err := s.owned(ctx, id, addressID)
	if err != nil {
		return nil, err
	}
	in.applyTo(a)
	if err := check(a); err != nil {
		return nil, err
	}

	err = withDefault(ctx, s.tx, s.addresses, a.IsDefault, a.UserID, a.ID, func(ctx context.Context) error {
		return s.addresses.Update(ctx, a)
	})
	if err != nil {
		return nil, storeErr(err, "Address not found", "update address")
	}
	return a, nil
}

func (s *AddressService) Delete(ctx context.Context, id Identity, addressID string) error {
	if _, err := s.owned(ctx, id, addressID); err != nil {
		return err
	}
	return storeErr(s.addresses.Delete(ctx, addressID), "Address not found", "delete address")
}

func (s *AddressService) SetDefault(ctx context.Context, id Identity, addressID string) (*model.Address, error) {
	a, err := s.owned(ctx, id, addressID)
	if err != nil {
		return nil, err
	}
	if err := setDefault(ctx, s.tx, s.addresses, a.UserID, a.ID); err != nil {
		return nil, storeErr(err, "Address not found", "set default address")
	}
	a.IsDefault = true
	return a, nil
}

func (s *AddressService) owned(ctx context.Context, id Identity, addressID string) (*model.Address, error) {
	a, err := s.addresses.FindByID(ctx, addressID)
	if err != nil {
		return nil, storeErr(err, "Address not found", "find address")
	}
	if err := Authorize(id, a.UserID); err != nil {
		return nil, err
	}
	return a, nil
}

func (in AddressInput) applyTo(a *model.Address) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&a.Type, in.Type)
	set(&a.Address, in.Address)
	set(&a.City, in.City)
	set(&a.State, in.State)
	set(&a.ZipCode, in.ZipCode)
	set(&a.Country, in.Country)
	if in.IsDefault != nil {
		a.IsDefault = *in.IsDefault
	}
}

// setDefault clears the user's other defaults and flags id, atomically.
func setDefault(ctx context.Context, tx Transactor, repo DefaultFlagger, userID, id string) error {
	return tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := repo.UnsetDefaults(ctx, userID, id); err != nil {
			return err
		}
		return repo.MarkDefault(ctx, id)
	})
}

// withDefault runs write directly, or after clearing the user's other
// defaults in the same transaction when the written entry is the default.
func withDefault(ctx context.Context, tx Transactor, repo DefaultFlagger, isDefault bool, userID, exceptID string, write func(ctx context.Context) error) error {
	if !isDefault {
		return write(ctx)
	}
	return tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := repo.UnsetDefaults(ctx, userID, exceptID); err != nil {
			return err
		}
		return write(ctx)
	})
}
