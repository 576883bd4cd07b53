package service

import (
	"context"

	"github.com/go-faster/errors"

	"bakery-shop-backend/internal/model"
)

type PaymentMethodInput struct {
	Type      string
	Name      string
	Details   string
	IsDefault bool
}

type PaymentService struct {
	tx      Transactor
	methods PaymentMethodRepository
}

func NewPaymentService(tx Transactor, methods PaymentMethodRepository) *PaymentService {
	return &PaymentService{tx: tx, methods: methods}
}

func (s *PaymentService) List(ctx context.Context, userID string) ([]*model.PaymentMethod, error) {
	out, err := s.methods.List(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list payment methods")
	}
	return out, nil
}

func (s *PaymentService) Create(ctx context.Context, userID string, in PaymentMethodInput) (*model.PaymentMethod, error) {
	p := &model.PaymentMethod{
		UserID:    userID,
		Type:      in.Type,
		Name:      in.Name,
		Details:   in.Details,
		IsDefault: in.IsDefault,
	}
	if err := check(p); err != nil {
		return nil, err
	}

	err := withDefault(ctx, s.tx, s.methods, p.IsDefault, userID, "", func(ctx context.Context) error {
		return s.methods.Create(ctx, p)
	})
	if err != nil {
		return nil, storeErr(err, "Payment method not found", "create payment method")
	}
	return p, nil
}

func (s *PaymentService) Delete(ctx context.Context, id Identity, methodID string) error {
	if _, err := s.owned(ctx, id, methodID); err != nil {
		return err
	}
	return storeErr(s.methods.Delete(ctx, methodID), "Payment method not found", "delete payment method")
}

func (s *PaymentService) SetDefault(ctx context.Context, id Identity, methodID string) (*model.PaymentMethod, error) {
	p, err := s.owned(ctx, id, methodID)
	if err != nil {
		return nil, err
	}
	if err := setDefault(ctx, s.tx, s.methods, p.UserID, p.ID); err != nil {
		return nil, storeErr(err, "Payment method not found", "set default payment method")
	}
	p.IsDefault = true
	return p, nil
}

func (s *PaymentService) owned(ctx context.Context, id Identity, methodID string) (*model.PaymentMethod, error) {
	p, err := s.methods.FindByID(ctx, methodID)
	if err != nil {
		return nil, storeErr(err, "Payment method not found", "find payment method")
	}
	if err := Authorize(id, p.UserID); err != nil {
		return nil, err
	}
	return p, nil
}
