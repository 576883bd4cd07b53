package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bakery-shop-backend/internal/model"
)

// defaultFlag implements the per-user exclusive is_default flag shared by
// addresses and payment methods. Callers run UnsetDefaults and MarkDefault in
// one transaction; the partial unique index on {user_id} where is_default is
// true rejects any interleaving that would leave two defaults.
type defaultFlag struct {
	col *mongo.Collection
}

func (d defaultFlag) UnsetDefaults(ctx context.Context, userID, exceptID string) error {
	filter := bson.M{"user_id": userID, "is_default": true}
	if exceptID != "" {
		oid, err := objectID(exceptID)
		if err != nil {
			return err
		}
		filter["_id"] = bson.M{"$ne": oid}
	}
	_, err := d.col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"is_default": false,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

func (d defaultFlag) MarkDefault(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := d.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"is_default": true,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (d defaultFlag) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := d.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

// listOptions sorts the default entry first, then newest first.
func listOptions() *options.FindOptions {
	return options.Find().SetSort(bson.D{
		{Key: "is_default", Value: -1},
		{Key: "created_at", Value: -1},
	})
}

type MongoAddressRepository struct {
	defaultFlag
}

func NewMongoAddressRepository(db *mongo.Database) *MongoAddressRepository {
	return &MongoAddressRepository{defaultFlag{col: db.Collection(colAddresses)}}
}

func (m *MongoAddressRepository) List(ctx context.Context, userID string) ([]*model.Address, error) {
	cur, err := m.col.Find(ctx, bson.M{"user_id": userID}, listOptions())
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*model.Address{}
	for cur.Next(ctx) {
		var v addressDoc
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v.model())
	}
	return out, cur.Err()
}

func (m *MongoAddressRepository) FindByID(ctx context.Context, id string) (*model.Address, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc addressDoc
	err = m.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (m *MongoAddressRepository) Create(ctx context.Context, a *model.Address) error {
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	res, err := m.col.InsertOne(ctx, addressDoc{
		UserID:    a.UserID,
		Type:      a.Type,
		Address:   a.Address,
		City:      a.City,
		State:     a.State,
		ZipCode:   a.ZipCode,
		Country:   a.Country,
		IsDefault: a.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return mapWriteErr(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid.Hex()
	}
	return nil
}

// Update overwrites the editable fields. Ownership is never changed.
func (m *MongoAddressRepository) Update(ctx context.Context, a *model.Address) error {
	oid, err := objectID(a.ID)
	if err != nil {
		return err
	}
	a.UpdatedAt = time.Now().UTC()
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"type":       a.Type,
		"address":    a.Address,
		"city":       a.City,
		"state":      a.State,
		"zip_code":   a.ZipCode,
		"country":    a.Country,
		"is_default": a.IsDefault,
		"updated_at": a.UpdatedAt,
	}})
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

type MongoPaymentMethodRepository struct {
	defaultFlag
}

func NewMongoPaymentMethodRepository(db *mongo.Database) *MongoPaymentMethodRepository {
	return &MongoPaymentMethodRepository{defaultFlag{col: db.Collection(colPaymentMethods)}}
}

func (m *MongoPaymentMethodRepository) List(ctx context.Context, userID string) ([]*model.PaymentMethod, error) {
	cur, err := m.col.Find(ctx, bson.M{"user_id": userID}, listOptions())
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*model.PaymentMethod{}
	for cur.Next(ctx) {
		var v paymentMethodDoc
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v.model())
	}
	return out, cur.Err()
}

func (m *MongoPaymentMethodRepository) FindByID(ctx context.Context, id string) (*model.PaymentMethod, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc paymentMethodDoc
	err = m.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (m *MongoPaymentMethodRepository) Create(ctx context.Context, p *model.PaymentMethod) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	res, err := m.col.InsertOne(ctx, paymentMethodDoc{
		UserID:    p.UserID,
		Type:      p.Type,
		Name:      p.Name,
		Details:   p.Details,
		IsDefault: p.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return mapWriteErr(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid.Hex()
	}
	return nil
}
