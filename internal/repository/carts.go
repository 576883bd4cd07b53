package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bakery-shop-backend/internal/model"
)

type MongoCartRepository struct {
	col *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{col: db.Collection(colCarts)}
}

// GetOrCreate returns the user's cart, inserting an empty one on first access.
func (m *MongoCartRepository) GetOrCreate(ctx context.Context, userID string) (*model.Cart, error) {
	now := time.Now().UTC()
	var doc cartDoc
	err := m.col.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$setOnInsert": bson.M{
			"items":      bson.A{},
			"created_at": now,
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

// AddItem merges quantity into an existing line or appends a new one. Both
// paths are single-document atomic updates; the only race left is two
// first-time upserts for the same user, which the unique user_id index turns
// into a duplicate key error that is retried once as an increment.
func (m *MongoCartRepository) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now().UTC()

		var res *mongo.UpdateResult
		res, err = m.col.UpdateOne(ctx,
			bson.M{"user_id": userID, "items.product_id": productID},
			bson.M{
				"$inc": bson.M{"items.$.quantity": quantity},
				"$set": bson.M{"updated_at": now},
			},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount > 0 {
			return nil
		}

		_, err = m.col.UpdateOne(ctx,
			bson.M{"user_id": userID, "items.product_id": bson.M{"$ne": productID}},
			bson.M{
				"$push":        bson.M{"items": cartItemDoc{ProductID: productID, Quantity: quantity, AddedAt: now}},
				"$set":         bson.M{"updated_at": now},
				"$setOnInsert": bson.M{"created_at": now},
			},
			options.Update().SetUpsert(true),
		)
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
	}
	return mapWriteErr(err)
}

// SetItemQuantity overwrites the quantity of an existing line.
func (m *MongoCartRepository) SetItemQuantity(ctx context.Context, userID, productID string, quantity int) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"user_id": userID, "items.product_id": productID},
		bson.M{"$set": bson.M{
			"items.$.quantity": quantity,
			"updated_at":       time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (m *MongoCartRepository) RemoveItem(ctx context.Context, userID, productID string) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"product_id": productID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Clear empties the cart. Carts are never deleted.
func (m *MongoCartRepository) Clear(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	_, err := m.col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$set":         bson.M{"items": bson.A{}, "updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

type MongoFavouriteRepository struct {
	col *mongo.Collection
}

func NewMongoFavouriteRepository(db *mongo.Database) *MongoFavouriteRepository {
	return &MongoFavouriteRepository{col: db.Collection(colFavourites)}
}

func (m *MongoFavouriteRepository) GetOrCreate(ctx context.Context, userID string) (*model.Favourite, error) {
	now := time.Now().UTC()
	var doc favouriteDoc
	err := m.col.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$setOnInsert": bson.M{"products": bson.A{}, "updated_at": now}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return &model.Favourite{UserID: doc.UserID, ProductIDs: doc.ProductIDs, UpdatedAt: doc.UpdatedAt}, nil
}

func (m *MongoFavouriteRepository) Add(ctx context.Context, userID, productID string) error {
	_, err := m.col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$addToSet": bson.M{"products": productID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	return mapWriteErr(err)
}

func (m *MongoFavouriteRepository) Remove(ctx context.Context, userID, productID string) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$pull": bson.M{"products": productID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}
