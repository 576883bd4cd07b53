package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bakery-shop-backend/internal/model"
)

type MongoUserRepository struct {
	col *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection(colUsers)}
}

func (m *MongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var doc userDoc
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

// Create inserts a new account; an existing id or phone yields ErrDuplicate.
func (m *MongoUserRepository) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Tier == "" {
		u.Tier = model.TierBronze
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	_, err := m.col.InsertOne(ctx, userDoc{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         string(u.Role),
		RewardPoints: u.RewardPoints,
		Tier:         string(u.Tier),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	})
	return mapWriteErr(err)
}

// Ensure returns the account with the given id, creating it on first sight.
// The role is refreshed on every call since the identity provider owns it.
func (m *MongoUserRepository) Ensure(ctx context.Context, id, name string, role model.Role) (*model.User, error) {
	now := time.Now().UTC()
	var doc userDoc
	err := m.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{"role": string(role), "updated_at": now},
			"$setOnInsert": bson.M{
				"name":          name,
				"email":         "",
				"reward_points": int64(0),
				"tier":          string(model.TierBronze),
				"created_at":    now,
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (m *MongoUserRepository) AddRewardPoints(ctx context.Context, id string, points int64) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"reward_points": points},
			"$set": bson.M{"updated_at": time.Now().UTC()},
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

// DeductRewardPoints subtracts points only while the balance covers them.
// It returns ErrNotFound when no account with a sufficient balance matched.
func (m *MongoUserRepository) DeductRewardPoints(ctx context.Context, id string, points int64) (*model.User, error) {
	var doc userDoc
	err := m.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "reward_points": bson.M{"$gte": points}},
		bson.M{
			"$inc": bson.M{"reward_points": -points},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}
