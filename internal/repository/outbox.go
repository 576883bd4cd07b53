package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bakery-shop-backend/internal/model"
)

// MongoOutboxRepository stores order events next to the orders they describe
// so both are committed by the same transaction.
type MongoOutboxRepository struct {
	col *mongo.Collection
}

func NewMongoOutboxRepository(db *mongo.Database) *MongoOutboxRepository {
	return &MongoOutboxRepository{col: db.Collection(colOutbox)}
}

func (m *MongoOutboxRepository) Enqueue(ctx context.Context, e *model.OutboxEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := m.col.InsertOne(ctx, outboxDoc{
		AggregateID: e.AggregateID,
		Type:        e.Type,
		Payload:     e.Payload,
		CreatedAt:   e.CreatedAt,
	})
	return err
}

// Pending returns up to limit unpublished events, oldest first.
func (m *MongoOutboxRepository) Pending(ctx context.Context, limit int64) ([]*model.OutboxEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)
	cur, err := m.col.Find(ctx, bson.M{"published_at": nil}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*model.OutboxEvent{}
	for cur.Next(ctx) {
		var v outboxDoc
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v.model())
	}
	return out, cur.Err()
}

func (m *MongoOutboxRepository) MarkPublished(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	_, err = m.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"published_at": time.Now().UTC()}},
	)
	return err
}
