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

type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection(colOrders)}
}

func (m *MongoOrderRepository) Create(ctx context.Context, o *model.Order) error {
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	res, err := m.col.InsertOne(ctx, newOrderDoc(o))
	if err != nil {
		return mapWriteErr(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = oid.Hex()
	}
	return nil
}

func (m *MongoOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc orderDoc
	err = m.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

// FindByUser returns the user's orders newest first. An empty statuses
// slice matches every status.
func (m *MongoOrderRepository) FindByUser(ctx context.Context, userID string, statuses []model.OrderStatus) ([]*model.Order, error) {
	filter := statusFilter(statuses)
	filter["user_id"] = userID
	return m.find(ctx, filter)
}

func (m *MongoOrderRepository) FindAll(ctx context.Context, statuses []model.OrderStatus) ([]*model.Order, error) {
	return m.find(ctx, statusFilter(statuses))
}

// SetStatus updates status, and payment status when given, in a single
// document write and returns the updated order.
func (m *MongoOrderRepository) SetStatus(ctx context.Context, id string, status model.OrderStatus, payment *model.PaymentStatus) (*model.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}
	if payment != nil {
		set["payment_status"] = string(*payment)
	}

	var doc orderDoc
	err = m.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
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

func (m *MongoOrderRepository) find(ctx context.Context, filter bson.M) ([]*model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*model.Order{}
	for cur.Next(ctx) {
		var v orderDoc
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v.model())
	}
	return out, cur.Err()
}

func statusFilter(statuses []model.OrderStatus) bson.M {
	if len(statuses) == 0 {
		return bson.M{}
	}
	in := make([]string, len(statuses))
	for i, s := range statuses {
		in[i] = string(s)
	}
	return bson.M{"status": bson.M{"$in": in}}
}

// MongoCounterRepository hands out monotonic sequence numbers.
type MongoCounterRepository struct {
	col *mongo.Collection
}

func NewMongoCounterRepository(db *mongo.Database) *MongoCounterRepository {
	return &MongoCounterRepository{col: db.Collection(colCounters)}
}

// Next atomically increments the named counter and returns its new value.
// The first call for a name returns 1.
func (m *MongoCounterRepository) Next(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := m.col.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}
