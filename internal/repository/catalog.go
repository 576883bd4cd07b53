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

type MongoCatalogRepository struct {
	products   *mongo.Collection
	categories *mongo.Collection
}

func NewMongoCatalogRepository(db *mongo.Database) *MongoCatalogRepository {
	return &MongoCatalogRepository{
		products:   db.Collection(colProducts),
		categories: db.Collection(colCategories),
	}
}

func (m *MongoCatalogRepository) ListProducts(ctx context.Context, f model.ProductFilter) ([]*model.Product, error) {
	filter := bson.M{"is_active": true}
	if f.CategoryName != "" {
		filter["category_name"] = f.CategoryName
	}
	if f.Search != "" {
		filter["$text"] = bson.M{"$search": f.Search}
	}
	if f.FeaturedOnly {
		filter["is_featured"] = true
	}

	var sort bson.D
	switch f.Sort {
	case "price-asc":
		sort = bson.D{{Key: "price", Value: 1}}
	case "price-desc":
		sort = bson.D{{Key: "price", Value: -1}}
	case "rating":
		sort = bson.D{{Key: "rating", Value: -1}}
	default:
		sort = bson.D{{Key: "created_at", Value: -1}}
	}

	cur, err := m.products.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*model.Product{}
	for cur.Next(ctx) {
		var v productDoc
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v.model())
	}
	return out, cur.Err()
}

func (m *MongoCatalogRepository) FindProduct(ctx context.Context, id string) (*model.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc productDoc
	err = m.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

// FindProducts fetches many products in one query. Unknown or malformed
// ids are skipped.
func (m *MongoCatalogRepository) FindProducts(ctx context.Context, ids []string) ([]*model.Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := objectID(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []*model.Product{}, nil
	}

	cur, err := m.products.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*model.Product, 0, len(oids))
	for cur.Next(ctx) {
		var v productDoc
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v.model())
	}
	return out, cur.Err()
}

func (m *MongoCatalogRepository) ListCategories(ctx context.Context) ([]*model.Category, error) {
	cur, err := m.categories.Find(ctx, bson.M{"is_active": true}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*model.Category{}
	for cur.Next(ctx) {
		var v categoryDoc
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v.model())
	}
	return out, cur.Err()
}

func (m *MongoCatalogRepository) FindCategory(ctx context.Context, id string) (*model.Category, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc categoryDoc
	err = m.categories.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

// UpsertCategory inserts or refreshes a category by name. Used by the seed tool.
func (m *MongoCatalogRepository) UpsertCategory(ctx context.Context, c *model.Category) error {
	var doc categoryDoc
	err := m.categories.FindOneAndUpdate(ctx,
		bson.M{"name": c.Name},
		bson.M{"$set": bson.M{
			"icon":        c.Icon,
			"image":       c.Image,
			"description": c.Description,
			"is_active":   c.IsActive,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return mapWriteErr(err)
	}
	c.ID = doc.ID.Hex()
	return nil
}

// UpsertProduct inserts or refreshes a product by name. Used by the seed tool.
func (m *MongoCatalogRepository) UpsertProduct(ctx context.Context, p *model.Product) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	doc := newProductDoc(p)

	var out productDoc
	err := m.products.FindOneAndUpdate(ctx,
		bson.M{"name": p.Name},
		bson.M{"$set": doc},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return mapWriteErr(err)
	}
	p.ID = out.ID.Hex()
	return nil
}
