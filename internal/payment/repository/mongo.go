package repository

import (
	"context"
	"fmt"

	"github.com/thedividend/dividend/internal/payment"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores purchases in a collection with a unique index on
// reference; the index rejects the second of two racing inserts.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reference", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_reference")},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("ensure purchase indexes: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) Insert(ctx context.Context, p *payment.Purchase) error {
	if _, err := m.col.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return payment.ErrDuplicateReference
		}
		return err
	}
	return nil
}

func (m *MongoRepo) GetByReference(ctx context.Context, reference string) (*payment.Purchase, error) {
	var p payment.Purchase
	if err := m.col.FindOne(ctx, bson.M{"reference": reference}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, payment.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (m *MongoRepo) ListByUser(ctx context.Context, userID string) ([]*payment.Purchase, error) {
	cur, err := m.col.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*payment.Purchase{}
	for cur.Next(ctx) {
		var p payment.Purchase
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}
