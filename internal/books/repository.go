package books

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists books. List returns featured books first, then newest.
type Repository interface {
	Create(ctx context.Context, b *Book) error
	Get(ctx context.Context, id string) (*Book, error)
	List(ctx context.Context) ([]*Book, error)
	Delete(ctx context.Context, id string) error
}

type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*Book
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*Book)}
}

func (m *MemoryRepo) Create(ctx context.Context, b *Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.store[b.ID] = &cp
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.store[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) List(ctx context.Context) ([]*Book, error) {
	m.mu.RLock()
	out := make([]*Book, 0, len(m.store))
	for _, b := range m.store {
		cp := *b
		out = append(out, &cp)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsFeatured != out[j].IsFeatured {
			return out[i].IsFeatured
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (r *MongoRepo) Create(ctx context.Context, b *Book) error {
	_, err := r.col.InsertOne(ctx, b)
	return err
}

func (r *MongoRepo) Get(ctx context.Context, id string) (*Book, error) {
	var b Book
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *MongoRepo) List(ctx context.Context) ([]*Book, error) {
	opts := options.Find().SetSort(bson.D{{Key: "is_featured", Value: -1}, {Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Book{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
