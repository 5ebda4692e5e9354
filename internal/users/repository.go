package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines persistence operations for users. Lookups return
// (nil, nil) when no user matches.
type UserRepository interface {
	UpsertBySub(ctx context.Context, u *User) (*User, error)
	GetBySub(ctx context.Context, sub string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

// EnsureIndexes creates the unique subject index and the email lookup index.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sub", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	})
	return err
}

func (r *MongoUserRepository) UpsertBySub(ctx context.Context, u *User) (*User, error) {
	now := time.Now().UTC()
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RoleUser
	}

	filter := bson.M{"sub": u.Sub}
	update := bson.M{
		"$set": bson.M{
			"email":     normalizeEmail(u.Email),
			"name":      u.Name,
			"updatedAt": u.UpdatedAt,
		},
		// role is only seeded; promotion happens out of band
		"$setOnInsert": bson.M{"createdAt": now, "role": u.Role},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated User
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return u, nil
		}
		return nil, err
	}
	return &updated, nil
}

func (r *MongoUserRepository) GetBySub(ctx context.Context, sub string) (*User, error) {
	return r.findOne(ctx, bson.M{"sub": sub})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var u User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// MemoryUserRepository keeps users in a map keyed by subject.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	bySub map[string]*User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{bySub: make(map[string]*User)}
}

func (m *MemoryUserRepository) UpsertBySub(ctx context.Context, u *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := m.bySub[u.Sub]
	if !ok {
		cp := *u
		if cp.ID == "" {
			cp.ID = u.Sub
		}
		if cp.Role == "" {
			cp.Role = RoleUser
		}
		cp.Email = normalizeEmail(cp.Email)
		cp.CreatedAt = now
		cp.UpdatedAt = now
		m.bySub[u.Sub] = &cp
		out := cp
		return &out, nil
	}
	existing.Email = normalizeEmail(u.Email)
	existing.Name = u.Name
	existing.UpdatedAt = now
	out := *existing
	return &out, nil
}

func (m *MemoryUserRepository) GetBySub(ctx context.Context, sub string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.bySub[sub]; ok {
		out := *u
		return &out, nil
	}
	return nil, nil
}

func (m *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = normalizeEmail(email)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.bySub {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
