package library

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository stores bookmarks and history. AddBookmark is idempotent and
// returns the existing bookmark when the pair is already saved.
type Repository interface {
	AddBookmark(ctx context.Context, b *Bookmark) (*Bookmark, error)
	RemoveBookmark(ctx context.Context, userID, articleID string) error
	ListBookmarks(ctx context.Context, userID string) ([]*Bookmark, error)
	RecordRead(ctx context.Context, userID, articleID string, at time.Time) error
	ListHistory(ctx context.Context, userID string, limit int) ([]*HistoryEntry, error)
}

type pair struct{ user, article string }

type MemoryRepository struct {
	mu        sync.RWMutex
	bookmarks map[pair]*Bookmark
	history   map[pair]*HistoryEntry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bookmarks: make(map[pair]*Bookmark),
		history:   make(map[pair]*HistoryEntry),
	}
}

func (m *MemoryRepository) AddBookmark(ctx context.Context, b *Bookmark) (*Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pair{b.UserID, b.ArticleID}
	if existing, ok := m.bookmarks[k]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *b
	m.bookmarks[k] = &cp
	out := cp
	return &out, nil
}

func (m *MemoryRepository) RemoveBookmark(ctx context.Context, userID, articleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pair{userID, articleID}
	if _, ok := m.bookmarks[k]; !ok {
		return ErrNotFound
	}
	delete(m.bookmarks, k)
	return nil
}

func (m *MemoryRepository) ListBookmarks(ctx context.Context, userID string) ([]*Bookmark, error) {
	m.mu.RLock()
	out := make([]*Bookmark, 0)
	for k, b := range m.bookmarks {
		if k.user == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) RecordRead(ctx context.Context, userID, articleID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pair{userID, articleID}
	if h, ok := m.history[k]; ok {
		h.LastReadAt = at
		return nil
	}
	m.history[k] = &HistoryEntry{UserID: userID, ArticleID: articleID, LastReadAt: at}
	return nil
}

func (m *MemoryRepository) ListHistory(ctx context.Context, userID string, limit int) ([]*HistoryEntry, error) {
	m.mu.RLock()
	out := make([]*HistoryEntry, 0)
	for k, h := range m.history {
		if k.user == userID {
			cp := *h
			out = append(out, &cp)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].LastReadAt.After(out[j].LastReadAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MongoRepository keeps bookmarks and history in two collections, each with
// a unique (user_id, article_id) index.
type MongoRepository struct {
	bookmarks *mongo.Collection
	history   *mongo.Collection
}

func NewMongoRepository(ctx context.Context, bookmarks, history *mongo.Collection) (*MongoRepository, error) {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "article_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := bookmarks.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("ensure bookmark index: %w", err)
	}
	if _, err := history.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("ensure history index: %w", err)
	}
	return &MongoRepository{bookmarks: bookmarks, history: history}, nil
}

func (r *MongoRepository) AddBookmark(ctx context.Context, b *Bookmark) (*Bookmark, error) {
	filter := bson.M{"user_id": b.UserID, "article_id": b.ArticleID}
	update := bson.M{"$setOnInsert": bson.M{"_id": b.ID, "created_at": b.CreatedAt}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out Bookmark
	if err := r.bookmarks.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		return nil, fmt.Errorf("add bookmark: %w", err)
	}
	return &out, nil
}

func (r *MongoRepository) RemoveBookmark(ctx context.Context, userID, articleID string) error {
	res, err := r.bookmarks.DeleteOne(ctx, bson.M{"user_id": userID, "article_id": articleID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) ListBookmarks(ctx context.Context, userID string) ([]*Bookmark, error) {
	cur, err := r.bookmarks.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Bookmark{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) RecordRead(ctx context.Context, userID, articleID string, at time.Time) error {
	filter := bson.M{"user_id": userID, "article_id": articleID}
	update := bson.M{"$set": bson.M{"last_read_at": at}}
	if _, err := r.history.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("record read: %w", err)
	}
	return nil
}

func (r *MongoRepository) ListHistory(ctx context.Context, userID string, limit int) ([]*HistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_read_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.history.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*HistoryEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
