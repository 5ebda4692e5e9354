package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/thedividend/dividend/internal/article"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repository on a MongoDB collection with a unique
// index on slug.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("ensure article indexes: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) Create(ctx context.Context, a *article.Article) error {
	if _, err := m.col.InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return article.ErrSlugTaken
		}
		return err
	}
	return nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*article.Article, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *MongoRepo) GetBySlug(ctx context.Context, slug string) (*article.Article, error) {
	return m.findOne(ctx, bson.M{"slug": slug})
}

func (m *MongoRepo) findOne(ctx context.Context, filter bson.M) (*article.Article, error) {
	var a article.Article
	if err := m.col.FindOne(ctx, filter).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, article.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (m *MongoRepo) List(ctx context.Context, q article.ListQuery) ([]*article.Article, int64, error) {
	q.Normalize()
	filter := bson.M{}
	if !q.IncludeDrafts {
		filter["status"] = article.StatusPublished
	}
	if q.CategoryID != "" {
		filter["category_id"] = q.CategoryID
	}
	if q.FeaturedOnly {
		filter["is_featured"] = true
	}
	if q.EditorsPick {
		filter["is_editors_pick"] = true
	}
	total, err := m.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.PageSize)).
		SetLimit(int64(q.PageSize)).
		// list views never need the body
		SetProjection(bson.M{"content": 0})
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	out := []*article.Article{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (m *MongoRepo) Update(ctx context.Context, id string, p article.Patch) (*article.Article, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Slug != nil {
		set["slug"] = *p.Slug
	}
	if p.Excerpt != nil {
		set["excerpt"] = *p.Excerpt
	}
	if p.BannerURL != nil {
		set["banner_url"] = *p.BannerURL
	}
	if p.Content != nil {
		set["content"] = []byte(p.Content)
	}
	if p.CategoryID != nil {
		set["category_id"] = *p.CategoryID
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.SEOKeywords != nil {
		set["seo_keywords"] = p.SEOKeywords
	}
	if p.IsFeatured != nil {
		set["is_featured"] = *p.IsFeatured
	}
	if p.IsEditorsPick != nil {
		set["is_editors_pick"] = *p.IsEditorsPick
	}
	if p.ReadTime != nil {
		set["read_time"] = *p.ReadTime
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var a article.Article
	if err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, article.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, article.ErrSlugTaken
		}
		return nil, err
	}
	return &a, nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return article.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) IncrementViews(ctx context.Context, id string) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return article.ErrNotFound
	}
	return nil
}
