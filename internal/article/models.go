package article

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("article not found")
	ErrSlugTaken = errors.New("slug already in use")
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Article is a blog post. Content holds the editor's document JSON exactly
// as submitted; it is only interpreted when rendered.
type Article struct {
	ID            string          `json:"id" bson:"_id"`
	Title         string          `json:"title" bson:"title"`
	Slug          string          `json:"slug" bson:"slug"`
	Excerpt       string          `json:"excerpt,omitempty" bson:"excerpt,omitempty"`
	BannerURL     string          `json:"banner_url,omitempty" bson:"banner_url,omitempty"`
	Content       json.RawMessage `json:"content,omitempty" bson:"content,omitempty"`
	AuthorID      string          `json:"author_id" bson:"author_id"`
	CategoryID    string          `json:"category_id,omitempty" bson:"category_id,omitempty"`
	ReadTime      int             `json:"read_time" bson:"read_time"`
	Views         int64           `json:"views" bson:"views"`
	Likes         int64           `json:"likes" bson:"likes"`
	IsFeatured    bool            `json:"is_featured" bson:"is_featured"`
	IsEditorsPick bool            `json:"is_editors_pick" bson:"is_editors_pick"`
	Status        Status          `json:"status" bson:"status"`
	SEOKeywords   []string        `json:"seo_keywords,omitempty" bson:"seo_keywords,omitempty"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" bson:"updated_at"`
}

// ListQuery filters published listings. Page is 1-based.
type ListQuery struct {
	CategoryID    string
	FeaturedOnly  bool
	EditorsPick   bool
	IncludeDrafts bool
	Page          int
	PageSize      int
}

const DefaultPageSize = 12

// Normalize clamps paging to sane values.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = DefaultPageSize
	}
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Title         *string
	Slug          *string
	Excerpt       *string
	BannerURL     *string
	Content       json.RawMessage
	CategoryID    *string
	Status        *Status
	SEOKeywords   []string
	IsFeatured    *bool
	IsEditorsPick *bool
	ReadTime      *int
}
