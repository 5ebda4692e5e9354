package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/thedividend/dividend/internal/article"
)

// Repository is the article persistence contract shared by the memory and
// Mongo implementations.
type Repository interface {
	Create(ctx context.Context, a *article.Article) error
	Get(ctx context.Context, id string) (*article.Article, error)
	GetBySlug(ctx context.Context, slug string) (*article.Article, error)
	List(ctx context.Context, q article.ListQuery) ([]*article.Article, int64, error)
	Update(ctx context.Context, id string, p article.Patch) (*article.Article, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}

// MemoryRepo is an in-memory repository used when MongoDB is not configured
// and in unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*article.Article
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*article.Article)}
}

func (m *MemoryRepo) slugOwner(slug string) string {
	for id, a := range m.store {
		if a.Slug == slug {
			return id
		}
	}
	return ""
}

func (m *MemoryRepo) Create(ctx context.Context, a *article.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugOwner(a.Slug) != "" {
		return article.ErrSlugTaken
	}
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*article.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.store[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, article.ErrNotFound
}

func (m *MemoryRepo) GetBySlug(ctx context.Context, slug string) (*article.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id := m.slugOwner(slug); id != "" {
		cp := *m.store[id]
		return &cp, nil
	}
	return nil, article.ErrNotFound
}

func (m *MemoryRepo) List(ctx context.Context, q article.ListQuery) ([]*article.Article, int64, error) {
	q.Normalize()
	m.mu.RLock()
	matched := make([]*article.Article, 0)
	for _, a := range m.store {
		if !q.IncludeDrafts && a.Status != article.StatusPublished {
			continue
		}
		if q.CategoryID != "" && a.CategoryID != q.CategoryID {
			continue
		}
		if q.FeaturedOnly && !a.IsFeatured {
			continue
		}
		if q.EditorsPick && !a.IsEditorsPick {
			continue
		}
		cp := *a
		matched = append(matched, &cp)
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	start := (q.Page - 1) * q.PageSize
	if start >= len(matched) {
		return []*article.Article{}, total, nil
	}
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *MemoryRepo) Update(ctx context.Context, id string, p article.Patch) (*article.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok {
		return nil, article.ErrNotFound
	}
	if p.Slug != nil {
		if owner := m.slugOwner(*p.Slug); owner != "" && owner != id {
			return nil, article.ErrSlugTaken
		}
	}
	applyPatch(a, p)
	a.UpdatedAt = time.Now().UTC()
	cp := *a
	return &cp, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return article.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MemoryRepo) IncrementViews(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok {
		return article.ErrNotFound
	}
	a.Views++
	return nil
}

func applyPatch(a *article.Article, p article.Patch) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Slug != nil {
		a.Slug = *p.Slug
	}
	if p.Excerpt != nil {
		a.Excerpt = *p.Excerpt
	}
	if p.BannerURL != nil {
		a.BannerURL = *p.BannerURL
	}
	if p.Content != nil {
		a.Content = p.Content
	}
	if p.CategoryID != nil {
		a.CategoryID = *p.CategoryID
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.SEOKeywords != nil {
		a.SEOKeywords = p.SEOKeywords
	}
	if p.IsFeatured != nil {
		a.IsFeatured = *p.IsFeatured
	}
	if p.IsEditorsPick != nil {
		a.IsEditorsPick = *p.IsEditorsPick
	}
	if p.ReadTime != nil {
		a.ReadTime = *p.ReadTime
	}
}
