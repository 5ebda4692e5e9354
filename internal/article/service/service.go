// Package service holds the article operations shared by the HTTP layer and
// the CLI: slug and read-time derivation on write, and cached rendering.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thedividend/dividend/internal/article"
	"github.com/thedividend/dividend/internal/article/repository"
	"github.com/thedividend/dividend/internal/content"
	"github.com/thedividend/dividend/pkg/logger"
	"github.com/thedividend/dividend/pkg/metrics"
	"go.uber.org/zap"
)

var ErrInvalid = errors.New("invalid article")

// Input is the writable part of an article as submitted by an editor.
type Input struct {
	Title         string
	Slug          string
	Excerpt       string
	BannerURL     string
	Content       json.RawMessage
	CategoryID    string
	Status        article.Status
	SEOKeywords   []string
	IsFeatured    bool
	IsEditorsPick bool
}

type Service struct {
	repo     repository.Repository
	renderer *content.Renderer
	cache    RenderCache
	cacheTTL time.Duration
	now      func() time.Time
}

// New returns a Service. cache may be nil, in which case every render is
// computed fresh.
func New(repo repository.Repository, cache RenderCache, cacheTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		renderer: content.NewRenderer(),
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// readTime parses raw and estimates its reading time. Malformed content is
// rejected so it never reaches storage.
func readTime(raw json.RawMessage) (int, error) {
	doc, err := content.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return content.ReadTime(content.PlainText(doc)), nil
}

func (s *Service) Create(ctx context.Context, authorID string, in Input) (*article.Article, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	slug := content.Slugify(in.Slug)
	if slug == "" {
		slug = content.Slugify(title)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: title yields an empty slug", ErrInvalid)
	}
	rt, err := readTime(in.Content)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = article.StatusDraft
	}
	if status != article.StatusDraft && status != article.StatusPublished {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
	}
	now := s.now().UTC()
	a := &article.Article{
		ID:            uuid.NewString(),
		Title:         title,
		Slug:          slug,
		Excerpt:       in.Excerpt,
		BannerURL:     in.BannerURL,
		Content:       in.Content,
		AuthorID:      authorID,
		CategoryID:    in.CategoryID,
		ReadTime:      rt,
		IsFeatured:    in.IsFeatured,
		IsEditorsPick: in.IsEditorsPick,
		Status:        status,
		SEOKeywords:   in.SEOKeywords,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	logger.L().Info("article created", zap.String("id", a.ID), zap.String("slug", a.Slug), zap.String("status", string(a.Status)))
	return a, nil
}

// Update applies p. A new body recomputes the read time; a blank slug is
// regenerated from the (possibly new) title.
func (s *Service) Update(ctx context.Context, id string, p article.Patch) (*article.Article, error) {
	if p.Content != nil {
		rt, err := readTime(p.Content)
		if err != nil {
			return nil, err
		}
		p.ReadTime = &rt
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalid)
		}
		p.Title = &t
	}
	if p.Slug != nil {
		slug := content.Slugify(*p.Slug)
		if slug == "" {
			cur, err := s.repo.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			title := cur.Title
			if p.Title != nil {
				title = *p.Title
			}
			slug = content.Slugify(title)
		}
		p.Slug = &slug
	}
	if p.Status != nil && *p.Status != article.StatusDraft && *p.Status != article.StatusPublished {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, *p.Status)
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) Get(ctx context.Context, id string) (*article.Article, error) {
	return s.repo.Get(ctx, id)
}

// Published returns the published article with slug. Drafts read as not
// found.
func (s *Service) Published(ctx context.Context, slug string) (*article.Article, error) {
	a, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if a.Status != article.StatusPublished {
		return nil, article.ErrNotFound
	}
	return a, nil
}

// Read is Published plus a view.
func (s *Service) Read(ctx context.Context, slug string) (*article.Article, error) {
	a, err := s.Published(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementViews(ctx, a.ID); err != nil {
		logger.L().Warn("view count not incremented", zap.String("id", a.ID), zap.Error(err))
	} else {
		a.Views++
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, q article.ListQuery) ([]*article.Article, int64, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ToggleFeatured flips is_featured and returns the updated article.
func (s *Service) ToggleFeatured(ctx context.Context, id string) (*article.Article, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := !a.IsFeatured
	return s.repo.Update(ctx, id, article.Patch{IsFeatured: &v})
}

// ToggleEditorsPick flips is_editors_pick and returns the updated article.
func (s *Service) ToggleEditorsPick(ctx context.Context, id string) (*article.Article, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := !a.IsEditorsPick
	return s.repo.Update(ctx, id, article.Patch{IsEditorsPick: &v})
}

// RenderHTML renders a's content. Cache failures only cost a re-render.
func (s *Service) RenderHTML(ctx context.Context, a *article.Article) (string, error) {
	key := RenderKey(a)
	if s.cache != nil {
		html, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			logger.L().Warn("render cache read failed", zap.String("key", key), zap.Error(err))
		case ok:
			metrics.RenderCache.WithLabelValues("hit").Inc()
			return html, nil
		default:
			metrics.RenderCache.WithLabelValues("miss").Inc()
		}
	}
	doc, err := content.Parse(a.Content)
	if err != nil {
		return "", err
	}
	html := s.renderer.HTML(doc)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, html, s.cacheTTL); err != nil {
			logger.L().Warn("render cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return html, nil
}
