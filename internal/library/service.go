package library

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const historyLimit = 50

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Bookmark(ctx context.Context, userID, articleID string) (*Bookmark, error) {
	return s.repo.AddBookmark(ctx, &Bookmark{
		ID:        uuid.NewString(),
		UserID:    userID,
		ArticleID: articleID,
		CreatedAt: s.now().UTC(),
	})
}

func (s *Service) Unbookmark(ctx context.Context, userID, articleID string) error {
	return s.repo.RemoveBookmark(ctx, userID, articleID)
}

func (s *Service) Bookmarks(ctx context.Context, userID string) ([]*Bookmark, error) {
	return s.repo.ListBookmarks(ctx, userID)
}

// RecordRead notes that userID opened articleID now.
func (s *Service) RecordRead(ctx context.Context, userID, articleID string) error {
	return s.repo.RecordRead(ctx, userID, articleID, s.now().UTC())
}

// History returns the most recently read articles first.
func (s *Service) History(ctx context.Context, userID string) ([]*HistoryEntry, error) {
	return s.repo.ListHistory(ctx, userID, historyLimit)
}
