package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultListLimit = 50

// Publisher pushes a stored notification to live subscribers.
type Publisher interface {
	Publish(n *Notification)
}

type Service struct {
	repo Repository
	pub  Publisher
	now  func() time.Time
}

// NewService wires a repository and an optional live publisher (nil disables push).
func NewService(repo Repository, pub Publisher) *Service {
	return &Service{repo: repo, pub: pub, now: time.Now}
}

// Create stores n for its user and pushes it to connected clients. ID,
// CreatedAt and Read are assigned here.
func (s *Service) Create(ctx context.Context, n *Notification) (*Notification, error) {
	if n.UserID == "" {
		return nil, errors.New("notification user_id is required")
	}
	if n.Title == "" {
		return nil, errors.New("notification title is required")
	}
	if n.Type == "" {
		n.Type = TypeGeneral
	}
	if !n.Type.Valid() {
		return nil, fmt.Errorf("unknown notification type %q", n.Type)
	}
	n.ID = uuid.NewString()
	n.Read = false
	n.CreatedAt = s.now().UTC()
	if err := s.repo.Insert(ctx, n); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	if s.pub != nil {
		s.pub.Publish(n)
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, userID string, limit int) ([]*Notification, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return s.repo.List(ctx, userID, limit)
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
