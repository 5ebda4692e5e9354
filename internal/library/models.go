// Package library keeps each reader's bookmarks and reading history.
package library

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("bookmark not found")

type Bookmark struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	ArticleID string    `json:"article_id" bson:"article_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// HistoryEntry is one (user, article) pair; re-reading only moves LastReadAt.
type HistoryEntry struct {
	UserID     string    `json:"user_id" bson:"user_id"`
	ArticleID  string    `json:"article_id" bson:"article_id"`
	LastReadAt time.Time `json:"last_read_at" bson:"last_read_at"`
}
