// Package notifications stores per-user notifications and pushes new ones
// to the user's open websocket connections.
package notifications

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification not found")

type Type string

const (
	TypeGeneral  Type = "general"
	TypeArticle  Type = "article"
	TypeComment  Type = "comment"
	TypeMessage  Type = "message"
	TypePurchase Type = "purchase"
)

// Valid reports whether t is one of the known notification types.
func (t Type) Valid() bool {
	switch t {
	case TypeGeneral, TypeArticle, TypeComment, TypeMessage, TypePurchase:
		return true
	}
	return false
}

type Notification struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Title     string    `json:"title" bson:"title"`
	Body      string    `json:"body" bson:"body"`
	Type      Type      `json:"type" bson:"type"`
	Read      bool      `json:"read" bson:"read"`
	Link      string    `json:"link,omitempty" bson:"link,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
