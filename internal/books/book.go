// Package books is the bookstore catalogue.
package books

import (
	"errors"
	"math"
	"time"
)

var ErrNotFound = errors.New("book not found")

// Book is a catalogue entry. Price is in major units.
type Book struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Author      string    `json:"author" bson:"author"`
	CoverURL    string    `json:"cover_url,omitempty" bson:"cover_url,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64   `json:"price" bson:"price"`
	CategoryID  string    `json:"category_id,omitempty" bson:"category_id,omitempty"`
	IsFeatured  bool      `json:"is_featured" bson:"is_featured"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// PriceMinor returns the price in minor units as the gateway expects it.
func (b *Book) PriceMinor() int64 {
	return int64(math.Round(b.Price * 100))
}
