package payment

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDuplicateReference is returned by a Store when a purchase with the
	// same reference already exists.
	ErrDuplicateReference = errors.New("purchase reference already recorded")
	ErrNotFound           = errors.New("purchase not found")
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Purchase is a recorded book sale. Records are written once by the
// reconciler and never mutated.
type Purchase struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"user_id" bson:"user_id"`
	BookID      string    `json:"book_id" bson:"book_id"`
	Amount      float64   `json:"amount" bson:"amount"`
	AmountMinor int64     `json:"-" bson:"amount_minor"`
	Reference   string    `json:"paystack_reference" bson:"reference"`
	Status      Status    `json:"status" bson:"status"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Store persists purchases. Insert must be atomic with respect to the
// reference: of any number of concurrent inserts for one reference exactly
// one succeeds and the others return ErrDuplicateReference.
type Store interface {
	Insert(ctx context.Context, p *Purchase) error
	GetByReference(ctx context.Context, reference string) (*Purchase, error)
	ListByUser(ctx context.Context, userID string) ([]*Purchase, error)
}

// MajorUnits converts a gateway amount in minor units (kobo) to major units.
func MajorUnits(minor int64) float64 {
	return float64(minor) / 100
}

// FormatMajor renders a minor-unit amount as a two-decimal major-unit string
// without going through floating point.
func FormatMajor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
