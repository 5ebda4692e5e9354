package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/thedividend/dividend/internal/payment"
)

const uniqueViolation = "23505"

const purchasesSchema = `
CREATE TABLE IF NOT EXISTS purchases (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL,
	book_id            TEXT NOT NULL,
	amount             NUMERIC(20,2) NOT NULL CHECK (amount >= 0),
	paystack_reference TEXT NOT NULL,
	status             TEXT NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT purchases_reference_key UNIQUE (paystack_reference)
);
ALTER TABLE purchases ALTER COLUMN amount TYPE NUMERIC(20,2);
CREATE INDEX IF NOT EXISTS purchases_user_created_idx ON purchases (user_id, created_at DESC);`

// PostgresRepo stores purchases in a table with UNIQUE(paystack_reference).
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// EnsureSchema creates the purchases table when missing.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, purchasesSchema); err != nil {
		return fmt.Errorf("create purchases table: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Insert(ctx context.Context, p *payment.Purchase) error {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO purchases (id, user_id, book_id, amount, paystack_reference, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (paystack_reference) DO NOTHING`,
		p.ID, p.UserID, p.BookID, payment.FormatMajor(p.AmountMinor), p.Reference, string(p.Status), p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return payment.ErrDuplicateReference
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return payment.ErrDuplicateReference
	}
	return nil
}

func (r *PostgresRepo) GetByReference(ctx context.Context, reference string) (*payment.Purchase, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id, user_id, book_id, amount, paystack_reference, status, created_at
		FROM purchases WHERE paystack_reference = $1`, reference)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, payment.ErrNotFound
	}
	return p, err
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]*payment.Purchase, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, user_id, book_id, amount, paystack_reference, status, created_at
		FROM purchases WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*payment.Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPurchase(s scanner) (*payment.Purchase, error) {
	var (
		p      payment.Purchase
		amount string
		status string
	)
	if err := s.Scan(&p.ID, &p.UserID, &p.BookID, &amount, &p.Reference, &status, &p.CreatedAt); err != nil {
		return nil, err
	}
	minor, err := parseMinor(amount)
	if err != nil {
		return nil, fmt.Errorf("purchase %s amount %q: %w", p.ID, amount, err)
	}
	p.AmountMinor = minor
	p.Amount = payment.MajorUnits(minor)
	p.Status = payment.Status(status)
	return &p, nil
}

// parseMinor converts a NUMERIC(20,2) text value to minor units without
// going through floating point. Every int64 amount round-trips.
func parseMinor(s string) (int64, error) {
	neg := strings.HasPrefix(s, "-")
	whole, frac, _ := strings.Cut(strings.TrimPrefix(s, "-"), ".")
	if whole == "" || len(frac) > 2 {
		return 0, fmt.Errorf("not a two-decimal amount")
	}
	frac = (frac + "00")[:2]
	digits := whole + frac
	if neg {
		digits = "-" + digits
	}
	return strconv.ParseInt(digits, 10, 64)
}
