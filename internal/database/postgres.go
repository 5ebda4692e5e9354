package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/thedividend/dividend/pkg/logger"
)

// ConnectPostgres opens a lib/pq pool and pings it, retrying a few times in
// case of temporary DNS/network blips.
func ConnectPostgres(ctx context.Context, dsn string, attempts int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	for attempt := 1; attempt <= attempts; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pctx)
		cancel()
		if err == nil {
			return db, nil
		}
		logger.Warnf("attempt %d/%d: postgres ping failed: %v", attempt, attempts, err)
		if attempt < attempts {
			time.Sleep(2 * time.Second)
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("postgres ping: %w", err)
}
