// Package sqliteguard implements the idempotency guard against a local
// SQLite database. bootstrap selects it when idempotency_backend is "sqlite".
package sqliteguard

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Guard is a SQLite-backed idempotency.Guard.
type Guard struct {
	DB *sql.DB
}

// Open opens (creating if necessary) the idempotency table at path.
func Open(path string) (*Guard, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS idempotency_claims (
		key TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	)`)
	if err != nil {
		return nil, err
	}
	return &Guard{DB: db}, nil
}

func (g *Guard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()

	tx, err := g.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var existingExpiry int64
	err = tx.QueryRowContext(ctx, `SELECT expires_at FROM idempotency_claims WHERE key = ?`, key).Scan(&existingExpiry)
	switch {
	case err == sql.ErrNoRows:
		// fall through to insert
	case err != nil:
		return false, err
	default:
		if existingExpiry > now.Unix() {
			return false, nil
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO idempotency_claims (key, created_at, expires_at) VALUES (?, ?, ?)`,
		key, now.Unix(), now.Add(ttl).Unix())
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}
