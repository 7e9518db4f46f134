package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/socguard/internal/common"
	"github.com/dmitrijs2005/socguard/internal/dbx"
)

// SQLiteRepository stores records in the metadata table. Every write stamps
// the row with the next value of the store-wide metadata_version counter, so
// a version is never reused for a key even after a delete. Update uses the
// stamp for compare-and-swap.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func nextVersion(ctx context.Context, tx dbx.DBTX) (int64, error) {
	var v int64
	err := tx.QueryRowContext(ctx, `UPDATE metadata_version SET value = value + 1 WHERE id = 1 RETURNING value`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate metadata version: %w", err)
	}
	return v, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		v, err := nextVersion(ctx, tx)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO metadata (key, value, version) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = excluded.version
		`, key, value, v)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

// Delete removes all keys in a single transaction.
func (r *SQLiteRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key); err != nil {
				return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM metadata`); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM metadata WHERE instr(key, ?) = 1`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate metadata rows: %w", err)
	}

	return result, nil
}

// Update reads the row with its version, applies fn and writes back only if
// the version is unchanged. A lost race is retried.
func (r *SQLiteRepository) Update(ctx context.Context, key string, fn UpdateFunc) error {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var (
			current []byte
			version int64
		)
		err := r.db.QueryRowContext(ctx, `SELECT value, version FROM metadata WHERE key = ?`, key).Scan(&current, &version)
		absent := errors.Is(err, sql.ErrNoRows)
		if err != nil && !absent {
			return fmt.Errorf("failed to get metadata[%s]: %w", key, err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		if next == nil && absent {
			return nil
		}

		var n int64
		err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			var res sql.Result
			var err error
			switch {
			case next == nil:
				res, err = tx.ExecContext(ctx, `DELETE FROM metadata WHERE key = ? AND version = ?`, key, version)
			default:
				var v int64
				if v, err = nextVersion(ctx, tx); err != nil {
					return err
				}
				if absent {
					res, err = tx.ExecContext(ctx, `INSERT INTO metadata (key, value, version) VALUES (?, ?, ?) ON CONFLICT(key) DO NOTHING`, key, next, v)
				} else {
					res, err = tx.ExecContext(ctx, `UPDATE metadata SET value = ?, version = ? WHERE key = ? AND version = ?`, next, v, key, version)
				}
			}
			if err != nil {
				return err
			}
			n, err = res.RowsAffected()
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to update metadata[%s]: %w", key, err)
		}
		if n == 1 {
			return nil
		}
	}
	return fmt.Errorf("update metadata[%s]: %w", key, common.ErrVersionConflict)
}
