package metadata

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/authapi/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) LoadSession(ctx context.Context) (*Session, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM metadata WHERE key IN (?, ?, ?)`, sessionKeyArgs()...)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	defer rows.Close()

	var s Session
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		switch Key(key) {
		case KeyJWT:
			s.JWT = string(value)
		case KeyRenewalToken:
			s.RenewalToken = string(value)
		case KeyAccountName:
			s.AccountName = string(value)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate metadata rows: %w", err)
	}

	if s.JWT == "" || s.RenewalToken == "" {
		return nil, nil
	}
	return &s, nil
}

// SaveSession writes all session keys in one statement.
func (r *SQLiteRepository) SaveSession(ctx context.Context, s Session) error {
	if s.JWT == "" || s.RenewalToken == "" {
		return ErrIncompleteSession
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?), (?, ?), (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`,
		string(KeyJWT), []byte(s.JWT),
		string(KeyRenewalToken), []byte(s.RenewalToken),
		string(KeyAccountName), []byte(s.AccountName),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ClearSession(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key IN (?, ?, ?)`, sessionKeyArgs()...)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func sessionKeyArgs() []any {
	args := make([]any, len(sessionKeys))
	for i, k := range sessionKeys {
		args[i] = string(k)
	}
	return args
}
