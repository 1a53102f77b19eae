package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGSessionStore keeps sessions in the sessions table.
type PGSessionStore struct {
	db  pgExecutor
	now func() time.Time
}

// NewPGSessionStore builds a store over a pool or transaction.
func NewPGSessionStore(db pgExecutor) *PGSessionStore {
	return &PGSessionStore{db: db, now: time.Now}
}

// Find implements SessionStore. Expired rows count as missing.
func (s *PGSessionStore) Find(ctx context.Context, id string) (SessionRecord, error) {
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT data FROM sessions WHERE id = $1 AND expires_at > $2`, id, s.now()).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SessionRecord{}, ErrSessionNotFound
		}
		return SessionRecord{}, err
	}
	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return SessionRecord{}, err
	}
	return rec, nil
}

// Save implements SessionStore.
func (s *PGSessionStore) Save(ctx context.Context, id string, rec SessionRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	var userID *int64
	if rec.UserID > 0 {
		userID = &rec.UserID
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO sessions (id, data, user_id, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at`,
		id, data, userID, s.now().Add(ttl))
	return err
}

// Delete implements SessionStore.
func (s *PGSessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// PurgeExpired removes rows past their expiry and reports how many went.
func (s *PGSessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
