package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/identity-federation/hub/internal/policy/domain"
)

// PostgresStore persists sessions as kind-tagged JSON documents. Row updates
// are atomic, which gives Replace its required semantics; the state column
// stays opaque to SQL apart from the kind, which is indexed for operational
// queries.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, id domain.SessionID) (domain.State, error) {
	query := `
		SELECT state
		FROM policy.sessions
		WHERE session_id = $1`

	var raw []byte
	err := s.pool.QueryRow(ctx, query, string(id)).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, domain.SessionNotFoundError{SessionID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return domain.UnmarshalState(raw)
}

func (s *PostgresStore) Insert(ctx context.Context, id domain.SessionID, state domain.State) error {
	raw, err := domain.MarshalState(state)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO policy.sessions (session_id, kind, expires_at, state)
		VALUES ($1, $2, $3, $4)`

	_, err = s.pool.Exec(ctx, query, string(id), string(state.Kind()), state.Context().SessionExpiry, raw)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.SessionAlreadyExistsError{SessionID: id}
		}
		return fmt.Errorf("insert session %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) Replace(ctx context.Context, id domain.SessionID, state domain.State) error {
	raw, err := domain.MarshalState(state)
	if err != nil {
		return err
	}

	query := `
		UPDATE policy.sessions
		SET kind = $2, state = $3, updated_at = now()
		WHERE session_id = $1`

	tag, err := s.pool.Exec(ctx, query, string(id), string(state.Kind()), raw)
	if err != nil {
		return fmt.Errorf("replace session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.SessionNotFoundError{SessionID: id}
	}
	return nil
}

func (s *PostgresStore) Has(ctx context.Context, id domain.SessionID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM policy.sessions WHERE session_id = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, string(id)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check session %s: %w", id, err)
	}
	return exists, nil
}
