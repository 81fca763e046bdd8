package db

import (
	"context"

	"github.com/benefactorum/authotp/internal/identity/entity"
	"github.com/jackc/pgx/v5"
)

func (s *DB) CreateSession(ctx context.Context, in entity.Session) (err error) {
	ctx, span := s.startSpan(ctx, "CreateSession")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO identity_sessions (id, identity_id, token_hash, user_agent, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		in.ID, in.IdentityID, in.TokenHash, in.UserAgent, in.IPAddress, in.CreatedAt,
	)
	err = s.mapError(err)
	return err
}

func (s *DB) GetSessionOwner(ctx context.Context, tokenHash string) (_ *entity.SessionOwner, err error) {
	ctx, span := s.startSpan(ctx, "GetSessionOwner")
	defer func() { s.endSpan(span, err) }()

	var owner entity.SessionOwner
	err = s.conn.QueryRow(ctx, `
		SELECT s.id, s.identity_id, u.email
		FROM identity_sessions s
		JOIN identity_users u ON u.id = s.identity_id
		WHERE s.token_hash = $1`, tokenHash,
	).Scan(&owner.SessionID, &owner.IdentityID, &owner.Email)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &owner, nil
}

func (s *DB) ListSessions(ctx context.Context, identityID int64) (_ []entity.Session, err error) {
	ctx, span := s.startSpan(ctx, "ListSessions")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT id, identity_id, token_hash, user_agent, ip_address, created_at
		FROM identity_sessions
		WHERE identity_id = $1
		ORDER BY created_at DESC, id DESC`, identityID,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	sessions, err := pgx.CollectRows(rows, pgx.RowToStructByPos[entity.Session])
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return sessions, nil
}

// DeleteSession scopes the delete to the owner, so a foreign id deletes nothing.
func (s *DB) DeleteSession(ctx context.Context, id, identityID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "DeleteSession")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`DELETE FROM identity_sessions WHERE id = $1 AND identity_id = $2`, id, identityID)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}
