package db

import (
	"context"
	"errors"
	"time"

	"github.com/benefactorum/authotp/internal/identity/entity"
	"github.com/jackc/pgx/v5"
)

const identityColumns = `id, email, verified, first_name, last_name, terms_accepted_at,
	otp_secret, otp_counter, otp_expires_at, created_at, updated_at`

func scanIdentity(row pgx.Row) (*entity.Identity, error) {
	var (
		idn     entity.Identity
		counter int64
	)
	err := row.Scan(
		&idn.ID, &idn.Email, &idn.Verified, &idn.FirstName, &idn.LastName, &idn.TermsAcceptedAt,
		&idn.OTPSecret, &counter, &idn.OTPExpiresAt, &idn.CreatedAt, &idn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	idn.OTPCounter = uint64(counter)
	return &idn, nil
}

func (s *DB) GetIdentityByEmail(ctx context.Context, email string) (_ *entity.Identity, err error) {
	ctx, span := s.startSpan(ctx, "GetIdentityByEmail")
	defer func() { s.endSpan(span, err) }()

	idn, err := scanIdentity(s.conn.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identity_users WHERE email = $1`, email))
	if err != nil {
		return nil, s.mapError(err)
	}
	return idn, nil
}

func (s *DB) GetIdentityByID(ctx context.Context, id int64) (_ *entity.Identity, err error) {
	ctx, span := s.startSpan(ctx, "GetIdentityByID")
	defer func() { s.endSpan(span, err) }()

	idn, err := scanIdentity(s.conn.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identity_users WHERE id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}
	return idn, nil
}

func (s *DB) CreateIdentity(ctx context.Context, in entity.NewIdentity) (err error) {
	ctx, span := s.startSpan(ctx, "CreateIdentity")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO identity_users (id, email, first_name, last_name, terms_accepted_at, otp_secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		in.ID, in.Email, in.FirstName, in.LastName, in.TermsAcceptedAt, in.OTPSecret, in.CreatedAt,
	)
	err = s.mapError(err)
	return err
}

// AdvanceOTP never reads before it writes. In reuse mode the WHERE clause
// leaves an unexpired code alone, and only then is the current state read back.
func (s *DB) AdvanceOTP(ctx context.Context, id int64, mode entity.IssueMode, expiresAt, now time.Time) (_ *entity.OTPState, err error) {
	ctx, span := s.startSpan(ctx, "AdvanceOTP")
	defer func() { s.endSpan(span, err) }()

	query := `
		UPDATE identity_users
		SET otp_counter = otp_counter + 1, otp_expires_at = $2, updated_at = $3
		WHERE id = $1
		RETURNING otp_counter, otp_expires_at`
	if mode == entity.IssueModeReuse {
		query = `
		UPDATE identity_users
		SET otp_counter = otp_counter + 1, otp_expires_at = $2, updated_at = $3
		WHERE id = $1 AND (otp_expires_at IS NULL OR otp_expires_at <= $3)
		RETURNING otp_counter, otp_expires_at`
	}

	var (
		counter int64
		exp     *time.Time
	)
	err = s.conn.QueryRow(ctx, query, id, expiresAt, now).Scan(&counter, &exp)
	if err == nil {
		return &entity.OTPState{Counter: uint64(counter), ExpiresAt: exp, Advanced: true}, nil
	}
	if mode != entity.IssueModeReuse || !errors.Is(err, pgx.ErrNoRows) {
		err = s.mapError(err)
		return nil, err
	}

	err = s.conn.QueryRow(ctx,
		`SELECT otp_counter, otp_expires_at FROM identity_users WHERE id = $1`, id,
	).Scan(&counter, &exp)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &entity.OTPState{Counter: uint64(counter), ExpiresAt: exp}, nil
}

func (s *DB) ConsumeOTP(ctx context.Context, in entity.Consume) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeOTP")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE identity_users
		SET verified = TRUE, otp_expires_at = $3, updated_at = $3
		WHERE id = $1 AND otp_counter = $2 AND otp_expires_at > $3`,
		in.IdentityID, int64(in.Counter), in.At,
	)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}
