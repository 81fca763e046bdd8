package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/benefactorum/authotp/internal/identity/entity"
	"github.com/benefactorum/authotp/internal/pkg/auth"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
	"github.com/samber/lo"
)

const (
	sessionTokenBytes = 32
	maxUserAgentLen   = 512
)

func (s *Usecase) openSession(ctx context.Context, identityID int64, userAgent, addr string) (*entity.Session, string, error) {
	raw := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		slog.ErrorContext(ctx, "failed to generate session token", "error", err)
		return nil, "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	if len(userAgent) > maxUserAgentLen {
		userAgent = userAgent[:maxUserAgentLen]
	}

	sess := entity.Session{
		ID:         s.uid.Generate(),
		IdentityID: identityID,
		TokenHash:  s.hmac.Hash(token),
		UserAgent:  userAgent,
		IPAddress:  addr,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repoDB.CreateSession(ctx, sess); err != nil {
		slog.ErrorContext(ctx, "failed to repo create session", "identity_id", identityID, "error", err)
		return nil, "", err
	}

	return &sess, token, nil
}

// Authenticate resolves a session token to its owner. It returns
// auth.ErrUnauthenticated when the token matches no session.
func (s *Usecase) Authenticate(ctx context.Context, token string) (*auth.Principal, error) {
	ctx, span := s.startSpan(ctx, "Authenticate")
	defer span.End()

	if token == "" {
		return nil, auth.ErrUnauthenticated
	}

	owner, err := s.repoDB.GetSessionOwner(ctx, s.hmac.Hash(token))
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, auth.ErrUnauthenticated
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get session owner", "error", err)
		return nil, err
	}

	return &auth.Principal{
		IdentityID: owner.IdentityID,
		SessionID:  owner.SessionID,
		Email:      owner.Email,
	}, nil
}

type SessionItem struct {
	ID        int64
	UserAgent string
	IPAddress string
	CreatedAt time.Time
	Current   bool
}

// ListSessions returns the caller's sessions, newest first.
func (s *Usecase) ListSessions(ctx context.Context) ([]SessionItem, error) {
	ctx, span := s.startSpan(ctx, "ListSessions")
	defer span.End()

	p := auth.GetPrincipal(ctx)
	if p == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	sessions, err := s.repoDB.ListSessions(ctx, p.IdentityID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list sessions", "identity_id", p.IdentityID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return lo.Map(sessions, func(sess entity.Session, _ int) SessionItem {
		return SessionItem{
			ID:        sess.ID,
			UserAgent: sess.UserAgent,
			IPAddress: sess.IPAddress,
			CreatedAt: sess.CreatedAt,
			Current:   sess.ID == p.SessionID,
		}
	}), nil
}

type MeOutput struct {
	ID              int64
	Email           string
	FirstName       string
	LastName        string
	Verified        bool
	TermsAcceptedAt time.Time
	CreatedAt       time.Time
}

// Me returns the identity behind the current session.
func (s *Usecase) Me(ctx context.Context) (*MeOutput, error) {
	ctx, span := s.startSpan(ctx, "Me")
	defer span.End()

	p := auth.GetPrincipal(ctx)
	if p == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	idn, err := s.repoDB.GetIdentityByID(ctx, p.IdentityID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Identity not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by id", "identity_id", p.IdentityID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &MeOutput{
		ID:              idn.ID,
		Email:           idn.Email,
		FirstName:       idn.FirstName,
		LastName:        idn.LastName,
		Verified:        idn.Verified,
		TermsAcceptedAt: idn.TermsAcceptedAt,
		CreatedAt:       idn.CreatedAt,
	}, nil
}
