// Package services contains the server-side business logic: the session
// authority (issuing, validating, rotating and revoking credentials) and the
// folder authorization engine.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"filevault/internal/common"
	"filevault/internal/dbx"
	"filevault/internal/server/auth"
	"filevault/internal/server/config"
	"filevault/internal/server/models"
	"filevault/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a longer-lived refresh
// token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Identity is the result of a successful access-token validation.
type Identity struct {
	UserID   string
	Username string
}

// SessionService handles registration, login, access-token validation,
// refresh-token rotation and logout.
//
// Access tokens are stateless: validity is re-derived on every call by
// comparing the embedded generation against the user's current one. Refresh
// tokens are stateful and single-use: each row in the revocation store is
// consumed by exactly one successful rotation.
type SessionService struct {
	db                           *sql.DB
	repos                        repomanager.RepositoryManager
	codec                        *auth.Codec
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewSessionService constructs a SessionService using repositories and
// server config.
func NewSessionService(db *sql.DB, repos repomanager.RepositoryManager, codec *auth.Codec, cfg *config.Config) *SessionService {
	return &SessionService{
		db:                           db,
		repos:                        repos,
		codec:                        codec,
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a new account. A taken username is detected through the
// storage uniqueness constraint, not a pre-check, so two concurrent
// registrations cannot both win.
func (s *SessionService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, common.ErrorValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{Username: username, PasswordHash: string(hash)}
	created, err := s.repos.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, common.ErrorInternal
	}
	return created, nil
}

// Login verifies the credentials and mints a fresh token pair. An unknown
// username and a wrong password produce the same failure.
func (s *SessionService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.repos.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.issuePair(ctx, s.db, user)
}

// Validate checks an access token and returns the identity it asserts.
// The embedded generation must exactly match the user's current one, which
// is what makes "logout everywhere" immediate without a token blacklist.
func (s *SessionService) Validate(ctx context.Context, accessToken string) (*Identity, error) {
	claims, err := s.codec.DecodeAccess(accessToken)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repos.Users(s.db).GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if claims.Generation != strconv.FormatInt(user.Generation, 10) {
		return nil, common.ErrorUnauthorized
	}

	return &Identity{UserID: user.ID, Username: user.Username}, nil
}

// Refresh rotates a refresh token: the presented credential is revoked and a
// new pair is minted in one transaction. The conditional revoke is what makes
// rotation single-use: of two concurrent calls with the same token, exactly
// one sees the row flip and proceeds. If minting fails after the revoke, the
// whole transaction rolls back and the token stays usable.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.DecodeRefresh(refreshToken)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		revoked, err := s.repos.RefreshTokens(tx).Revoke(ctx, claims.ID, time.Now())
		if err != nil {
			return common.ErrorInternal
		}
		if !revoked {
			// unknown jti, or the token was already used or logged out
			return common.ErrorUnauthorized
		}

		user, err := s.repos.Users(tx).GetByID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return common.ErrorInternal
		}

		pair, err = s.issuePair(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes the presented refresh token (when valid) and, when the
// access token is valid, bumps the user's generation by one, invalidating
// every outstanding access token for the account at once.
func (s *SessionService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if refreshToken != "" {
		if claims, err := s.codec.DecodeRefresh(refreshToken); err == nil {
			if _, err := s.repos.RefreshTokens(s.db).Revoke(ctx, claims.ID, time.Now()); err != nil {
				return common.ErrorInternal
			}
		}
	}

	if accessToken == "" {
		return common.ErrorForbidden
	}
	identity, err := s.Validate(ctx, accessToken)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return common.ErrorForbidden
		}
		return err
	}

	if _, err := s.repos.Users(s.db).BumpGeneration(ctx, identity.UserID); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// issuePair mints one access token at the user's current generation plus one
// refresh token with a fresh revocation-store row. The row exists before the
// credential is handed out.
func (s *SessionService) issuePair(ctx context.Context, tx dbx.DBTX, user *models.User) (*TokenPair, error) {
	access, err := s.codec.EncodeAccess(user.ID, user.Generation, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	now := time.Now()
	row := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTokenValidityDuration),
	}
	if err := s.repos.RefreshTokens(tx).Create(ctx, row); err != nil {
		return nil, common.ErrorInternal
	}

	refresh, err := s.codec.EncodeRefresh(user.ID, row.ID, row.IssuedAt, row.ExpiresAt)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
