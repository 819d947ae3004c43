// Package auth encodes and decodes the two credential kinds: short-lived
// access tokens and longer-lived refresh tokens. Both are HS256 JWTs signed
// with a single injected secret.
package auth

import (
	"strconv"
	"time"

	"filevault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the claim set of an access token. Generation carries the
// user's generation counter at issuance time, serialized as a decimal string.
type AccessClaims struct {
	jwt.RegisteredClaims
	Generation string `json:"gen"`
}

// RefreshClaims is the claim set of a refresh token. The registered ID claim
// (jti) matches the token's row in the revocation store. Refresh tokens carry
// no generation: they are revoked individually, not by generation bump.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with one shared HMAC secret. The secret and
// issuer are injected, never read from process-wide state.
type Codec struct {
	secret []byte
	issuer string
}

func NewCodec(secret []byte, issuer string) *Codec {
	return &Codec{secret: secret, issuer: issuer}
}

// EncodeAccess mints an access token for userID embedding the given
// generation value.
func (c *Codec) EncodeAccess(userID string, generation int64, validity time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Generation: strconv.FormatInt(generation, 10),
	}
	if err := c.checkSensitive(claims.Subject, claims.Generation); err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// EncodeRefresh mints a refresh token whose jti matches the revocation-store
// row created for it. Timestamps are passed in so the credential and the row
// agree exactly.
func (c *Codec) EncodeRefresh(userID, jti string, issuedAt, expiresAt time.Time) (string, error) {
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if err := c.checkSensitive(claims.Subject, claims.ID); err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// DecodeAccess verifies signature, structure, issuer and expiry, and requires
// a subject and a numeric generation claim. Every failure collapses to
// common.ErrInvalidToken so callers cannot build an oracle out of the error.
func (c *Codec) DecodeAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.decode(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	if _, err := strconv.ParseInt(claims.Generation, 10, 64); err != nil {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// DecodeRefresh verifies a refresh token and requires a subject and jti.
func (c *Codec) DecodeRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.decode(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func (c *Codec) decode(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return common.ErrInvalidToken
	}
	return nil
}

// checkSensitive refuses to mint a token that would embed the signing secret
// itself in a claim value.
func (c *Codec) checkSensitive(values ...string) error {
	for _, v := range values {
		if v != "" && v == string(c.secret) {
			return common.ErrSensitiveClaim
		}
	}
	return nil
}
