// Package auth provides JWT issuance/validation, password hashing, and the
// request-authentication gate for the tracker API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. Client POSTs username+password to /api/token/ → receives an access
//    token (short-lived) and a refresh token (long-lived)
// 2. Client sends "Authorization: Bearer <access>" on every API call
// 3. The gate middleware validates the token and loads the principal
// 4. When the access token expires, the client POSTs the refresh token to
//    /api/token/refresh/ for a fresh access token
// 5. Logout blacklists the refresh token's id (jti) so it cannot be
//    replayed
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims → {"sub":"<userID>","exp":1234567890,...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The server verifies the signature without any DB lookup — just the secret.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// Token lifetimes. Access tokens are short so a stolen one goes stale
// quickly; refresh tokens live long enough to keep a CLI session usable.
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

const issuer = "tracker"

// tokenTypeRefresh marks refresh tokens via a custom "typ" claim, so an
// access token can never be replayed against the refresh endpoint.
const tokenTypeRefresh = "refresh"

// Validation failure kinds. The gate relies on ErrTokenExpired /
// ErrTokenInvalid only for logging detail — both surface as the same 401
// reason to the client.
var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: token invalid")
)

// TokenService issues and validates signed, time-limited credentials.
//
// It holds the HMAC secret key used to sign and verify tokens. The same
// secret must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. The "sub" claim carries the user's numeric id
// as a string; refresh tokens additionally carry TokenType and an ID (jti)
// used for blacklisting.
type claims struct {
	TokenType string `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// IssuePair creates a signed access + refresh token pair for userID.
// The refresh token's jti is a fresh xid; revoking that jti invalidates
// the refresh token without touching any access tokens already issued.
func (s *TokenService) IssuePair(userID int64) (TokenPair, error) {
	access, err := s.generate(userID, AccessTokenTTL, "", "")
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.generate(userID, RefreshTokenTTL, tokenTypeRefresh, xid.New().String())
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// GenerateAccess creates a standalone access token with a custom duration.
// Used in tests to mint expired or short-lived tokens.
func (s *TokenService) GenerateAccess(userID int64, d time.Duration) (string, error) {
	return s.generate(userID, d, "", "")
}

func (s *TokenService) generate(userID int64, d time.Duration, typ, jti string) (string, error) {
	now := time.Now()

	c := claims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// ValidateAccess parses and verifies an access token and returns the user
// id from its "sub" claim. Refresh tokens are rejected here — they only
// buy new access tokens, never API access.
func (s *TokenService) ValidateAccess(tokenStr string) (int64, error) {
	c, err := s.parse(tokenStr)
	if err != nil {
		return 0, err
	}
	if c.TokenType == tokenTypeRefresh {
		return 0, fmt.Errorf("%w: refresh token used as access token", ErrTokenInvalid)
	}
	return subjectID(c)
}

// ValidateRefresh parses and verifies a refresh token, returning the user
// id and the token's jti for blacklist checks.
func (s *TokenService) ValidateRefresh(tokenStr string) (int64, string, error) {
	c, err := s.parse(tokenStr)
	if err != nil {
		return 0, "", err
	}
	if c.TokenType != tokenTypeRefresh {
		return 0, "", fmt.Errorf("%w: not a refresh token", ErrTokenInvalid)
	}
	userID, err := subjectID(c)
	if err != nil {
		return 0, "", err
	}
	return userID, c.ID, nil
}

// parse runs the full signature/expiry validation.
//
// Passing jwt.WithValidMethods pins the algorithm to HS256 — without it,
// a token signed with "none" or an attacker-controlled algorithm could
// slip through (the classic algorithm-confusion attack).
func (s *TokenService) parse(tokenStr string) (*claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: bad claims", ErrTokenInvalid)
	}
	return c, nil
}

func subjectID(c *claims) (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: non-numeric subject %q", ErrTokenInvalid, c.Subject)
	}
	return id, nil
}
