package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/tracker/internal/apperror"
	"github.com/sakif/tracker/internal/model"
)

// Reason messages for the six distinct authentication failures, in the
// order the gate checks them. Clients distinguish failures by the "detail"
// text; the "code" is always "authentication_failed".
const (
	MsgNoCredentials      = "Authentication credentials were not provided."
	MsgInvalidFormat      = "Invalid authentication token format."
	MsgEmptyToken         = "Empty token."
	MsgMalformedStructure = "Invalid token structure."
	MsgInvalidOrExpired   = "Token is invalid or expired."
	MsgAuthFailed         = "Authentication failed."
)

const bearerPrefix = "Bearer "

// PublicPaths is the explicit list of path prefixes that bypass the gate.
// It is built once at process start and never mutated afterwards.
type PublicPaths []string

// DefaultPublicPaths enumerates every unauthenticated surface: account
// registration, token issuance, token refresh, and the liveness endpoint.
// Everything else under /api is gated.
func DefaultPublicPaths() PublicPaths {
	return PublicPaths{
		"/api/auth/signup",
		"/api/token",
		"/api/health",
	}
}

// Match reports whether path is public. Prefix matching mirrors how the
// paths are routed: "/api/token" covers "/api/token/refresh" too.
func (p PublicPaths) Match(path string) bool {
	for _, pub := range p {
		if strings.HasPrefix(path, pub) {
			return true
		}
	}
	return false
}

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the principal stored in a context.
type contextKey string

const principalKey contextKey = "principal"

// PrincipalLookup resolves a token subject to a live user record. A token
// can be structurally and cryptographically valid yet reference a deleted
// account; the gate treats that as a generic authentication failure.
type PrincipalLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Gate is the request-authentication middleware. It runs on every request
// under /api, before any resource resolution or per-object authorization,
// and performs these checks in order, each with its own failure reason:
//
//  1. Authorization header present?              → MsgNoCredentials
//  2. Header starts with "Bearer "?              → MsgInvalidFormat
//  3. Token segment non-empty? (a bare "Bearer"
//     counts as empty too)                       → MsgEmptyToken
//  4. Exactly three dot-separated segments?      → MsgMalformedStructure
//  5. Signature and expiry valid?                → MsgInvalidOrExpired
//  6. Subject still exists in the user store?    → MsgAuthFailed
//
// On success the full user record is attached to the request context as
// the principal. The gate never mutates token state.
type Gate struct {
	tokens *TokenService
	users  PrincipalLookup
	public PublicPaths
	logger *slog.Logger
}

func NewGate(tokens *TokenService, users PrincipalLookup, public PublicPaths, logger *slog.Logger) *Gate {
	return &Gate{
		tokens: tokens,
		users:  users,
		public: public,
		logger: logger,
	}
}

// Middleware wires the gate into a chi/net-http handler chain.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.public.Match(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := g.authenticate(r)
		if err != nil {
			// Only a credential verdict is a 401; a failing user store is
			// a server fault and must not read as bad credentials.
			if !errors.Is(err, apperror.ErrUnauthorized) {
				g.logger.Error("principal lookup failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeInternalError(w)
				return
			}

			var appErr *apperror.AppError
			msg := MsgAuthFailed
			if errors.As(err, &appErr) {
				msg = appErr.Message
			}
			g.logger.Warn("authentication rejected",
				slog.String("path", r.URL.Path),
				slog.String("reason", msg),
			)
			writeUnauthorized(w, msg)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate runs the ordered credential checks and resolves the
// principal. Read-only: no token state is touched.
func (g *Gate) authenticate(r *http.Request) (*model.User, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, apperror.Unauthorized(MsgNoCredentials)
	}

	// A bare "Bearer" is the scheme with an empty token segment. A client
	// sending "Bearer " reaches us in this form too: the server-side
	// header parser trims trailing whitespace before we ever see it.
	if header == "Bearer" {
		return nil, apperror.Unauthorized(MsgEmptyToken)
	}

	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, apperror.Unauthorized(MsgInvalidFormat)
	}

	token := header[len(bearerPrefix):]
	if token == "" {
		return nil, apperror.Unauthorized(MsgEmptyToken)
	}

	// Structural shape of a signed token: header.payload.signature.
	// Checked before cryptographic validation so garbage gets its own
	// reason instead of a generic "invalid".
	if strings.Count(token, ".") != 2 {
		return nil, apperror.Unauthorized(MsgMalformedStructure)
	}

	userID, err := g.tokens.ValidateAccess(token)
	if err != nil {
		return nil, apperror.Unauthorized(MsgInvalidOrExpired)
	}

	principal, err := g.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Valid token for a principal that no longer exists.
			return nil, apperror.Unauthorized(MsgAuthFailed)
		}
		// A store failure is not an authentication verdict.
		return nil, fmt.Errorf("loading principal %d: %w", userID, err)
	}

	return principal, nil
}

// PrincipalFromContext retrieves the authenticated user from the request
// context. Returns (nil, false) on public paths where the gate did not run.
func PrincipalFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(principalKey).(*model.User)
	return u, ok && u != nil
}

// writeUnauthorized emits the fixed 401 body shape. The gate writes its
// own response rather than importing the handler package — it sits below
// the handlers in the chain.
func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"detail": detail,
		"code":   "authentication_failed",
	})
}

// writeInternalError emits a generic 500; the real cause stays in the log.
func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "internal_error",
		"message": "an internal error occurred",
	})
}
