// Package tokenware gates routes behind a header carried token. The request
// must present a valid credential in the configured header, and the subject it
// names must resolve to a stored identity before the handler chain continues.
package tokenware

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

const (
	// DefaultHeaderName is the header carrying the raw token.
	DefaultHeaderName = "x-auth-token"
	// DefaultContextKey is the locals key holding the validated claims.
	DefaultContextKey = "user"
	// DefaultUserContextKey is the locals key holding the resolved identity.
	DefaultUserContextKey = "current_user"
)

// ErrMissingToken is returned when the request carries no credential at all.
var ErrMissingToken = errors.New("No token, authorization denied", errors.CategoryAuth).
	WithTextCode("TOKEN_MISSING").
	WithCode(errors.CodeUnauthorized)

// ErrInvalidToken covers every other gate failure. Malformed, expired, and
// unresolvable subjects all collapse into the same response on purpose so the
// gate leaks nothing about why the credential was rejected.
var ErrInvalidToken = errors.New("Token is not valid", errors.CategoryAuth).
	WithTextCode("TOKEN_INVALID").
	WithCode(errors.CodeUnauthorized)

// AuthClaims mirrors the claims surface of the root package so the middleware
// stays free of import cycles.
type AuthClaims interface {
	Subject() string
	UserID() string
	Expires() time.Time
	IssuedAt() time.Time
}

// TokenValidatorFunc validates a raw credential and returns its claims.
type TokenValidatorFunc func(token string) (AuthClaims, error)

// IdentityResolverFunc maps validated claims to a stored identity. Returning
// an error rejects the request even though the token itself verified.
type IdentityResolverFunc func(ctx context.Context, claims AuthClaims) (any, error)

type Config struct {
	// Filter skips the gate for matching requests.
	Filter func(router.Context) bool

	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler

	// TokenValidator is required.
	TokenValidator TokenValidatorFunc

	// IdentityResolver loads the account behind the claims. Optional, but
	// without it handlers only see claims, never a resolved identity.
	IdentityResolver IdentityResolverFunc

	HeaderName     string
	ContextKey     string
	UserContextKey string

	// ContextEnricher propagates claims to the standard Go context after a
	// successful validation.
	ContextEnricher func(c context.Context, claims AuthClaims) context.Context
}

func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw := strings.TrimSpace(ctx.GetString(cfg.HeaderName, ""))
			if raw == "" {
				return cfg.ErrorHandler(ctx, ErrMissingToken)
			}

			claims, err := cfg.TokenValidator(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, errors.Wrap(err, ErrInvalidToken.Category, ErrInvalidToken.Message).
					WithTextCode(ErrInvalidToken.TextCode).
					WithCode(ErrInvalidToken.Code))
			}

			ctx.Locals(cfg.ContextKey, claims)

			if cfg.IdentityResolver != nil {
				identity, err := cfg.IdentityResolver(ctx.Context(), claims)
				if err != nil {
					return cfg.ErrorHandler(ctx, errors.Wrap(err, ErrInvalidToken.Category, ErrInvalidToken.Message).
						WithTextCode(ErrInvalidToken.TextCode).
						WithCode(ErrInvalidToken.Code))
				}
				ctx.Locals(cfg.UserContextKey, identity)
			}

			if cfg.ContextEnricher != nil {
				stdCtx := ctx.Context()
				ctx.SetContext(cfg.ContextEnricher(stdCtx, claims))
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = DefaultErrorHandler
	}

	if cfg.TokenValidator == nil {
		panic("AUTH: token middleware configuration: TokenValidator is required.")
	}

	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.UserContextKey == "" {
		cfg.UserContextKey = DefaultUserContextKey
	}

	return cfg
}

// DefaultErrorHandler answers 401 with the gate's JSON envelope. The missing
// token case keeps its own message, everything else reads as an invalid token.
func DefaultErrorHandler(c router.Context, err error) error {
	message := ErrInvalidToken.Message

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == ErrMissingToken.TextCode {
		message = ErrMissingToken.Message
	}

	return c.JSON(router.StatusUnauthorized, map[string]any{
		"message": message,
	})
}
