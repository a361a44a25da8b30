package machines

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-machines/middleware/tokenware"
	"github.com/goliatone/go-router"
)

// ProtectedRoute builds the token gate every private route runs behind. The
// credential travels in the configured header, and the subject it names must
// still exist; a token for a deleted account is rejected like any other bad
// credential.
func ProtectedRoute(repo RepositoryManager, tokenService TokenService, cfg Config) router.MiddlewareFunc {
	return tokenware.New(tokenware.Config{
		HeaderName: cfg.GetTokenHeader(),
		ContextKey: cfg.GetContextKey(),
		TokenValidator: func(token string) (tokenware.AuthClaims, error) {
			return tokenService.Validate(token)
		},
		IdentityResolver: func(ctx context.Context, claims tokenware.AuthClaims) (any, error) {
			user, err := repo.Users().GetByID(ctx, claims.UserID())
			if err != nil {
				if isRecordNotFound(err) {
					return nil, ErrIdentityNotFound
				}
				return nil, err
			}
			if user == nil {
				return nil, ErrIdentityNotFound
			}
			return user, nil
		},
		ContextEnricher: func(c context.Context, claims tokenware.AuthClaims) context.Context {
			return WithClaimsContext(c, claims)
		},
		SuccessHandler: func(ctx router.Context) error {
			if user, ok := UserFromRouterContext(ctx, tokenware.DefaultUserContextKey); ok {
				ctx.SetContext(WithContext(ctx.Context(), user))
			}
			return ctx.Next()
		},
	})
}

// HTTPErrorResponder maps an error to the JSON envelope the API speaks.
type HTTPErrorResponder func(ctx router.Context, err error) error

// RespondWithError writes the standard error envelope. Known rich errors keep
// their message and status, anything else collapses into a 500 with the
// underlying error exposed in the "error" field.
func RespondWithError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "Server Error").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status < 400 {
		status = router.StatusInternalServerError
	}

	body := map[string]any{
		"success": false,
		"message": richErr.Message,
	}

	if status >= 500 {
		if richErr.Source != nil {
			body["error"] = richErr.Source.Error()
		} else {
			body["error"] = richErr.Message
		}
	}

	return ctx.JSON(status, body)
}

// newErrorResponder wraps RespondWithError with request logging.
func newErrorResponder(logger Logger) HTTPErrorResponder {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			logger.Error(
				"request error",
				"message", richErr.Message,
				"category", richErr.Category,
				"text_code", richErr.TextCode,
			)
		} else {
			logger.Error("request error", "error", err)
		}
		return RespondWithError(ctx, err)
	}
}
