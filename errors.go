package machines

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

const (
	// TextCodeTokenMissing marks requests that carried no credential at all.
	TextCodeTokenMissing = "TOKEN_MISSING"
	// TextCodeTokenMalformed marks credentials that failed structure or signature checks.
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	// TextCodeTokenExpired marks credentials past their expiry claim.
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeInvalidCreds marks failed password verification.
	TextCodeInvalidCreds = "INVALID_CREDENTIALS"
	// TextCodeMachineNotFound marks lookups for machine ids that do not exist.
	TextCodeMachineNotFound = "MACHINE_NOT_FOUND"
	// TextCodeNotMachineOwner marks mutations attempted by a non owner.
	TextCodeNotMachineOwner = "MACHINE_NOT_OWNER"
)

// ErrMissingToken is returned when a protected route receives no credential.
var ErrMissingToken = errors.New("No token, authorization denied", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMissing).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for credentials with a bad structure or signature.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for credentials past their expiry claim.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned when password verification fails.
var ErrMismatchedHashAndPassword = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty input where a value is required.
var ErrNoEmptyString = errors.New("value must not be an empty string", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// ErrMachineNotFound is returned when a machine id resolves to nothing.
var ErrMachineNotFound = errors.New("Machine not found", errors.CategoryNotFound).
	WithTextCode(TextCodeMachineNotFound).
	WithCode(errors.CodeNotFound)

// ErrNotMachineOwner is returned when a caller mutates a machine they do not own.
var ErrNotMachineOwner = errors.New("You are not authorized to update this machine", errors.CategoryAuthz).
	WithTextCode(TextCodeNotMachineOwner).
	WithCode(errors.CodeForbidden)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeTokenExpired
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeTokenMalformed
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed token")
}

// isRecordNotFound matches both the generic not found category and the
// repository layer's own record not found error.
func isRecordNotFound(err error) bool {
	return errors.IsNotFound(err) || repository.IsRecordNotFound(err)
}
