package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data")

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims")

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password must not be empty")

// ErrMismatchedHashAndPassword is returned on credential comparison failure.
// We intentionally use the same error for unknown identifiers so callers
// cannot probe which emails exist.
var ErrMismatchedHashAndPassword = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailTaken is returned when a sign up collides with an existing account.
var ErrEmailTaken = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode("EMAIL_TAKEN").
	WithCode(goerrors.CodeConflict)

// ErrAccountUnconfirmed is returned for sign ins against accounts that have
// not confirmed their email address.
var ErrAccountUnconfirmed = goerrors.New("account email not confirmed", goerrors.CategoryAuth).
	WithTextCode("ACCOUNT_UNCONFIRMED").
	WithCode(goerrors.CodeUnauthorized)

// ErrAdminInactive is returned when an administrator record exists but has
// been deactivated. Treated as a credential failure, nothing is stored.
var ErrAdminInactive = goerrors.New("administrator account is inactive", goerrors.CategoryAuth).
	WithTextCode("ADMIN_INACTIVE").
	WithCode(goerrors.CodeUnauthorized)

// ErrApplicationExists is the distinguishable "already submitted" failure for
// a second seller application by the same owner.
var ErrApplicationExists = goerrors.New("seller application already submitted", goerrors.CategoryConflict).
	WithTextCode("APPLICATION_ALREADY_SUBMITTED").
	WithCode(goerrors.CodeConflict)

// ErrTokenExpired is returned when a session token is past its expiry.
var ErrTokenExpired = goerrors.New("session token expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens we cannot parse.
var ErrTokenMalformed = goerrors.New("session token malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// IsDuplicateApplication reports whether err is the "already submitted"
// uniqueness failure, so UI code can surface the distinct message.
func IsDuplicateApplication(err error) bool {
	return goerrors.Is(err, ErrApplicationExists)
}

// IsCredentialFailure reports whether err is one of the locally recoverable
// credential failures (bad email/password, unconfirmed, inactive admin).
func IsCredentialFailure(err error) bool {
	return goerrors.Is(err, ErrMismatchedHashAndPassword) ||
		goerrors.Is(err, ErrAccountUnconfirmed) ||
		goerrors.Is(err, ErrAdminInactive)
}
