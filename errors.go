package goGrant

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called before Build.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidCredentials is returned by PasswordGrant for every authentication
	// failure: unknown subject, wrong password, or disabled account.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenMissing is returned by Authenticate when no token was presented.
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenMalformed is returned when a token cannot be parsed or carries an
	// unexpected shape.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrSignatureInvalid is returned when a token fails signature verification.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenExpired is returned when a token is past its expiry beyond leeway.
	ErrTokenExpired = errors.New("token expired")
	// ErrWrongTokenType is returned when an access token is presented to the
	// refresh path or vice versa.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrRefreshInvalid is returned when a refresh token names a family that no
	// longer exists or has run out its absolute lifetime.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRefreshReuse is returned when a superseded refresh token is replayed.
	// The whole family is revoked as a side effect.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrFamilyRevoked is returned for any operation against a revoked family.
	ErrFamilyRevoked = errors.New("token family revoked")
	// ErrFamilyNotFound is returned by introspection when a family id names no
	// live record.
	ErrFamilyNotFound = errors.New("token family not found")
	// ErrConflict is returned when a storage compare-and-swap still failed after
	// the single automatic retry.
	ErrConflict = errors.New("storage conflict")
	// ErrStoreUnavailable wraps backend outages of the family store or blacklist.
	ErrStoreUnavailable = errors.New("token store unavailable")
)
