package auth

import "fmt"

// FailureKind is the closed set of outcomes a session-manager
// operation can fail with. Callers branch on the kind; the message is
// what the end user may see.
type FailureKind uint8

const (
	// FailureUnauthorized covers bad or missing credentials, locked
	// and inactive accounts, blocked origins, and dead refresh tokens.
	// The message is deliberately generic for the cases where the
	// specific cause would leak account state.
	FailureUnauthorized FailureKind = iota + 1
	// FailureInvalidOperation covers caller-fixable input problems
	// such as duplicate registration.
	FailureInvalidOperation
	// FailureNotFound covers absent resources on authenticated paths.
	FailureNotFound
	// FailureInternal covers store or signing errors. The underlying
	// cause is logged server-side and never shown to the caller.
	FailureInternal
)

func (k FailureKind) String() string {
	switch k {
	case FailureUnauthorized:
		return "unauthorized"
	case FailureInvalidOperation:
		return "invalid_operation"
	case FailureNotFound:
		return "not_found"
	case FailureInternal:
		return "internal"
	}
	return "unknown"
}

// Failure is a typed operation failure. It satisfies error so it can
// flow through ordinary error returns, but callers are expected to
// inspect Kind rather than match message text.
type Failure struct {
	Kind    FailureKind
	Message string
	cause   error
}

func (f *Failure) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap exposes the internal cause for logging; the cause never
// reaches API responses.
func (f *Failure) Unwrap() error {
	return f.cause
}

// Externally visible failure messages. The unknown-user and
// wrong-password branches share msgInvalidCredentials byte for byte so
// the two cases cannot be told apart.
const (
	msgInvalidCredentials  = "invalid credentials"
	msgTemporarilyBlocked  = "login temporarily blocked"
	msgAccountLocked       = "account locked"
	msgAccountInactive     = "account inactive"
	msgLockedTooMany       = "account locked due to too many failed attempts"
	msgInvalidRefreshToken = "invalid refresh token"
	msgAccountNotUsable    = "account is not active"
	msgWrongCurrentPass    = "current password is incorrect"
	msgInternal            = "an internal error occurred"
)

func unauthorized(message string) *Failure {
	return &Failure{Kind: FailureUnauthorized, Message: message}
}

func invalidOperation(message string) *Failure {
	return &Failure{Kind: FailureInvalidOperation, Message: message}
}

func notFound(message string) *Failure {
	return &Failure{Kind: FailureNotFound, Message: message}
}

func internal(cause error) *Failure {
	return &Failure{Kind: FailureInternal, Message: msgInternal, cause: cause}
}
