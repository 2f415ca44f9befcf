// Package authext is the boundary to the hosted auth service. Credential
// verification, token issuance, and refresh all live on the other side of
// this interface; nothing here stores passwords.
package authext

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Session is the opaque credential issued by the auth service. The only part
// this code ever interprets is the subject id used as the profile lookup key.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`

	UserID string `json:"user_id"` // subject id ("sub")
	Email  string `json:"email"`
}

type EventKind string

const (
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
)

// SessionEvent is one session-change notification. Session is nil for
// SIGNED_OUT.
type SessionEvent struct {
	Kind    EventKind `json:"kind"`
	Session *Session  `json:"session,omitempty"`
}

// SignUpData is the metadata attached to account creation.
type SignUpData struct {
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Client is the remote auth API. Implementations must be safe for concurrent
// use.
type Client interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, data SignUpData) (*Session, error)
	// AuthorizeURL builds the OAuth redirect entry point. Control leaves the
	// application here; completion arrives later as a session event.
	AuthorizeURL(provider, redirectTo string) string
	SendPasswordReset(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Notifier delivers session-change notifications pushed by the auth service
// (OAuth completion, refresh, expiry, sign-out from elsewhere). At most one
// subscription is active per subscriber; the returned stop func releases it.
type Notifier interface {
	Subscribe(ctx context.Context) (<-chan SessionEvent, func(), error)
}

// TokenStore persists the session between runs so the initial resolution can
// pick it up again. The zero implementation (MemoryStore) keeps it in memory.
type TokenStore interface {
	Load() (*Session, error)
	Save(*Session) error
	Clear() error
}

type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindEmailNotConfirmed  ErrorKind = "email_not_confirmed"
	KindDuplicateAccount   ErrorKind = "duplicate_account"
	KindWeakPassword       ErrorKind = "weak_password"
	KindRateLimited        ErrorKind = "rate_limited"
	KindNetwork            ErrorKind = "network"
	KindUnknown            ErrorKind = "unknown"
)

// AuthError carries the auth service's reason for a failed operation.
type AuthError struct {
	Kind    ErrorKind
	Status  int // HTTP status from the service, 0 for transport failures
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth: %s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
	}
	return "auth: " + string(e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsKind reports whether err is an AuthError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// IsTransport reports whether err is a transport-level failure rather than a
// decision made by the auth service. ResetPassword surfaces only these.
func IsTransport(err error) bool {
	return IsKind(err, KindNetwork)
}
