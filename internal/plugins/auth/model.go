// Package auth handles user authentication, session management, and the
// profile-completion gate for Arena. Identity is established either with a
// local username/password or with Google sign-in; both paths resolve to the
// same User record. A user whose profile is incomplete (no username or no
// phone) is locked out of every protected page until they finish it.
//
// This is a CORE plugin -- always enabled, cannot be disabled.
package auth

import (
	"strings"
	"time"
)

// DefaultAvatarURL is used when an identity provider supplies no picture.
const DefaultAvatarURL = "/static/images/default-avatar.svg"

// User represents an Arena account. One row serves both credential paths:
// a local signup has Username/PasswordHash/Phone set from the start, a
// Google-only account has GoogleID set and Username/Phone nil until the
// profile is completed. Nil and empty are distinct on the nullable fields --
// only non-nil values participate in uniqueness.
type User struct {
	ID           string     `json:"id"`
	Username     *string    `json:"username,omitempty"`
	PasswordHash *string    `json:"-"` // Never expose in JSON responses.
	GoogleID     *string    `json:"-"` // Never expose.
	Email        string     `json:"email,omitempty"`
	AvatarURL    string     `json:"avatar_url"`
	Phone        *string    `json:"phone,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ProfileComplete reports whether the account may enter protected pages:
// both username and phone must be non-empty after trimming whitespace.
// A username of "   " counts as absent.
func (u *User) ProfileComplete() bool {
	return strOrEmpty(u.Username) != "" && strOrEmpty(u.Phone) != ""
}

// DisplayName returns the username for display, or "" for accounts that
// have not completed their profile.
func (u *User) DisplayName() string {
	return strOrEmpty(u.Username)
}

// PhoneOrEmpty returns the phone number, or "" when it has not been set.
func (u *User) PhoneOrEmpty() string {
	return strOrEmpty(u.Phone)
}

// strOrEmpty dereferences an optional string, trimming whitespace.
func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// strPtr returns a pointer to s, for filling the nullable User fields.
func strPtr(s string) *string {
	return &s
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the data submitted by the registration form.
type RegisterRequest struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Phone    string `form:"phone"`
}

// LoginRequest holds the data submitted by the login form.
type LoginRequest struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// CompleteProfileRequest holds the data submitted by the completion form.
type CompleteProfileRequest struct {
	Username string `form:"username"`
	Phone    string `form:"phone"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the validated input for creating a local account.
type RegisterInput struct {
	Username string
	Password string
	Phone    string
}

// LoginInput is the input for authenticating with local credentials.
type LoginInput struct {
	Username string
	Password string
}

// CompleteProfileInput is the input for finishing an incomplete profile.
type CompleteProfileInput struct {
	Username string
	Phone    string
}

// ExternalIdentity is what the identity provider adapter yields after a
// successful callback exchange: a stable subject identifier plus profile
// hints. The auth service never sees provider tokens or wire formats.
type ExternalIdentity struct {
	SubjectID string
	Email     string
	AvatarURL string
}

// Session is the value stored in Redis under "session:<token>". The token
// itself is the key; only the user id is needed to rehydrate the principal.
type Session struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
