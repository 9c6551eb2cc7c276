package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arenahub/arena/internal/apperror"
)

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	// Register creates a complete local account (username, password, and
	// phone are all supplied up front) and issues a session.
	Register(ctx context.Context, input RegisterInput) (token string, user *User, err error)

	// Login authenticates local credentials and issues a session.
	Login(ctx context.Context, input LoginInput) (token string, user *User, err error)

	// LoginWithGoogle finds or creates the account linked to the external
	// identity and issues a session. First-time sign-ins create an
	// incomplete profile. Idempotent under concurrent first sign-in.
	LoginWithGoogle(ctx context.Context, identity ExternalIdentity) (token string, user *User, err error)

	// RestoreSession resolves a session token to its user. Fails open:
	// any invalid token yields (nil, false).
	RestoreSession(ctx context.Context, token string) (*User, bool)

	// Logout destroys the session. Idempotent.
	Logout(ctx context.Context, token string) error

	// CompleteProfile fills in the missing username/phone on an incomplete
	// account and rebinds the session so the gate admits the very next
	// request.
	CompleteProfile(ctx context.Context, token, userID string, input CompleteProfileInput) (*User, error)
}

// authService implements AuthService with argon2id hashing and Redis sessions.
type authService struct {
	repo     UserRepository
	sessions *SessionManager
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(repo UserRepository, sessions *SessionManager) AuthService {
	return &authService{
		repo:     repo,
		sessions: sessions,
	}
}

// Register creates a new local account. The username and phone uniqueness
// pre-checks live in the database's unique indexes: Create surfaces a
// duplicate-key violation as a field conflict, so two concurrent
// registrations of the same username cannot both succeed.
func (s *authService) Register(ctx context.Context, input RegisterInput) (string, *User, error) {
	hash, err := hashPassword(input.Password)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Username:     strPtr(input.Username),
		PasswordHash: strPtr(hash),
		AvatarURL:    DefaultAvatarURL,
		Phone:        strPtr(input.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return "", nil, appErr
		}
		return "", nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("issuing session: %w", err))
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", input.Username),
	)

	return token, user, nil
}

// Login authenticates a user by username and password. On success it issues
// a fresh session and returns the token for the cookie.
func (s *authService) Login(ctx context.Context, input LoginInput) (string, *User, error) {
	user, err := s.repo.FindByUsername(ctx, input.Username)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			// Burn a hash verification anyway so unknown and known
			// usernames respond in comparable time.
			verifyPassword(input.Password, dummyHash)
			return "", nil, apperror.NewInvalidCredentials()
		}
		return "", nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	// A Google-only account can carry a username after completion but has
	// no password hash; local login is simply a credential mismatch then.
	if user.PasswordHash == nil {
		verifyPassword(input.Password, dummyHash)
		return "", nil, apperror.NewInvalidCredentials()
	}

	if !verifyPassword(input.Password, *user.PasswordHash) {
		return "", nil, apperror.NewInvalidCredentials()
	}

	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("issuing session: %w", err))
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", input.Username),
	)

	return token, user, nil
}

// LoginWithGoogle resolves the account for an external identity, creating an
// incomplete profile on first sign-in. The find-or-create is made atomic by
// the unique index on google_id: if two first sign-ins race, one INSERT
// loses with a duplicate-key conflict and re-reads the winner's row, so both
// callers observe the same account.
func (s *authService) LoginWithGoogle(ctx context.Context, identity ExternalIdentity) (string, *User, error) {
	user, err := s.findOrCreateByGoogleID(ctx, identity)
	if err != nil {
		return "", nil, err
	}

	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("issuing session: %w", err))
	}

	slog.Info("user logged in via google",
		slog.String("user_id", user.ID),
		slog.Bool("profile_complete", user.ProfileComplete()),
	)

	return token, user, nil
}

func (s *authService) findOrCreateByGoogleID(ctx context.Context, identity ExternalIdentity) (*User, error) {
	user, err := s.repo.FindByGoogleID(ctx, identity.SubjectID)
	if err == nil {
		return user, nil
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 404 {
		return nil, apperror.NewInternal(fmt.Errorf("finding user by google id: %w", err))
	}

	avatar := identity.AvatarURL
	if avatar == "" {
		avatar = DefaultAvatarURL
	}

	now := time.Now().UTC()
	created := &User{
		ID:        uuid.NewString(),
		GoogleID:  strPtr(identity.SubjectID),
		Email:     identity.Email,
		AvatarURL: avatar,
		CreatedAt: now,
		UpdatedAt: now,
	}

	createErr := s.repo.Create(ctx, created)
	if createErr == nil {
		slog.Info("user created from google sign-in", slog.String("user_id", created.ID))
		return created, nil
	}

	// Lost the race: another request inserted this subject id between our
	// find and create. The winner's row is the account.
	var conflictErr *apperror.AppError
	if errors.As(createErr, &conflictErr) && conflictErr.Field == "google_id" {
		existing, findErr := s.repo.FindByGoogleID(ctx, identity.SubjectID)
		if findErr != nil {
			return nil, apperror.NewInternal(fmt.Errorf("re-finding user after create race: %w", findErr))
		}
		return existing, nil
	}

	return nil, apperror.NewInternal(fmt.Errorf("creating user from google identity: %w", createErr))
}

// RestoreSession resolves a token to its user. Either half failing --
// token unknown, or the user row gone -- yields (nil, false).
func (s *authService) RestoreSession(ctx context.Context, token string) (*User, bool) {
	userID, ok := s.sessions.Restore(ctx, token)
	if !ok {
		return nil, false
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, false
	}

	return user, true
}

// Logout destroys the session.
func (s *authService) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

// CompleteProfile validates and commits the missing profile fields, then
// rebinds the session. Validation order: both fields present, username free,
// phone free. The two availability pre-checks are a fast path only -- the
// UPDATE can still lose a race, in which case the store's duplicate-key
// conflict comes back as the same field conflict the pre-check would have
// produced.
func (s *authService) CompleteProfile(ctx context.Context, token, userID string, input CompleteProfileInput) (*User, error) {
	username := trimmed(input.Username)
	phone := trimmed(input.Phone)

	if username == "" || phone == "" {
		return nil, apperror.NewValidation("Both username and phone are required")
	}

	if err := s.checkFieldFree(ctx, userID, "username", username, s.repo.FindByUsername); err != nil {
		return nil, err
	}
	if err := s.checkFieldFree(ctx, userID, "phone", phone, s.repo.FindByPhone); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProfile(ctx, userID, username, phone); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperror.NewInternal(fmt.Errorf("updating profile: %w", err))
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reloading user after completion: %w", err))
	}

	// Rebind so the gate sees the completed profile on the next request.
	if err := s.sessions.Rebind(ctx, token, user.ID); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("rebinding session: %w", err))
	}

	slog.Info("profile completed",
		slog.String("user_id", user.ID),
		slog.String("username", username),
	)

	return user, nil
}

// checkFieldFree rejects a value already held by a different account. A
// clean lookup miss means the value is free as far as this fast path can
// tell; the unique index has the final word at write time.
func (s *authService) checkFieldFree(
	ctx context.Context,
	userID, field, value string,
	find func(context.Context, string) (*User, error),
) error {
	holder, err := find(ctx, value)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			return nil
		}
		return apperror.NewInternal(fmt.Errorf("checking %s availability: %w", field, err))
	}
	if holder.ID == userID {
		// Re-submitting the value you already hold is not a conflict.
		return nil
	}
	switch field {
	case "username":
		return apperror.NewFieldConflict("username", "This username is already taken")
	default:
		return apperror.NewFieldConflict("phone", "This phone number is already in use")
	}
}

// trimmed collapses whitespace-only input to empty.
func trimmed(s string) string {
	return strOrEmpty(&s)
}
