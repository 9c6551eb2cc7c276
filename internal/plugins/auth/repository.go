package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/arenahub/arena/internal/apperror"
)

// UserRepository defines the data access contract for user records.
// All SQL lives in the concrete implementation -- no SQL leaks out.
//
// The unique indexes on username, phone, and google_id are the authoritative
// enforcement point for uniqueness. Implementations must surface a write-time
// duplicate-key violation as a field conflict AppError so callers can tell
// which field collided; any application-level existence pre-check is only a
// fast path for the common case, never the authority.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	UpdateProfile(ctx context.Context, id, username, phone string) error
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// userColumns is the scan list shared by all Find queries.
const userColumns = `id, username, password_hash, google_id, email, avatar_url, phone, created_at, updated_at`

// scanUser scans one user row from a QueryRow result.
func scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.GoogleID,
		&user.Email,
		&user.AvatarURL,
		&user.Phone,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user row: %w", err)
	}
	return user, nil
}

// Create inserts a new user row. A duplicate-key violation on any of the
// unique indexes is returned as a field conflict.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, username, password_hash, google_id, email, avatar_url, phone, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.GoogleID,
		user.Email,
		user.AvatarURL,
		user.Phone,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if conflictErr := asConflict(err); conflictErr != nil {
			return conflictErr
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// FindByID retrieves a user by their UUID.
// Returns apperror.NotFound if no user exists with this ID.
func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// FindByUsername retrieves a user by username.
// Returns apperror.NotFound if no user has this username.
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

// FindByGoogleID retrieves a user by their Google subject identifier.
// Returns apperror.NotFound if no user is linked to this identity.
func (r *userRepository) FindByGoogleID(ctx context.Context, googleID string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, googleID))
}

// FindByPhone retrieves a user by phone number.
// Returns apperror.NotFound if no user has this phone.
func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, phone))
}

// UpdateProfile fills in the username and phone for an incomplete profile.
// A duplicate-key violation (another account claimed the value between the
// caller's pre-check and this write) is returned as a field conflict.
func (r *userRepository) UpdateProfile(ctx context.Context, id, username, phone string) error {
	query := `UPDATE users SET username = ?, phone = ?, updated_at = NOW() WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, username, phone, id)
	if err != nil {
		if conflictErr := asConflict(err); conflictErr != nil {
			return conflictErr
		}
		return fmt.Errorf("updating profile: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}

	return nil
}

// asConflict converts a MySQL duplicate-key error (1062) into the field
// conflict AppError for the violated index, or nil for any other error.
func asConflict(err error) *apperror.AppError {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) || mysqlErr.Number != 1062 {
		return nil
	}

	// The 1062 message names the violated index:
	// "Duplicate entry 'alice' for key 'uq_users_username'".
	msg := mysqlErr.Message
	switch {
	case strings.Contains(msg, "uq_users_username"):
		return apperror.NewFieldConflict("username", "This username is already taken")
	case strings.Contains(msg, "uq_users_phone"):
		return apperror.NewFieldConflict("phone", "This phone number is already in use")
	case strings.Contains(msg, "uq_users_google_id"):
		return apperror.NewFieldConflict("google_id", "This Google account is already linked")
	default:
		return apperror.NewConflict("This value is already in use")
	}
}
