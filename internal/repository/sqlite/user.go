package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/tracker/internal/apperror"
	"github.com/sakif/tracker/internal/model"
	"github.com/sakif/tracker/internal/repository"
)

// UserStore implements repository.UserRepository.
type UserStore struct {
	db *DB
}

var _ repository.UserRepository = (*UserStore)(nil)

// Create inserts a new user and fills in ID and CreatedAt.
// Username and email collisions map to ErrConflict with the field set, so
// the signup path can fold them into its per-field error response.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now().UTC()

	res, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, age, can_be_contacted, can_data_be_shared, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Age,
		user.CanBeContacted,
		user.CanDataBeShared,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return apperror.ConflictField("username", "a user with that username already exists")
		}
		if isUniqueViolation(err, "users.email") {
			return apperror.ConflictField("email", "a user with that email already exists")
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading user id: %w", err)
	}
	return nil
}

const userColumns = `id, username, email, password_hash, age, can_be_contacted, can_data_be_shared, created_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Age,
		&u.CanBeContacted,
		&u.CanDataBeShared,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by internal id.
// Returns apperror.ErrNotFound if no such user exists.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(s.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(s.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMsg(fmt.Sprintf("user not found with username %s", username))
		}
		return nil, fmt.Errorf("sqlite: getting user by username %q: %w", username, err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMsg(fmt.Sprintf("user not found with email %s", email))
		}
		return nil, fmt.Errorf("sqlite: getting user by email %q: %w", email, err)
	}
	return u, nil
}

// Update writes the mutable user fields back. The password hash is
// included so account updates can change the password in one statement.
func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE users
		 SET username = ?, email = ?, password_hash = ?, age = ?, can_be_contacted = ?, can_data_be_shared = ?
		 WHERE id = ?`,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Age,
		user.CanBeContacted,
		user.CanDataBeShared,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return apperror.ConflictField("username", "a user with that username already exists")
		}
		if isUniqueViolation(err, "users.email") {
			return apperror.ConflictField("email", "a user with that email already exists")
		}
		return fmt.Errorf("sqlite: updating user %d: %w", user.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating user %d: %w", user.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// Delete removes a user. Foreign-key cascades take the user's
// contributions and authored projects, issues, and comments with it.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
