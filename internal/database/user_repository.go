package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/wortschatz/internal/apperr"
	"github.com/example/wortschatz/pkg/models"
)

// UserRepository handles database operations for users and roles.
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

const userSelect = `SELECT id, username, email, password, level, streak, login_attempts,
	last_login, last_activity, created_at FROM users`

// GetByID returns a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := DB.GetContext(ctx, &user, DB.Rebind(userSelect+" WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.E("users.GetByID", apperr.ErrNotFound, fmt.Sprintf("user id=%d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByUsername returns a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := DB.GetContext(ctx, &user, DB.Rebind(userSelect+" WHERE username = ?"), username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.E("users.GetByUsername", apperr.ErrNotFound, fmt.Sprintf("user %q", username))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

// GetAll returns all users ordered by id.
func (r *UserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := DB.SelectContext(ctx, &users, userSelect+" ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// Create registers a user and assigns a role: the first user in the table
// becomes Admin, everyone after defaults to User. Username and email are
// unique; a violation surfaces as apperr.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.Level == "" {
		user.Level = "A1"
	}

	var total int
	if err := DB.GetContext(ctx, &total, "SELECT COUNT(*) FROM users"); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	roleName := models.RoleUser
	if total == 0 {
		roleName = models.RoleAdmin
	}

	var existing int
	check := DB.Rebind("SELECT COUNT(*) FROM users WHERE username = ? OR email = ?")
	if err := DB.GetContext(ctx, &existing, check, user.Username, user.Email); err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if existing > 0 {
		return apperr.E("users.Create", apperr.ErrConflict,
			fmt.Sprintf("username %q or email %q already taken", user.Username, user.Email))
	}

	id, err := insertGetID(ctx, DB,
		"INSERT INTO users (username, email, password, level) VALUES (?, ?, ?, ?)",
		user.Username, user.Email, user.Password, user.Level,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	user.CreatedAt = time.Now()

	return r.AssignRole(ctx, id, roleName)
}

// AssignRole gives a user the named role, creating the role row lazily and
// replacing any previous assignment.
func (r *UserRepository) AssignRole(ctx context.Context, userID int64, roleName string) error {
	role, err := r.getOrCreateRole(ctx, roleName)
	if err != nil {
		return err
	}
	if _, err := DB.ExecContext(ctx, DB.Rebind("DELETE FROM users_roles WHERE user_id = ?"), userID); err != nil {
		return fmt.Errorf("failed to clear user role: %w", err)
	}
	if _, err := insertGetID(ctx, DB,
		"INSERT INTO users_roles (user_id, role_id) VALUES (?, ?)", userID, role.ID); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

func (r *UserRepository) getOrCreateRole(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	query := DB.Rebind("SELECT id, name FROM roles WHERE name = ?")
	err := DB.GetContext(ctx, &role, query, name)
	if err == nil {
		return &role, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	id, err := insertGetID(ctx, DB, "INSERT INTO roles (name) VALUES (?)", name)
	if err != nil {
		if refetchErr := DB.GetContext(ctx, &role, query, name); refetchErr == nil {
			return &role, nil
		}
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return &models.Role{ID: id, Name: name}, nil
}

// HasRole reports whether the user holds the named role.
func (r *UserRepository) HasRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	var count int
	query := DB.Rebind(`
		SELECT COUNT(*) FROM users_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		WHERE ur.user_id = ? AND ro.name = ?
	`)
	if err := DB.GetContext(ctx, &count, query, userID, roleName); err != nil {
		return false, fmt.Errorf("failed to check user role: %w", err)
	}
	return count > 0, nil
}

// Update replaces the mutable account fields.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := DB.Rebind(`
		UPDATE users SET username = ?, email = ?, password = ?, level = ?
		WHERE id = ?
	`)
	res, err := DB.ExecContext(ctx, query, user.Username, user.Email, user.Password, user.Level, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.E("users.Update", apperr.ErrNotFound, fmt.Sprintf("user id=%d", user.ID))
	}
	return nil
}

// Delete removes a user account. The user's words, overrides, topic links
// and role assignment cascade.
func (r *UserRepository) Delete(ctx context.Context, userID int64) error {
	res, err := DB.ExecContext(ctx, DB.Rebind("DELETE FROM users WHERE id = ?"), userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.E("users.Delete", apperr.ErrNotFound, fmt.Sprintf("user id=%d", userID))
	}
	return nil
}

// RecordLogin stamps last_login and resets the failed-attempt counter.
func (r *UserRepository) RecordLogin(ctx context.Context, userID int64) error {
	query := DB.Rebind("UPDATE users SET last_login = ?, login_attempts = 0 WHERE id = ?")
	if _, err := DB.ExecContext(ctx, query, time.Now(), userID); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// RecordFailedLogin bumps the failed-attempt counter.
func (r *UserRepository) RecordFailedLogin(ctx context.Context, userID int64) error {
	query := DB.Rebind("UPDATE users SET login_attempts = login_attempts + 1 WHERE id = ?")
	if _, err := DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to record failed login: %w", err)
	}
	return nil
}

// TouchActivity stamps last_activity.
func (r *UserRepository) TouchActivity(ctx context.Context, userID int64) error {
	query := DB.Rebind("UPDATE users SET last_activity = ? WHERE id = ?")
	if _, err := DB.ExecContext(ctx, query, time.Now(), userID); err != nil {
		return fmt.Errorf("failed to touch activity: %w", err)
	}
	return nil
}
