package models

import "time"

// User is a registered account.
type User struct {
	ID            int64      `json:"id" db:"id"`
	Username      string     `json:"username" db:"username"`
	Email         string     `json:"email" db:"email"`
	Password      string     `json:"-" db:"password"` // bcrypt hash
	Level         string     `json:"level" db:"level"`
	Streak        int        `json:"streak" db:"streak"`
	LoginAttempts int        `json:"login_attempts" db:"login_attempts"`
	LastLogin     *time.Time `json:"last_login" db:"last_login"`
	LastActivity  *time.Time `json:"last_activity" db:"last_activity"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// Role names. The first registered user becomes Admin, everyone after
// defaults to User.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Role is an access role assignable to users.
type Role struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// UserRole assigns a single role to a user.
type UserRole struct {
	ID     int64 `json:"id" db:"id"`
	UserID int64 `json:"user_id" db:"user_id"`
	RoleID int64 `json:"role_id" db:"role_id"`
}
