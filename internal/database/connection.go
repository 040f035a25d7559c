package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. DB_TYPE selects the
// driver: "postgres" uses DATABASE_URL, anything else falls back to a local
// SQLite file under data/.
func Connect() error {
	if os.Getenv("DB_TYPE") == "postgres" {
		db, err := sqlx.Connect("postgres", os.Getenv("DATABASE_URL"))
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		DB = db
		return initializeSchema()
	}

	dataDir := "data"
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "wortschatz.db")
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	DB = db
	return initializeSchema()
}

// ConnectTest opens an in-memory SQLite database and installs the schema.
// Each call replaces the global connection.
func ConnectTest() error {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open in-memory database: %w", err)
	}
	if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	DB = db
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist.
// The DDL is SQLite dialect; postgres deployments run migrations externally
// and this becomes a no-op on existing tables.
func initializeSchema() error {
	if DB.DriverName() == "postgres" {
		return nil
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			level TEXT NOT NULL DEFAULT 'A1',
			streak INTEGER NOT NULL DEFAULT 0,
			login_attempts INTEGER NOT NULL DEFAULT 0,
			last_login TIMESTAMP,
			last_activity TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS roles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS users_roles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL UNIQUE,
			role_id INTEGER NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (role_id) REFERENCES roles(id)
		)`,
		`CREATE TABLE IF NOT EXISTS word_types (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS words (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			word TEXT NOT NULL,
			word_type_id INTEGER NOT NULL,
			english TEXT NOT NULL,
			level TEXT NOT NULL,
			FOREIGN KEY (word_type_id) REFERENCES word_types(id),
			UNIQUE(word, word_type_id)
		)`,
		`CREATE TABLE IF NOT EXISTS words_examples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			word_id INTEGER NOT NULL UNIQUE,
			example TEXT NOT NULL,
			translation TEXT,
			FOREIGN KEY (word_id) REFERENCES words(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS non_parsed_words (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			word_id INTEGER NOT NULL UNIQUE,
			user_id INTEGER NOT NULL,
			FOREIGN KEY (word_id) REFERENCES words(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS topics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS users_words (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			word_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			fails INTEGER NOT NULL DEFAULT 0,
			success INTEGER NOT NULL DEFAULT 0,
			last_shown TIMESTAMP,
			FOREIGN KEY (word_id) REFERENCES words(id),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS users_words_translations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_word_id INTEGER NOT NULL UNIQUE,
			translation TEXT NOT NULL,
			FOREIGN KEY (user_word_id) REFERENCES users_words(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS users_words_examples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_word_id INTEGER NOT NULL UNIQUE,
			example TEXT NOT NULL,
			translation TEXT,
			FOREIGN KEY (user_word_id) REFERENCES users_words(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS users_words_levels (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_word_id INTEGER NOT NULL UNIQUE,
			level TEXT NOT NULL,
			FOREIGN KEY (user_word_id) REFERENCES users_words(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS users_words_topics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_word_id INTEGER NOT NULL,
			topic_id INTEGER NOT NULL,
			FOREIGN KEY (user_word_id) REFERENCES users_words(id) ON DELETE CASCADE,
			FOREIGN KEY (topic_id) REFERENCES topics(id) ON DELETE CASCADE,
			UNIQUE(user_word_id, topic_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
