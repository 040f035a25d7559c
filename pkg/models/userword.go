package models

import "time"

// UserWord is a user's personal study record for one catalog word.
type UserWord struct {
	ID        int64      `json:"id" db:"id"`
	WordID    int64      `json:"word_id" db:"word_id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	Fails     int        `json:"fails" db:"fails"`
	Success   int        `json:"success" db:"success"`
	LastShown *time.Time `json:"last_shown" db:"last_shown"` // nil = never shown
}

// UserWordTranslation overrides the catalog gloss for one user.
type UserWordTranslation struct {
	ID          int64  `json:"id" db:"id"`
	UserWordID  int64  `json:"user_word_id" db:"user_word_id"`
	Translation string `json:"translation" db:"translation"`
}

// UserWordExample overrides the catalog example for one user.
type UserWordExample struct {
	ID          int64  `json:"id" db:"id"`
	UserWordID  int64  `json:"user_word_id" db:"user_word_id"`
	Example     string `json:"example" db:"example"`
	Translation string `json:"translation" db:"translation"`
}

// UserWordLevel overrides the catalog level for one user.
type UserWordLevel struct {
	ID         int64  `json:"id" db:"id"`
	UserWordID int64  `json:"user_word_id" db:"user_word_id"`
	Level      string `json:"level" db:"level"`
}

// UserWordTopic links a user word to a topic.
type UserWordTopic struct {
	ID         int64 `json:"id" db:"id"`
	UserWordID int64 `json:"user_word_id" db:"user_word_id"`
	TopicID    int64 `json:"topic_id" db:"topic_id"`
}

// UserWordView is the composed read model: catalog data with per-user
// overrides applied. Overrides always win over catalog defaults.
type UserWordView struct {
	ID                 int64      `json:"id"`
	Word               string     `json:"word"`
	WordType           string     `json:"word_type"`
	English            string     `json:"english"`
	Level              string     `json:"level"`
	Example            string     `json:"example,omitempty"`
	ExampleTranslation string     `json:"example_translation,omitempty"`
	Topics             []string   `json:"topics"`
	Fails              int        `json:"fails"`
	Success            int        `json:"success"`
	LastShown          *time.Time `json:"last_shown,omitempty"`
}
