package models

// Topic groups user words by theme. The row is shared storage; "a user's
// topic" is the set of that user's words linked to it.
type Topic struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

// DefaultTopicName is attached when a word is added without topics.
const DefaultTopicName = "Default"
