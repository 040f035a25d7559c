package models

// Word is a catalog entry for a German term under one part of speech.
// The (word, word_type_id) pair is unique; the same spelling may exist
// under different word types.
type Word struct {
	ID         int64  `json:"id" db:"id"`
	Word       string `json:"word" db:"word"`
	WordTypeID int64  `json:"word_type_id" db:"word_type_id"`
	English    string `json:"english" db:"english"`
	Level      string `json:"level" db:"level"` // A1-C2 or "Unknown"
}

// WordType is a part-of-speech tag (Noun, Verb, Adjective, ...).
type WordType struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// WordExample is the single canonical example sentence of a catalog word.
type WordExample struct {
	ID          int64  `json:"id" db:"id"`
	WordID      int64  `json:"word_id" db:"word_id"`
	Example     string `json:"example" db:"example"`
	Translation string `json:"translation" db:"translation"`
}

// NonParsedWord marks a catalog word that was entered manually by a user
// instead of being resolved from the dictionary lookup.
type NonParsedWord struct {
	ID     int64 `json:"id" db:"id"`
	WordID int64 `json:"word_id" db:"word_id"`
	UserID int64 `json:"user_id" db:"user_id"`
}

// Levels recognized by the catalog. Anything else is coerced to LevelUnknown.
var CEFRLevels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

const LevelUnknown = "Unknown"

// CoerceLevel maps arbitrary level strings onto the six CEFR levels,
// falling back to LevelUnknown.
func CoerceLevel(level string) string {
	for _, l := range CEFRLevels {
		if level == l {
			return l
		}
	}
	return LevelUnknown
}
