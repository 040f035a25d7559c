package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the vocabulary domain. Callers match with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateUserWord    = errors.New("user already has this word")
	ErrDuplicateCatalogWord = errors.New("catalog word already exists")
	ErrWordNotResolvable    = errors.New("word could not be resolved")
	ErrLookupUnavailable    = errors.New("dictionary lookup unavailable")
	ErrNoWordsFound         = errors.New("no words found")
	ErrForbidden            = errors.New("forbidden")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrConflict             = errors.New("conflict")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // Operation: "resolver.ResolveOrCreate", "vocab.AddUserWord", ...
	Msg string // Optional human-readable detail
	Err error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E creates an Error with context.
func E(op string, err error, msg string) error {
	return &Error{Op: op, Msg: msg, Err: err}
}

// Suggestion is a candidate word offered when resolution fails.
type Suggestion struct {
	Word     string `json:"word"`
	WordType string `json:"word_type,omitempty"`
	Level    string `json:"level,omitempty"`
	URL      string `json:"url,omitempty"`
}

// NotResolvableError reports a word that matched neither the dictionary
// lookup nor a complete set of caller-supplied fields. Suggestions are
// best-effort; an empty list means the caller must supply all fields.
type NotResolvableError struct {
	Word        string
	Suggestions []Suggestion
}

func (e *NotResolvableError) Error() string {
	return fmt.Sprintf("word %q could not be resolved (%d suggestions)", e.Word, len(e.Suggestions))
}

func (e *NotResolvableError) Is(target error) bool {
	return target == ErrWordNotResolvable
}
