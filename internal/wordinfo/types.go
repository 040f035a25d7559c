package wordinfo

import "errors"

// Sentinel errors for dictionary lookups.
var (
	ErrWordNotFound = errors.New("wordinfo: word not found")
	ErrUnavailable  = errors.New("wordinfo: dictionary unavailable")
	ErrBadPage      = errors.New("wordinfo: unexpected page layout")
)

// ExamplePair is one candidate example sentence with its translation.
// Either side may be empty; callers filter.
type ExamplePair struct {
	Example     string
	Translation string
}

// WordInfo is the structured result of a dictionary lookup.
type WordInfo struct {
	Word        string // normalized, article joined ("das Mädchen")
	Level       string
	WordType    string
	Translation string
	Examples    []ExamplePair
}

// Suggestion is one candidate from the search endpoint.
type Suggestion struct {
	Word     string
	WordType string
	Level    string
	URL      string
}
