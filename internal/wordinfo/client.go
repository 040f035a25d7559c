package wordinfo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/example/wortschatz/internal/logger"
)

// DefaultBaseURL is the public dictionary site the lookup scrapes.
const DefaultBaseURL = "https://www.woerter.net"

const defaultTimeout = 10 * time.Second

// Client scrapes the dictionary site. It implements the lookup collaborator
// consumed by the resolver.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// New creates a lookup client. An empty baseURL selects the public site.
func New(baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log.With("component", "wordinfo"),
	}
}

func (c *Client) fetch(ctx context.Context, pageURL string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("wordinfo: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPage, err)
	}
	return doc, nil
}

// Lookup resolves a raw word against the dictionary. An inflected form is
// followed through at most one redirect to its base form. Returns
// ErrWordNotFound when the site has no entry and ErrUnavailable on transport
// failures.
func (c *Client) Lookup(ctx context.Context, word string) (*WordInfo, error) {
	doc, err := c.fetch(ctx, c.baseURL+"/?w="+url.QueryEscape(word))
	if err != nil {
		return nil, err
	}

	normalized, redirectURL, ok := parseHeading(doc)
	if !ok {
		if redirectURL == "" {
			return nil, fmt.Errorf("%w: %q", ErrWordNotFound, word)
		}
		doc, err = c.fetch(ctx, c.resolveURL(redirectURL))
		if err != nil {
			return nil, err
		}
		normalized, _, ok = parseHeading(doc)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrWordNotFound, word)
		}
	}

	info := &WordInfo{Word: normalized}
	if level, wordType, found := parseLevelAndType(doc); found {
		info.Level = level
		info.WordType = wordType
	}
	info.Translation = parseTranslation(doc)
	info.Examples = parseExamples(doc)

	c.log.Debug("lookup finished",
		"word", word, "normalized", info.Word,
		"type", info.WordType, "examples", len(info.Examples))
	return info, nil
}

// Search returns fuzzy suggestion candidates for a word, optionally filtered
// by word type. Best effort: an empty list is a valid outcome.
func (c *Client) Search(ctx context.Context, word, wordType string) ([]Suggestion, error) {
	doc, err := c.fetch(ctx, c.baseURL+"/search/?q="+url.QueryEscape(word))
	if err != nil {
		return nil, err
	}
	suggestions := parseSuggestions(doc)
	if wordType == "" {
		return suggestions, nil
	}
	filtered := suggestions[:0]
	for _, s := range suggestions {
		if s.WordType == "" || strings.EqualFold(s.WordType, wordType) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// SuggestByPrefix pages through the site's prefix index, collecting entries
// for pageCount pages starting at pageStart.
func (c *Client) SuggestByPrefix(ctx context.Context, letters string, pageStart, pageCount int) ([]Suggestion, error) {
	if pageCount < 1 {
		pageCount = 1
	}
	var out []Suggestion
	for page := pageStart; page < pageStart+pageCount; page++ {
		pageURL := fmt.Sprintf("%s/worte/%s/%d/", c.baseURL, url.PathEscape(letters), page)
		doc, err := c.fetch(ctx, pageURL)
		if err != nil {
			// Later pages may simply not exist; return what we have.
			if len(out) > 0 {
				return out, nil
			}
			return nil, err
		}
		entries := parseSuggestions(doc)
		if len(entries) == 0 {
			break
		}
		out = append(out, entries...)
	}
	return out, nil
}

func (c *Client) resolveURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return c.baseURL + "/" + strings.TrimLeft(href, "/")
}
