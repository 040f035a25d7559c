package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable reports an unreachable or failing generation backend.
var ErrUnavailable = errors.New("ai: generation backend unavailable")

// Client talks to an Ollama-compatible /api/generate endpoint.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
}

// New creates a generation client. Defaults target a local Ollama.
func New(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type generateRequest struct {
	Model  string      `json:"model"`
	Prompt string      `json:"prompt"`
	Stream bool        `json:"stream"`
	Format interface{} `json:"format,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Sentence is a generated German sentence with its English translation.
type Sentence struct {
	Sentence    string `json:"sentence"`
	Translation string `json:"translation"`
}

// sentenceSchema constrains the model output to the Sentence shape.
var sentenceSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"sentence":    map[string]interface{}{"type": "string"},
		"translation": map[string]interface{}{"type": "string"},
	},
	"required": []string{"sentence", "translation"},
}

// GenerateSentence produces a short German sentence at the given CEFR level
// that uses words from the topic, plus its English translation.
func (c *Client) GenerateSentence(ctx context.Context, topic, level string, words []string) (*Sentence, error) {
	prompt := fmt.Sprintf(
		"Write one short German sentence at CEFR level %s about the topic %q. "+
			"Use at least one of these words: %s. "+
			"Answer as JSON with fields 'sentence' (German) and 'translation' (English).",
		level, topic, strings.Join(words, ", "),
	)

	raw, err := c.generate(ctx, prompt, sentenceSchema)
	if err != nil {
		return nil, err
	}

	var sentence Sentence
	if err := json.Unmarshal([]byte(raw), &sentence); err != nil {
		return nil, fmt.Errorf("%w: unparseable response: %v", ErrUnavailable, err)
	}
	if sentence.Sentence == "" {
		return nil, fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return &sentence, nil
}

func (c *Client) generate(ctx context.Context, prompt string, format interface{}) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Format: format,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return strings.TrimSpace(decoded.Response), nil
}
