// Package shapegen asks a generative text service for Dalgona outlines.
//
// The service is optional. Without a key, on timeout, on a malformed answer or
// on any other fault, Path returns the built-in outline for the shape.
package shapegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const promptTemplate = "Generate SVG path data for a simple, recognizable %s shape that fits within a 100x100 viewBox. " +
	"The shape should be centered and suitable for a cookie-cutting game. " +
	"Return ONLY the path data string (the value of the 'd' attribute), with no other text, quotes or code fences."

// Config holds generator settings.
type Config struct {
	// Endpoint is the base URL of the generateContent API.
	// Defaults to https://generativelanguage.googleapis.com/v1beta.
	Endpoint string

	// Model is the model name. Defaults to gemini-2.0-flash.
	Model string

	// APIKey enables remote generation. Empty means always use the fallback.
	APIKey string

	// Timeout bounds a whole Path call including retries. Defaults to 10s.
	Timeout time.Duration

	// MaxRetries for retryable HTTP errors. Defaults to 1.
	MaxRetries int

	// BaseRetryDelay is the first backoff step. Defaults to 500ms.
	BaseRetryDelay time.Duration

	// HTTPClient allows injecting a custom client (useful for testing).
	HTTPClient *http.Client

	Logger *log.Logger
}

// Generator produces outlines. Safe for concurrent use.
type Generator struct {
	config Config
	http   *http.Client
	logger *log.Logger
	mu     sync.RWMutex
}

// New creates a generator with defaults applied.
func New(cfg Config) *Generator {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 1
	}
	if cfg.BaseRetryDelay == 0 {
		cfg.BaseRetryDelay = 500 * time.Millisecond
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[SHAPEGEN] ", log.LstdFlags)
	}
	return &Generator{config: cfg, http: httpClient, logger: logger}
}

// SetAPIKey swaps the key (thread-safe).
func (g *Generator) SetAPIKey(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.config.APIKey = key
}

// APIKey returns the current key (thread-safe).
func (g *Generator) APIKey() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.config.APIKey
}

// Path returns an outline for shape, never failing.
func (g *Generator) Path(ctx context.Context, shape string) string {
	path, err := g.Generate(ctx, shape)
	if err != nil {
		if !errors.Is(err, ErrNoAPIKey) {
			g.logger.Printf("generate %s: %v (using fallback)", shape, err)
		}
		return Fallback(shape)
	}
	return path
}

// Generate asks the service for an outline and validates it.
func (g *Generator) Generate(ctx context.Context, shape string) (string, error) {
	key := g.APIKey()
	if key == "" {
		return "", ErrNoAPIKey
	}
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(g.retryDelay(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		text, err := g.doRequest(ctx, key, fmt.Sprintf(promptTemplate, shape))
		if err != nil {
			lastErr = err
			var httpErr *HTTPError
			if errors.As(err, &httpErr) && httpErr.IsRetryable() {
				continue
			}
			return "", err
		}
		return cleanPath(text)
	}
	return "", fmt.Errorf("shapegen: max retries exceeded: %w", lastErr)
}

func (g *Generator) retryDelay(attempt int) time.Duration {
	return g.config.BaseRetryDelay * time.Duration(math.Pow(2, float64(attempt-1)))
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (g *Generator) doRequest(ctx context.Context, key, prompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(g.config.Endpoint, "/"), g.config.Model)
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", fmt.Errorf("shapegen: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("shapegen: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("shapegen: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("shapegen: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("shapegen: invalid response JSON: %w", err)
	}
	for _, c := range out.Candidates {
		for _, p := range c.Content.Parts {
			if p.Text != "" {
				return p.Text, nil
			}
		}
	}
	return "", &MalformedError{}
}

// cleanPath strips code fences and quotes and requires a leading moveto.
func cleanPath(text string) (string, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```svg")
	s = strings.ReplaceAll(s, "`", "")
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != 'M' && s[0] != 'm') {
		return "", &MalformedError{Text: text}
	}
	return s, nil
}
