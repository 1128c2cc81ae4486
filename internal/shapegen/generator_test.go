package shapegen

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func answer(w http.ResponseWriter, text string) {
	resp := map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func TestFallbackKnownAndUnknown(t *testing.T) {
	for _, s := range Shapes() {
		if p := Fallback(s); !strings.HasPrefix(p, "M") {
			t.Errorf("fallback %s: %q does not start with M", s, p)
		}
	}
	if Fallback("hexagon") != Fallback(Triangle) {
		t.Error("unknown shape should fall back to the triangle")
	}
}

func TestPathWithoutKeyUsesFallback(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	g := New(Config{Endpoint: server.URL, Logger: quietLogger()})
	if got := g.Path(context.Background(), Star); got != Fallback(Star) {
		t.Errorf("got %q", got)
	}
	if hits.Load() != 0 {
		t.Error("no request should be made without a key")
	}
	if _, err := g.Generate(context.Background(), Star); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestGenerateSendsPromptAndCleansAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/models/test-model:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "k" {
			t.Error("missing api key header")
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.Contains(req.Contents[0].Parts[0].Text, "umbrella") {
			t.Errorf("prompt missing shape: %q", req.Contents[0].Parts[0].Text)
		}
		answer(w, "```svg\nM 10 10 L 90 90 Z\n```")
	}))
	defer server.Close()

	g := New(Config{Endpoint: server.URL, Model: "test-model", APIKey: "k", Logger: quietLogger()})
	got, err := g.Generate(context.Background(), Umbrella)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "M 10 10 L 90 90 Z" {
		t.Errorf("got %q", got)
	}
}

func TestMalformedAnswerFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		answer(w, "Sure! Here is a circle: M 50 50")
	}))
	defer server.Close()

	g := New(Config{Endpoint: server.URL, APIKey: "k", Logger: quietLogger()})
	_, err := g.Generate(context.Background(), Circle)
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %v", err)
	}
	if got := g.Path(context.Background(), Circle); got != Fallback(Circle) {
		t.Errorf("got %q", got)
	}
}

func TestRetryableErrorIsRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		answer(w, "m 1 1 l 2 2 z")
	}))
	defer server.Close()

	g := New(Config{Endpoint: server.URL, APIKey: "k", BaseRetryDelay: time.Millisecond, Logger: quietLogger()})
	got, err := g.Generate(context.Background(), Triangle)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "m 1 1 l 2 2 z" || hits.Load() != 2 {
		t.Errorf("got %q after %d hits", got, hits.Load())
	}
}

func TestAuthErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer server.Close()

	g := New(Config{Endpoint: server.URL, APIKey: "k", MaxRetries: 3, BaseRetryDelay: time.Millisecond, Logger: quietLogger()})
	_, err := g.Generate(context.Background(), Star)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || !httpErr.IsAuth() || httpErr.IsRetryable() {
		t.Fatalf("expected auth HTTPError, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 hit, got %d", hits.Load())
	}
}

func TestTimeoutFallsBack(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	g := New(Config{Endpoint: server.URL, APIKey: "k", Timeout: 50 * time.Millisecond, Logger: quietLogger()})
	if got := g.Path(context.Background(), Umbrella); got != Fallback(Umbrella) {
		t.Errorf("got %q", got)
	}
}

func TestSetAPIKey(t *testing.T) {
	g := New(Config{Logger: quietLogger()})
	g.SetAPIKey("new")
	if g.APIKey() != "new" {
		t.Errorf("expected 'new', got %s", g.APIKey())
	}
}
