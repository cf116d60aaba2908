package submit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got: %v", err)
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://sessions.example.com/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.baseURL != "https://sessions.example.com" {
		t.Errorf("expected trimmed base URL, got %q", client.baseURL)
	}
}

func TestCreateSession(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotReq SessionRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"session_id": "sess-1", "status": "queued", "url": "https://sessions.example.com/s/sess-1"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, Token: "tkn-123", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := client.CreateSession(context.Background(), &SessionRequest{
		ID:         "run-1-planners",
		Role:       "planners",
		Workstream: "checkout",
		Prompt:     "You are the planners layer.",
		Metadata:   map[string]string{"branch": "troupe/checkout"},
	})
	if err != nil {
		t.Fatalf("CreateSession() returned error: %v", err)
	}

	if gotPath != "/v1/sessions" {
		t.Errorf("expected POST to /v1/sessions, got %s", gotPath)
	}
	if gotAuth != "Bearer tkn-123" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", gotContentType)
	}
	if gotReq.Role != "planners" || gotReq.Workstream != "checkout" {
		t.Errorf("request payload mismatch: %+v", gotReq)
	}

	if resp.SessionID != "sess-1" {
		t.Errorf("expected session_id=sess-1, got %q", resp.SessionID)
	}
	if resp.Status != "queued" {
		t.Errorf("expected status=queued, got %q", resp.Status)
	}
}

func TestCreateSession_NoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"session_id": "sess-1", "status": "queued"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.CreateSession(context.Background(), &SessionRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("CreateSession() returned error: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no auth header, got %q", gotAuth)
	}
}

func TestCreateSession_EmptyPrompt(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://sessions.example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.CreateSession(context.Background(), &SessionRequest{})
	if err == nil {
		t.Fatal("expected error for empty prompt")
	}
	if !strings.Contains(err.Error(), "prompt cannot be empty") {
		t.Errorf("expected prompt error, got: %v", err)
	}
}

func TestCreateSession_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, Token: "wrong"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.CreateSession(context.Background(), &SessionRequest{Prompt: "p"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got: %v", err)
	}
}

func TestCreateSession_ServerErrorIncludesBodySnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "queue is full", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.CreateSession(context.Background(), &SessionRequest{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !strings.Contains(err.Error(), "status 503") {
		t.Errorf("expected status in error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "queue is full") {
		t.Errorf("expected body snippet in error, got: %v", err)
	}
}

func TestCreateSession_BadResponseJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.CreateSession(context.Background(), &SessionRequest{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error for unparseable response")
	}
	if !strings.Contains(err.Error(), "parse session response") {
		t.Errorf("expected parse error, got: %v", err)
	}
}

func TestPing(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() returned error: %v", err)
	}
	if gotPath != "/healthz" {
		t.Errorf("expected GET /healthz, got %s", gotPath)
	}
}

func TestPing_Unhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = client.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error for unhealthy service")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("expected status in error, got: %v", err)
	}
}

func TestSnippet_BoundsLongBodies(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := snippet([]byte(long))
	if len(got) != 203 {
		t.Errorf("expected 200 chars plus ellipsis, got %d chars", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected truncated snippet to end with ellipsis, got %q", got[len(got)-10:])
	}
}
