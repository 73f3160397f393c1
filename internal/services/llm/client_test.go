package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestCompleteJSONSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"genre\":\"legal\"}"}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"})
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON failed: %v", err)
	}
	if content != `{"genre":"legal"}` {
		t.Errorf("content = %q", content)
	}
}

func TestCompleteJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"},
		WithRetryMaxAttempts(3),
		WithSleeper(func(time.Duration) {}),
	)
	if _, err := client.CompleteJSON(context.Background(), "s", "u"); err != nil {
		t.Fatalf("CompleteJSON failed after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestCompleteJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"},
		WithRetryMaxAttempts(5),
		WithSleeper(func(time.Duration) {}),
	)
	if _, err := client.CompleteJSON(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for 401")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 401)", got)
	}
}

func TestCompleteJSONRequiresCredentials(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:1", Model: "m"})
	if _, err := client.CompleteJSON(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected api key error")
	}
}

func TestCompleteJSONTimeoutMapsToError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"},
		WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}),
		WithRetryMaxAttempts(1),
	)
	if _, err := client.CompleteJSON(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	type payload struct {
		Genre string `json:"genre"`
	}
	cases := []struct {
		name  string
		input string
	}{
		{"bare", `{"genre":"legal"}`},
		{"fenced", "```json\n{\"genre\":\"legal\"}\n```"},
		{"prose wrapped", "Here is the analysis:\n{\"genre\":\"legal\"}\nHope it helps."},
	}
	for _, tc := range cases {
		var out payload
		if err := DecodeLLMJSON(tc.input, &out); err != nil {
			t.Errorf("%s: DecodeLLMJSON failed: %v", tc.name, err)
			continue
		}
		if out.Genre != "legal" {
			t.Errorf("%s: genre = %q", tc.name, out.Genre)
		}
	}

	var out payload
	if err := DecodeLLMJSON("no json at all", &out); err == nil {
		t.Error("expected error for non-JSON payload")
	}
	if err := DecodeLLMJSON("", &out); err == nil {
		t.Error("expected error for empty payload")
	}
}
