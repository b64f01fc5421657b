package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type capturedChatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

func TestGenerateReturnsFirstChoice(t *testing.T) {
	var captured capturedChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"生成的行程"}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-3.5-turbo", "openai")
	got, err := client.Generate(context.Background(), "规划一次旅行", PlannerSystemRole, GenerateOptions)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "生成的行程" {
		t.Fatalf("content = %q", got)
	}

	if captured.Model != "gpt-3.5-turbo" {
		t.Fatalf("model = %q", captured.Model)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", captured.Messages)
	}
	if captured.Temperature != 0.7 || captured.MaxTokens != 4000 {
		t.Fatalf("options = %v / %v", captured.Temperature, captured.MaxTokens)
	}
}

func TestGenerateSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-3.5-turbo", "openai")
	_, err := client.Generate(context.Background(), "prompt", PlannerSystemRole, GenerateOptions)

	var remoteErr *RemoteServiceError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("error = %v, want *RemoteServiceError", err)
	}
	if remoteErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d", remoteErr.StatusCode)
	}
	if remoteErr.Message != "rate limit exceeded" {
		t.Fatalf("message = %q", remoteErr.Message)
	}
}

func TestGenerateDoesNotRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"upstream exploded"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-3.5-turbo", "openai")
	if _, err := client.Generate(context.Background(), "prompt", PlannerSystemRole, GenerateOptions); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestGenerateWrapsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := NewClient(server.URL, "test-key", "gpt-3.5-turbo", "openai")
	_, err := client.Generate(context.Background(), "prompt", PlannerSystemRole, GenerateOptions)

	var remoteErr *RemoteServiceError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("error = %v, want *RemoteServiceError", err)
	}
	if remoteErr.Unwrap() == nil {
		t.Fatalf("transport error should be wrapped")
	}
}

func TestGenerateRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-3.5-turbo", "openai")
	if _, err := client.Generate(context.Background(), "prompt", PlannerSystemRole, GenerateOptions); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
