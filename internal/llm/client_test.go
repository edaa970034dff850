package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkstack/papyr/internal/config"
)

func testConfig(baseURL string) *config.LLMConfig {
	return &config.LLMConfig{
		BaseURL:        baseURL,
		Model:          "mistral-7b-instruct-v0.3",
		Temperature:    0.7,
		MaxTokens:      500,
		TimeoutSeconds: 5,
	}
}

func TestCompleteSendsFixedParameters(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completions" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method: got %q", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("authorization: got %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]string{{"text": "generated answer"}},
		})
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), "secret")
	answer, err := client.Complete(context.Background(), "the prompt")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "generated answer" {
		t.Errorf("answer: got %q", answer)
	}
	if got.Model != "mistral-7b-instruct-v0.3" {
		t.Errorf("model: got %q", got.Model)
	}
	if got.Prompt != "the prompt" {
		t.Errorf("prompt: got %q", got.Prompt)
	}
	if got.Temperature != 0.7 {
		t.Errorf("temperature: got %f", got.Temperature)
	}
	if got.MaxTokens != 500 {
		t.Errorf("max_tokens: got %d", got.MaxTokens)
	}
}

func TestCompleteNoAuthHeaderWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]string{{"text": "ok"}},
		})
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), "")
	if _, err := client.Complete(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
}

func TestCompleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), "")
	if _, err := client.Complete(context.Background(), "p"); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []string{}})
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), "")
	if _, err := client.Complete(context.Background(), "p"); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestCompleteUnreachableEndpoint(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:1"), "")
	if _, err := client.Complete(context.Background(), "p"); err == nil {
		t.Fatal("expected error when the endpoint is unreachable")
	}
}
