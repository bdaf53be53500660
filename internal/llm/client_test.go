package llm_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kasai-dev/pageforge/internal/config"
	"github.com/kasai-dev/pageforge/internal/llm"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

func newChatServer(t *testing.T, reply func(prompt string) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		answer := reply(req.Messages[0].Content)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": answer}},
			},
		})
	}))
}

func TestSummarizeReturnsOnePerTable(t *testing.T) {
	srv := newChatServer(t, func(prompt string) string { return "a short summary" })
	defer srv.Close()

	client := llm.NewClient(config.ServiceConfig{BaseURL: srv.URL, Model: "gpt"})

	summaries, err := client.Summarize([]string{"<table>1</table>", "<table>2</table>"}, "gpt", "", "doc")
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	for _, s := range summaries {
		if s != "a short summary" {
			t.Errorf("summary = %q, want %q", s, "a short summary")
		}
	}
}

func TestClassifyParsesYesNoPrefix(t *testing.T) {
	srv := newChatServer(t, func(prompt string) string {
		if strings.Contains(prompt, "substantive") {
			return "Yes, it is useful."
		}
		return "no"
	})
	defer srv.Close()

	client := llm.NewClient(config.ServiceConfig{BaseURL: srv.URL, Model: "gpt"})

	keep, err := client.Classify([]string{"a real summary"}, "gpt", "", "doc")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if len(keep) != 1 || !keep[0] {
		t.Errorf("keep = %v, want [true]", keep)
	}
}

func TestClassifyFalseOnNoAnswer(t *testing.T) {
	srv := newChatServer(t, func(prompt string) string { return "no, not useful" })
	defer srv.Close()

	client := llm.NewClient(config.ServiceConfig{BaseURL: srv.URL, Model: "gpt"})

	keep, err := client.Classify([]string{"a trivial summary"}, "gpt", "", "doc")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if len(keep) != 1 || keep[0] {
		t.Errorf("keep = %v, want [false]", keep)
	}
}

func TestSummarizeEndpointOverridesConfiguredHost(t *testing.T) {
	srv := newChatServer(t, func(prompt string) string { return "from override host" })
	defer srv.Close()

	// The client is built against an unreachable base URL; Summarize's
	// endpoint argument must be the only host actually contacted.
	client := llm.NewClient(config.ServiceConfig{BaseURL: "http://127.0.0.1:1", Model: "gpt"})

	summaries, err := client.Summarize([]string{"<table>1</table>"}, "gpt", srv.URL, "doc")
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if len(summaries) != 1 || summaries[0] != "from override host" {
		t.Errorf("summaries = %v, want [from override host]", summaries)
	}
}

func TestSummarizePropagatesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := llm.NewClient(config.ServiceConfig{BaseURL: srv.URL, Model: "gpt"})

	_, err := client.Summarize([]string{"<table></table>"}, "gpt", "", "doc")
	if err == nil {
		t.Fatal("expected an error when the chat endpoint fails")
	}
}
