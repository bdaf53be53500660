// Package llm is the default adapter for the LLMClient external
// collaborator: summarizing table HTML and classifying whether a table is
// worth retaining, against an OpenAI-compatible chat completion endpoint.
package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/kasai-dev/pageforge/internal/config"
	"github.com/kasai-dev/pageforge/internal/httpbase"
)

const (
	// DefaultTimeout covers chat-completion round trips; table
	// summarization prompts are short, so no override is needed.
	DefaultTimeout     = 60 * time.Second
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.2
	ServiceName        = "llm"
)

// LLMClient summarizes table HTML into prose and classifies which
// summaries describe a table worth keeping.
type LLMClient interface {
	Summarize(htmls []string, model, endpoint, tag string) ([]string, error)
	Classify(summaries []string, model, endpoint, tag string) ([]bool, error)
}

// Client implements LLMClient against an OpenAI-compatible chat completion
// API, reusing the pooled resty client wired for every service adapter.
type Client struct {
	http *httpbase.HTTPClient
}

var _ LLMClient = (*Client)(nil)

// NewClient constructs a Client. cfg.BaseURL is expected to be the
// endpoint's chat-completion base (e.g. "https://api.openai.com/v1").
func NewClient(cfg config.ServiceConfig) *Client {
	return &Client{http: httpbase.NewHTTPClient(ServiceName, cfg, DefaultTimeout)}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Summarize asks the model to summarize each table's HTML in order. tag
// identifies the calling document in logs; endpoint overrides the client's
// base URL for this call only.
func (c *Client) Summarize(htmls []string, model, endpoint, tag string) ([]string, error) {
	summaries := make([]string, len(htmls))
	for i, html := range htmls {
		prompt := fmt.Sprintf("Summarize the following HTML table in 1-2 sentences. Respond with only the summary.\n\n%s", html)
		resp, err := c.complete(model, endpoint, prompt)
		if err != nil {
			return nil, fmt.Errorf("llm: summarize table %d of %s: %w", i, tag, err)
		}
		summaries[i] = strings.TrimSpace(resp)
	}
	return summaries, nil
}

// Classify asks the model, for each summary, whether the table it
// describes is worth retaining in the index (e.g. not a decorative or
// near-empty table).
func (c *Client) Classify(summaries []string, model, endpoint, tag string) ([]bool, error) {
	keep := make([]bool, len(summaries))
	for i, summary := range summaries {
		prompt := fmt.Sprintf("Is the following table summary substantive enough to keep in a search index? Answer only yes or no.\n\n%s", summary)
		resp, err := c.complete(model, endpoint, prompt)
		if err != nil {
			return nil, fmt.Errorf("llm: classify table %d of %s: %w", i, tag, err)
		}
		keep[i] = strings.HasPrefix(strings.ToLower(strings.TrimSpace(resp)), "y")
	}
	return keep, nil
}

// complete issues one chat-completion call. endpoint, when set, resolves to
// a different chat-completion host than the client was constructed with —
// mirroring get_model_endpoints() picking an LLM endpoint per run rather
// than a single endpoint fixed for the process lifetime.
func (c *Client) complete(model, endpoint, prompt string) (string, error) {
	req := chatRequest{
		Model:       model,
		Messages:    []message{{Role: "user", Content: prompt}},
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
	var resp chatResponse
	if err := c.http.Post("/chat/completions", req, &resp, endpoint); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
