// Package embedding is the client the vector store uses to turn a
// CombinedDocument's page content into a vector before insertion.
package embedding

import (
	"fmt"

	"github.com/kasai-dev/pageforge/internal/config"
	"github.com/kasai-dev/pageforge/internal/httpbase"
)

// Embedder creates an embedding vector for a piece of text.
type Embedder interface {
	Embed(model, text string) ([]float32, error)
}

// Client implements Embedder against an OpenAI-compatible embeddings
// endpoint.
type Client struct {
	http *httpbase.HTTPClient
}

var _ Embedder = (*Client)(nil)

// NewClient constructs a Client.
func NewClient(cfg config.ServiceConfig) *Client {
	return &Client{http: httpbase.NewHTTPClient("embedding", cfg, httpbase.DefaultTimeout)}
}

type request struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	EncodingFormat string `json:"encoding_format"`
}

type data struct {
	Embedding []float32 `json:"embedding"`
}

type response struct {
	Data []data `json:"data"`
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(model, text string) ([]float32, error) {
	req := request{Model: model, Input: text, EncodingFormat: "float"}
	var resp response
	if err := c.http.Post("/embeddings", req, &resp, ""); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding: empty response for model %s", model)
	}
	return resp.Data[0].Embedding, nil
}
