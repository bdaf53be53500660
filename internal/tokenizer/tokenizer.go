// Package tokenizer is the default adapter for the Tokenizer external
// collaborator: counting tokens in a sentence against an embedding
// endpoint's vocabulary.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens in text for a given embedding endpoint.
type Tokenizer interface {
	Count(text string, endpoint string) (int, error)
}

// TiktokenCounter counts tokens with a BPE encoding, cached per endpoint
// after first use. Every endpoint uses the fallback encoding, cl100k_base;
// no per-endpoint encoding mapping is applied.
type TiktokenCounter struct {
	mu        sync.Mutex
	encodings map[string]*tiktoken.Tiktoken
	fallback  string
}

// NewTiktokenCounter constructs a counter with cl100k_base as the fallback
// encoding.
func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{
		encodings: map[string]*tiktoken.Tiktoken{},
		fallback:  "cl100k_base",
	}
}

// Count returns the number of tokens text would occupy against endpoint's
// encoding.
func (c *TiktokenCounter) Count(text string, endpoint string) (int, error) {
	enc, err := c.encodingFor(endpoint)
	if err != nil {
		return 0, fmt.Errorf("tokenizer: %w", err)
	}
	return len(enc.Encode(text, nil, nil)), nil
}

func (c *TiktokenCounter) encodingFor(endpoint string) (*tiktoken.Tiktoken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if enc, ok := c.encodings[endpoint]; ok {
		return enc, nil
	}

	enc, err := tiktoken.GetEncoding(c.fallback)
	if err != nil {
		return nil, err
	}
	c.encodings[endpoint] = enc
	return enc, nil
}
