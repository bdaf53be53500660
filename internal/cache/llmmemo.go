package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// summaryTTL bounds how long a memoized table summary survives; long
// enough to cover a single large ingestion run re-touching the same
// document, short enough that a prompt change eventually takes effect
// without a manual flush.
const summaryTTL = 24 * time.Hour

// LLMMemo memoizes LLMClient.Summarize calls by the table HTML's content
// hash, so re-running ingestion after a crash (or against an unchanged
// document whose .table.json sidecar was lost) does not re-spend LLM calls
// on tables it has already summarized.
type LLMMemo struct {
	client rueidis.Client
}

// NewLLMMemo dials a Redis-compatible endpoint with rueidis.
func NewLLMMemo(host string, port int, password string, db int) (*LLMMemo, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%d", host, port)},
		Password:    password,
		SelectDB:    db,
	})
	if err != nil {
		return nil, fmt.Errorf("llmmemo: dial: %w", err)
	}
	return &LLMMemo{client: client}, nil
}

// Close releases the underlying connection pool.
func (m *LLMMemo) Close() {
	m.client.Close()
}

// Get returns a previously memoized summary for html, if any.
func (m *LLMMemo) Get(ctx context.Context, html string) (summary string, ok bool) {
	cmd := m.client.B().Get().Key(memoKey(html)).Build()
	resp := m.client.Do(ctx, cmd)
	if resp.Error() != nil {
		return "", false
	}
	s, err := resp.ToString()
	if err != nil {
		return "", false
	}
	return s, true
}

// Put memoizes summary for html.
func (m *LLMMemo) Put(ctx context.Context, html, summary string) error {
	cmd := m.client.B().Set().Key(memoKey(html)).Value(summary).ExSeconds(int64(summaryTTL.Seconds())).Build()
	return m.client.Do(ctx, cmd).Error()
}

func memoKey(html string) string {
	sum := sha256.Sum256([]byte(html))
	return fmt.Sprintf("llmmemo:table:%x", sum)
}
