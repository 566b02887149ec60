// Package embedclient implements the embedding provider contract of
// spec.md §4.10/§6: embed(code) -> vector | nil, routed to either the
// Hugging Face Inference API or a generic HTTP endpoint.
package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dryscan/dryscan/internal/dryerrors"
)

// DefaultContext matches the teacher's own embedding-context default
// exactly and is spec.md §6's contextLength default.
const DefaultContext = 2048

// Config selects and configures the embedding provider.
type Config struct {
	Source        string // "huggingface" or an http(s) URL
	ContextLength int
	APIToken      string // Hugging Face bearer token, if required
}

// Client is the embedding client: embed(code) -> vector | nil.
type Client interface {
	Embed(ctx context.Context, code string) ([]float32, error)
}

// New constructs the client for cfg.Source, per spec.md §4.10: the literal
// "huggingface" routes to the external inference API; an http(s) URL
// routes to a local/remote HTTP embedding endpoint; any other value is a
// configuration error.
func New(cfg Config) (Client, error) {
	if cfg.ContextLength <= 0 {
		cfg.ContextLength = DefaultContext
	}
	switch {
	case cfg.Source == "huggingface":
		return newHuggingFace(cfg), nil
	case isHTTPURL(cfg.Source):
		return newHTTPProvider(cfg), nil
	default:
		return nil, &dryerrors.ConfigInvalidError{Field: "embeddingSource", Underlying: fmt.Errorf("unrecognized embeddingSource %q", cfg.Source)}
	}
}

func isHTTPURL(s string) bool {
	return len(s) >= 7 && (s[:7] == "http://" || (len(s) >= 8 && s[:8] == "https://"))
}

// pooledClient builds an *http.Client the way the teacher's ollama
// embedder does: pooled transport, no client-level timeout. A request is
// bounded only by the deadline, if any, of the context passed to Embed.
func pooledClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        16,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     10 * time.Second,
		},
	}
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding provider returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
