package embedclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dryscan/dryscan/internal/dryerrors"
)

// httpProvider routes embedding requests to a local/remote HTTP endpoint,
// the generic case in spec.md §4.10 when embeddingSource is an http(s)
// URL. The endpoint is expected to accept {"code": "..."} and return a
// JSON array of floats.
type httpProvider struct {
	endpoint string
	cfg      Config
	client   *http.Client
}

func newHTTPProvider(cfg Config) *httpProvider {
	return &httpProvider{endpoint: cfg.Source, cfg: cfg, client: pooledClient()}
}

func (p *httpProvider) Embed(ctx context.Context, code string) ([]float32, error) {
	if len(code) > p.cfg.ContextLength {
		return nil, nil
	}

	respBody, err := postJSON(ctx, p.client, p.endpoint, nil, map[string]any{"code": code})
	if err != nil {
		return nil, &dryerrors.EmbeddingUnavailableError{Source: p.endpoint, Underlying: err}
	}

	var direct []float32
	if err := json.Unmarshal(respBody, &direct); err == nil {
		return direct, nil
	}

	var wrapped struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(respBody, &wrapped); err != nil {
		return nil, &dryerrors.EmbeddingUnavailableError{Source: p.endpoint, Underlying: err}
	}
	return wrapped.Embedding, nil
}
