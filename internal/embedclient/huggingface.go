package embedclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dryscan/dryscan/internal/dryerrors"
)

const huggingFaceEndpoint = "https://api-inference.huggingface.co/pipeline/feature-extraction/sentence-transformers/all-MiniLM-L6-v2"

// huggingFace routes embedding requests to the Hugging Face Inference API.
type huggingFace struct {
	cfg    Config
	client *http.Client
}

func newHuggingFace(cfg Config) *huggingFace {
	return &huggingFace{cfg: cfg, client: pooledClient()}
}

// Embed implements Client. It returns nil without an error when code
// exceeds the configured context length (spec.md §4.10: oversize is not
// an error).
func (h *huggingFace) Embed(ctx context.Context, code string) ([]float32, error) {
	if len(code) > h.cfg.ContextLength {
		return nil, nil
	}

	headers := map[string]string{}
	if h.cfg.APIToken != "" {
		headers["Authorization"] = "Bearer " + h.cfg.APIToken
	}
	body := map[string]any{
		"inputs":  code,
		"options": map[string]any{"wait_for_model": true},
	}

	respBody, err := postJSON(ctx, h.client, huggingFaceEndpoint, headers, body)
	if err != nil {
		return nil, &dryerrors.EmbeddingUnavailableError{Source: "huggingface", Underlying: err}
	}

	var vec []float32
	if err := json.Unmarshal(respBody, &vec); err == nil {
		return vec, nil
	}

	// Some HF feature-extraction models return a nested [][]float32 (one
	// row per token); mean-pool to a single vector in that case.
	var matrix [][]float32
	if err := json.Unmarshal(respBody, &matrix); err != nil {
		return nil, &dryerrors.EmbeddingUnavailableError{Source: "huggingface", Underlying: err}
	}
	return meanPool(matrix), nil
}

func meanPool(matrix [][]float32) []float32 {
	if len(matrix) == 0 {
		return nil
	}
	dims := len(matrix[0])
	out := make([]float32, dims)
	for _, row := range matrix {
		for i, v := range row {
			if i < dims {
				out[i] += v
			}
		}
	}
	n := float32(len(matrix))
	for i := range out {
		out[i] /= n
	}
	return out
}
