package embedclient

import "context"

// Stub is a deterministic, network-free Client for tests: each code
// string maps to an explicitly configured vector, with Default used for
// anything not registered. Oversize codes (per ContextLength) still
// return nil, matching real providers' skip behavior.
type Stub struct {
	ContextLength int
	Vectors       map[string][]float32
	Default       []float32
}

func (s *Stub) Embed(_ context.Context, code string) ([]float32, error) {
	limit := s.ContextLength
	if limit <= 0 {
		limit = DefaultContext
	}
	if len(code) > limit {
		return nil, nil
	}
	if v, ok := s.Vectors[code]; ok {
		return v, nil
	}
	return s.Default, nil
}
