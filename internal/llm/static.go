package llm

import "context"

// StaticBackend returns a fixed response or error on every call. It exists
// for tests and offline runs.
type StaticBackend struct {
	Response any
	Err      error
}

func (b *StaticBackend) Invoke(ctx context.Context, prompt string) (any, error) {
	if b.Err != nil {
		return nil, b.Err
	}
	return b.Response, nil
}
