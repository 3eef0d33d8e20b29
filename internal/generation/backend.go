// Package generation turns a prompt plus a natural-language question into a
// SQL statement using a hosted model.
package generation

import (
	"context"

	"github.com/koustreak/askdb/internal/prompt"
)

// Backend produces a statement for query, grounded on p. It performs one
// request with no retry. Every failure carries errs.ErrKindBackend and the
// returned text is whitespace-trimmed and otherwise unmodified.
type Backend interface {
	Generate(ctx context.Context, p prompt.Prompt, query string) (string, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, p prompt.Prompt, query string) (string, error)

func (f BackendFunc) Generate(ctx context.Context, p prompt.Prompt, query string) (string, error) {
	return f(ctx, p, query)
}
