package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		kind ErrKind
		is   func(error) bool
	}{
		{"not found", ErrKindNotFound, IsNotFound},
		{"timeout", ErrKindTimeout, IsTimeout},
		{"connection", ErrKindConnectionFailed, IsConnectionFailed},
		{"query", ErrKindQueryFailed, IsQueryFailed},
		{"input", ErrKindInvalidInput, IsInvalidInput},
		{"permission", ErrKindPermissionDenied, IsPermissionDenied},
		{"source", ErrKindSourceUnavailable, IsSourceUnavailable},
		{"backend", ErrKindBackend, IsBackend},
		{"execution", ErrKindExecution, IsExecution},
		{"rejected", ErrKindRejected, IsRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("outer: %w", New(tt.kind, "boom"))
			assert.True(t, tt.is(err))
			assert.False(t, tt.is(errors.New("plain")))
		})
	}
}

func TestKindOf_OutermostWins(t *testing.T) {
	inner := New(ErrKindQueryFailed, "bad sql")
	outer := Wrap(ErrKindExecution, "SQL Error", inner)

	assert.Equal(t, ErrKindExecution, KindOf(outer))
	assert.Equal(t, ErrKindUnknown, KindOf(nil))
}

func TestError_Format(t *testing.T) {
	assert.Equal(t, "[rejected] nope", New(ErrKindRejected, "nope").Error())
	assert.Equal(t,
		"[backend_error] generation failed: quota",
		Wrap(ErrKindBackend, "generation failed", errors.New("quota")).Error(),
	)
}

func TestDisplay(t *testing.T) {
	raw := errors.New("Error 1146 (42S02): Table 'shop.nope' doesn't exist")
	err := Wrap(ErrKindExecution, "SQL Error", Wrap(ErrKindQueryFailed, "query failed", raw))

	assert.Equal(t, "SQL Error: Error 1146 (42S02): Table 'shop.nope' doesn't exist", Display(err))
	assert.Equal(t, "only reads", Display(New(ErrKindRejected, "only reads")))
	assert.Equal(t, "plain", Display(errors.New("plain")))
	assert.Empty(t, Display(nil))
}
