package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"symbol not found", fmt.Errorf("get symbol AAPL: %w", ErrSymbolNotFound), KindNotFound},
		{"no data", fmt.Errorf("summary AAPL: %w", ErrNoData), KindNotFound},
		{"bad request", fmt.Errorf("%w: second symbol is required", ErrBadRequest), KindBadRequest},
		{"persistence", fmt.Errorf("upsert bar: %w: disk full", ErrPersistence), KindInternal},
		{"upstream", fmt.Errorf("fetch AAPL: %w", ErrUpstreamFetch), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestNewErrorPayload_KeepsNoDataDistinct(t *testing.T) {
	notFound := NewErrorPayload(fmt.Errorf("summary XYZ: %w", ErrSymbolNotFound))
	noData := NewErrorPayload(fmt.Errorf("summary XYZ: %w", ErrNoData))

	assert.Equal(t, KindNotFound, notFound.Error.Kind)
	assert.Equal(t, KindNotFound, noData.Error.Kind)
	assert.Equal(t, "SYMBOL_NOT_FOUND", notFound.Error.Code)
	assert.Equal(t, "NO_DATA", noData.Error.Code)
	assert.Contains(t, noData.Error.Message, "XYZ")
}
