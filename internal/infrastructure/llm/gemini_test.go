package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"NewsRelay/internal/config"
)

func TestNewGeminiClientRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), config.GeminiConfig{Model: "gemini-1.5-pro"})
	require.Error(t, err)
}

func TestIsRateLimit(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "googleapi 429", err: &googleapi.Error{Code: 429, Message: "Resource has been exhausted"}, want: true},
		{name: "wrapped googleapi 429", err: fmt.Errorf("generate: %w", &googleapi.Error{Code: 429}), want: true},
		{name: "googleapi 500", err: &googleapi.Error{Code: 500}, want: false},
		{name: "quota text", err: errors.New("googleapi: Error 429: quota exceeded for model"), want: true},
		{name: "plain error", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimit(tt.err))
		})
	}
}
