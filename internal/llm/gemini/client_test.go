package gemini

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/ladi-press/manuscript-eval/internal/llm"
)

func TestClassifyErrorMapsServerErrors(t *testing.T) {
	cases := []struct {
		name      string
		code      int
		transient bool
	}{
		{"bad request is permanent", 400, false},
		{"unauthorized is permanent", 401, false},
		{"forbidden is permanent", 403, false},
		{"rate limit is transient", 429, true},
		{"server error is transient", 500, true},
		{"unavailable is transient", 503, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := classifyError(genai.APIError{Code: tc.code, Message: "upstream says no"})

			var apiErr *llm.APIError
			require.ErrorAs(t, mapped, &apiErr)
			assert.Equal(t, tc.code, apiErr.Status)
			assert.Equal(t, "upstream says no", apiErr.Message)
			assert.Equal(t, tc.transient, apiErr.Transient)
			assert.Equal(t, tc.transient, llm.IsTransient(mapped))
		})
	}
}

func TestClassifyErrorUnwrapsNestedServerErrors(t *testing.T) {
	wrapped := fmt.Errorf("generate content: %w", genai.APIError{Code: 403, Message: "key disabled"})

	mapped := classifyError(wrapped)

	var apiErr *llm.APIError
	require.ErrorAs(t, mapped, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
	assert.False(t, llm.IsTransient(mapped), "a 403 must not be retried")
}

func TestClassifyErrorPassesTransportErrorsThrough(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	mapped := classifyError(cause)

	assert.Same(t, cause, mapped)
	assert.True(t, llm.IsTransient(mapped), "transport failures stay retryable")
}
