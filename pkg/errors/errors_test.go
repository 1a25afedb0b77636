package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorIs(t *testing.T) {
	tests := []struct {
		name   string
		status int
		target error
		want   bool
	}{
		{"rate limited", 429, ErrRateLimited, true},
		{"server error", 503, ErrRemoteUnavailable, true},
		{"not found", 404, ErrNotFound, true},
		{"client error is not rate limit", 400, ErrRateLimited, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &APIError{StatusCode: tt.status, Endpoint: "/addresses"}
			assert.Equal(t, tt.want, Is(err, tt.target))
		})
	}
}

func TestConflictError(t *testing.T) {
	dup := &ConflictError{Kind: ConflictDuplicateValue, Key: "encompass_id", Value: "C1"}
	assert.True(t, IsDuplicateExternalID(dup))
	assert.False(t, IsInvalidExternalIDKey(dup))

	bad := &ConflictError{Kind: ConflictInvalidKey, Key: "Bad Key!"}
	assert.True(t, IsInvalidExternalIDKey(bad))
	assert.False(t, IsDuplicateExternalID(bad))
}

func TestConflictErrorUnwrap(t *testing.T) {
	inner := New("boom")
	err := &ConflictError{Kind: ConflictDuplicateValue, Err: inner}
	assert.True(t, Is(err, inner))

	wrapped := fmt.Errorf("apply failed: %w", err)
	assert.True(t, IsDuplicateExternalID(wrapped))
}

func TestWrapHelpersNilPassthrough(t *testing.T) {
	assert.NoError(t, WrapIO("open", "state.json", nil))
	assert.NoError(t, WrapParse("csv", "roster.csv", nil))
	assert.NoError(t, WrapAPI("/tags", 500, nil))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "Latitude", Value: "999", Message: "out of range"}
	assert.Contains(t, err.Error(), "Latitude")
	assert.True(t, Is(err, ErrInvalidInput))
}
