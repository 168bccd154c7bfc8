package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	base := New(CodeNotFound, "record not found")

	assert.True(t, HasCode(base, CodeNotFound))
	assert.False(t, HasCode(base, CodeConflict))
	assert.False(t, HasCode(nil, CodeNotFound))
}

func TestHasCodeThroughWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(cause, CodeUnavailable, "store unreachable")
	outer := fmt.Errorf("lookup failed: %w", wrapped)

	assert.True(t, HasCode(outer, CodeUnavailable))
	assert.True(t, errors.Is(outer, cause))
}

func TestHasCodeFindsInnerCode(t *testing.T) {
	inner := New(CodeConflict, "duplicate issuance id")
	outer := Wrap(inner, CodeInternal, "save failed")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeConflict))
}

func TestWrapNil(t *testing.T) {
	require.Nil(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(New(CodeValidation, "bad email")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:   http.StatusBadRequest,
		CodeValidation:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeTimeout:      http.StatusGatewayTimeout,
		CodeUnavailable:  http.StatusServiceUnavailable,
		CodeInternal:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "bad email", Message(New(CodeValidation, "bad email")))
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Equal(t, "", Message(nil))
}
