package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad"), ErrorTypeValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("page"), ErrorTypeNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("dup"), ErrorTypeConflict, http.StatusConflict},
		{"unauthorized", NewUnauthorizedError(""), ErrorTypeUnauthorized, http.StatusUnauthorized},
		{"database", NewDatabaseError("put", fmt.Errorf("boom")), ErrorTypeDatabase, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.StackTrace)
		})
	}
}

func TestHelpers(t *testing.T) {
	base := NewValidationError("node is locked").WithCode(CodeNodeLocked)
	wrapped := fmt.Errorf("assign: %w", base)

	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.True(t, HasCode(wrapped, CodeNodeLocked))
	assert.False(t, HasCode(fmt.Errorf("plain"), CodeNodeLocked))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ctx"))

	err := Wrap(fmt.Errorf("disk full"), "store save")
	app := GetAppError(err)
	require.NotNil(t, app)
	assert.Equal(t, ErrorTypeInternal, app.Type)
	assert.Contains(t, app.Error(), "disk full")

	nf := Wrap(NewNotFoundError("item"), "fuse")
	assert.True(t, IsNotFound(nf))
	assert.Equal(t, "fuse: item not found", GetAppError(nf).Message)
}

func TestWithDetail(t *testing.T) {
	err := NewConflictError("taken").WithDetail("nodeId", "hub")
	assert.Equal(t, "hub", err.Details["nodeId"])
}
