package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndWrap(t *testing.T) {
	err := New(CodeValidation, "name is required")
	assert.Equal(t, CodeValidation, err.Code())
	assert.Equal(t, "name is required", err.Message())
	assert.Equal(t, "VALIDATION_ERROR: name is required", err.Error())
	assert.Nil(t, err.Unwrap())

	cause := stdErrors.New("disk full")
	wrapped := Wrap(CodeStorage, cause, "save record")
	assert.Equal(t, CodeStorage, wrapped.Code())
	assert.ErrorIs(t, wrapped, cause)
}

func TestWrap_nilCause(t *testing.T) {
	err := Wrap(CodeParse, nil, "parse csv")
	assert.Equal(t, CodeParse, err.Code())
	assert.Nil(t, err.Unwrap())
}

func TestAs_findsNestedError(t *testing.T) {
	inner := New(CodeConstraint, "client code already in use")
	outer := fmt.Errorf("import failed: %w", inner)

	typed := As(outer)
	require.NotNil(t, typed)
	assert.Equal(t, CodeConstraint, typed.Code())

	assert.Nil(t, As(stdErrors.New("plain")))
	assert.Nil(t, As(nil))
}

func TestHasCode(t *testing.T) {
	err := New(CodeNotFound, "record not found")
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeValidation))
	assert.False(t, HasCode(stdErrors.New("plain"), CodeNotFound))
}

func TestWithDetails(t *testing.T) {
	details := map[string]string{"clientCode": "EC-1-AAAAA"}
	err := New(CodeConstraint, "client code already in use").WithDetails(details)
	assert.Equal(t, details, err.Details())
}

func TestMetadataFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, MetadataFor(CodeValidation).HTTPStatus)
	assert.Equal(t, http.StatusConflict, MetadataFor(CodeConstraint).HTTPStatus)
	assert.Equal(t, http.StatusNotFound, MetadataFor(CodeNotFound).HTTPStatus)
	assert.Equal(t, http.StatusServiceUnavailable, MetadataFor(CodeStorage).HTTPStatus)
	assert.True(t, MetadataFor(CodeStorage).Retryable)

	// Unknown codes degrade to the internal error metadata.
	assert.Equal(t, http.StatusInternalServerError, MetadataFor(Code("MYSTERY")).HTTPStatus)
}
