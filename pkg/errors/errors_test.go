package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(cause, ErrInternal.Code, ErrInternal.Status, "failed to list notes")

	assert.Equal(t, "INTERNAL_ERROR", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to list notes")
	assert.Contains(t, err.Error(), "boom")
}

func TestFromError(t *testing.T) {
	typed := Clone(ErrNotFound, "note not found")
	assert.Same(t, typed, FromError(typed))

	plain := FromError(stderrors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, ErrInternal.Status, plain.Status)

	assert.Nil(t, FromError(nil))
}

func TestCloneDoesNotMutateSentinel(t *testing.T) {
	clone := Clone(ErrConflict, "email already registered")
	assert.Equal(t, "email already registered", clone.Message)
	assert.Equal(t, "conflict", ErrConflict.Message)
	assert.Equal(t, ErrConflict.Code, clone.Code)
}

func TestValidationCarriesFieldDetails(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
	}
	verr := validator.New().Struct(payload{Email: "nope"})
	require.Error(t, verr)

	err := Validation(verr, "invalid payload")
	assert.Equal(t, ErrValidation.Code, err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.Contains(t, err.Details["Email"], "email")
}

func TestValidationNonValidatorError(t *testing.T) {
	err := Validation(stderrors.New("bad json"), "")
	assert.Equal(t, ErrValidation.Message, err.Message)
	assert.Empty(t, err.Details)
}
