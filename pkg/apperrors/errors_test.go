package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageIncludesKindAndOp(t *testing.T) {
	err := Transformation("scale:income", "column %q not found", "income")
	assert.Contains(t, err.Error(), "transformation")
	assert.Contains(t, err.Error(), "scale:income")
	assert.Contains(t, err.Error(), `"income"`)
}

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	base := Validation("test size %v outside (0,1)", 1.5)
	wrapped := fmt.Errorf("create job: %w", base)

	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsTraining(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Storage(cause, "save %q", "out.csv")
	assert.ErrorIs(t, err, cause)
}
