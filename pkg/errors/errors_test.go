package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	err := Clone(ErrInvalidInterval, "session s1: end before start")
	wrapped := fmt.Errorf("detect: %w", err)

	assert.True(t, errors.Is(wrapped, ErrInvalidInterval))
	assert.False(t, errors.Is(wrapped, ErrStaleApproval))
	assert.Equal(t, http.StatusUnprocessableEntity, FromError(wrapped).Status)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, "internal server error: boom", appErr.Error())
}

func TestCloneKeepsOriginalMessageWhenEmpty(t *testing.T) {
	clone := Clone(ErrInvalidTransition, "")
	assert.Equal(t, ErrInvalidTransition.Message, clone.Message)
	assert.NotSame(t, ErrInvalidTransition, clone)
}
