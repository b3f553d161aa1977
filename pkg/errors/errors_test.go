package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	err := fmt.Errorf("outer: %w", Clone(ErrNotFound, "program not found"))

	appErr := FromError(err)

	assert.Equal(t, ErrNotFound.Code, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "program not found", appErr.Message)
}

func TestFromErrorMapsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert user: %w", &pq.Error{Code: "23505", Constraint: "users_email_key"})

	appErr := FromError(err)

	assert.Equal(t, ErrConflict.Code, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "users_email_key", ConstraintName(err))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestIsMatchesOnCode(t *testing.T) {
	wrapped := Wrap(errors.New("db"), ErrDuplicateAttendance.Code, ErrDuplicateAttendance.Status, "dup")

	assert.True(t, errors.Is(wrapped, ErrDuplicateAttendance))
	assert.False(t, errors.Is(wrapped, ErrConflict))
}

func TestUpstreamFailuresUseServerErrorStatus(t *testing.T) {
	wrapped := Wrap(errors.New("smtp down"), ErrUpstream.Code, ErrUpstream.Status, "failed to send reset code")

	assert.Equal(t, http.StatusInternalServerError, FromError(wrapped).Status)
	assert.False(t, errors.Is(wrapped, ErrInternal))
}
