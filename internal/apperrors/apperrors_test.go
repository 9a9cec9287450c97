package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CapturesStack(t *testing.T) {
	err := New(KindNotFound, "application a1 not found", nil)
	assert.NotEmpty(t, err.StackTrace())
	assert.Equal(t, "NOT_FOUND: application a1 not found", err.Error())
}

func TestNew_WrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(KindUpdateFailed, "update status", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NotEmpty(t, err.StackTrace())
}

func TestIs_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("bulk: %w", InvalidDate("in the past"))

	assert.True(t, Is(err, KindInvalidDate))
	assert.False(t, Is(err, KindNotFound))
	assert.False(t, Is(nil, KindInvalidDate))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestMissingIdentifiers_NamesEveryField(t *testing.T) {
	err := MissingIdentifiers(FieldApplicantID, FieldApplicationID)

	require.Equal(t, KindMissingIdentifiers, err.Kind)
	assert.Equal(t, []string{FieldApplicantID, FieldApplicationID}, err.Fields)
	assert.Contains(t, err.Error(), "applicant_id")
	assert.Contains(t, err.Error(), "application_id")
}

func TestUserMessage(t *testing.T) {
	withServer := Remote(KindUpdateFailed, "update failed", "application is locked", errors.New("409"))
	assert.Equal(t, "application is locked", UserMessage(withServer, "fallback"))

	noServer := Remote(KindUpdateFailed, "update failed", "", errors.New("500"))
	assert.Equal(t, "update failed", UserMessage(noServer, "fallback"))

	assert.Equal(t, "fallback", UserMessage(errors.New("boom"), "fallback"))
}
