package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := E(KindConflict, "offer is no longer available")
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindNotFound))
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("step complete_offer: %w", E(KindState, "offer is not in a payable state"))
	assert.Equal(t, KindState, KindOf(err))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}

func TestEw_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Ew(KindDependency, "failed to ensure creator profile", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "DependencyError")
	assert.Contains(t, err.Error(), "connection refused")
}
