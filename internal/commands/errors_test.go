package commands

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsError(t *testing.T) {
	cause := errors.New("socket closed")

	plain := AsError(cause)
	assert.Equal(t, KindBackend, plain.Kind)
	assert.ErrorIs(t, plain, cause)
	assert.Zero(t, plain.PlaceholderID)

	wrapped := AsError(fmt.Errorf("relay: %w", InvalidInput("usage")))
	assert.Equal(t, KindInvalidInput, wrapped.Kind)
	assert.Equal(t, "usage", wrapped.Usage)

	withPlaceholder := AsError(BackendError(cause, 42))
	assert.Equal(t, 42, withPlaceholder.PlaceholderID)
	assert.Equal(t, "backend: socket closed", withPlaceholder.Error())
}

func TestEvent(t *testing.T) {
	e := Event{ChatType: "supergroup", ArgsText: " POE_COOKIE  abc ", Username: "neo"}

	assert.True(t, e.IsGroup())
	assert.Equal(t, []string{"POE_COOKIE", "abc"}, e.Args())
	assert.Equal(t, "neo", e.Nickname())

	e.FirstName = "Thomas"
	assert.Equal(t, "Thomas", e.Nickname())
	assert.False(t, Event{ChatType: "private"}.IsGroup())
	assert.Equal(t, "denied", Denied().Error())
}
