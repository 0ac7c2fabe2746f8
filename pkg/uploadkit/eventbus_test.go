package uploadkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusDeliversInRegistrationOrder(t *testing.T) {
	bus := NewEventBus(nil)
	var order []int

	bus.On("x", func(payload any) { order = append(order, 1) })
	bus.On("x", func(payload any) { order = append(order, 2) })
	bus.On("x", func(payload any) { order = append(order, 3) })

	bus.Emit("x", nil)

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(nil)
	calls := 0
	unsubscribe := bus.On("x", func(payload any) { calls++ })

	bus.Emit("x", nil)
	unsubscribe()
	bus.Emit("x", nil)

	assert.Equal(t, 1, calls)
}

func TestEventBusPanicDoesNotAbortDelivery(t *testing.T) {
	bus := NewEventBus(nil)
	secondCalled := false

	bus.On("x", func(payload any) { panic("boom") })
	bus.On("x", func(payload any) { secondCalled = true })

	require.NotPanics(t, func() { bus.Emit("x", nil) })
	assert.True(t, secondCalled)
}

func TestEventBusScopesDistinctEventNames(t *testing.T) {
	bus := NewEventBus(nil)
	var gotA, gotB []any

	bus.On("plugin-a:x", func(payload any) { gotA = append(gotA, payload) })
	bus.On("plugin-b:x", func(payload any) { gotB = append(gotB, payload) })

	bus.Emit("plugin-a:x", "only-a")

	assert.Equal(t, []any{"only-a"}, gotA)
	assert.Empty(t, gotB)
}
