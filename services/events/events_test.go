package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversInEmissionOrder(t *testing.T) {
	b := New()
	var received []Kind
	b.Subscribe(func(e Event) { received = append(received, e.Kind) })

	b.Emit(Event{Kind: KindTaskCreated})
	b.Emit(Event{Kind: KindTaskStarted})
	b.Emit(Event{Kind: KindTaskCompleted})

	require.Len(t, received, 3)
	assert.Equal(t, []Kind{KindTaskCreated, KindTaskStarted, KindTaskCompleted}, received)
}

func TestBus_MultipleSubscribersAllReceive(t *testing.T) {
	b := New()
	var a, c int
	b.Subscribe(func(e Event) { a++ })
	b.Subscribe(func(e Event) { c++ })

	b.Emit(Event{Kind: KindDaemonHeartbeat})

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, c)
}

func TestBus_StampsTimestampWhenUnset(t *testing.T) {
	b := New()
	var got Event
	b.Subscribe(func(e Event) { got = e })
	b.Emit(Event{Kind: KindDaemonStarted})
	assert.False(t, got.Timestamp.IsZero())
}
