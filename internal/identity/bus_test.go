package identity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func receive(t *testing.T, ch <-chan SessionEvent) SessionEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session event")
		return SessionEvent{}
	}
}

func waitClosed(t *testing.T, ch <-chan SessionEvent) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel was not closed")
		}
	}
}

func TestMemoryBusFanOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewMemoryBus()
	ctx := context.Background()

	a, cancelA := bus.Subscribe(ctx)
	b, cancelB := bus.Subscribe(ctx)

	event := SessionEvent{Kind: SignedIn, UserID: "u1", At: time.Now()}
	require.NoError(t, bus.Publish(ctx, event))

	assert.Equal(t, event, receive(t, a))
	assert.Equal(t, event, receive(t, b))

	cancelA()
	waitClosed(t, a)

	require.NoError(t, bus.Publish(ctx, SessionEvent{Kind: SignedOut, UserID: "u1"}))
	assert.Equal(t, SignedOut, receive(t, b).Kind)

	cancelB()
	cancelB()
	waitClosed(t, b)
}

func TestMemoryBusContextCancelClosesChannel(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())

	ch, unsubscribe := bus.Subscribe(ctx)
	cancel()
	waitClosed(t, ch)

	unsubscribe()
	require.NoError(t, bus.Publish(context.Background(), SessionEvent{Kind: SignedIn, UserID: "u2"}))
}

func TestMemoryBusDropsForSlowSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewMemoryBus()
	ch, cancel := bus.Subscribe(context.Background())
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		require.NoError(t, bus.Publish(context.Background(), SessionEvent{Kind: SignedIn, UserID: "u"}))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestMemoryBusCloseThenCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewMemoryBus()
	ch, cancel := bus.Subscribe(context.Background())

	require.NoError(t, bus.Close())
	waitClosed(t, ch)
	cancel()
}

func TestRedisBusRoundTrip(t *testing.T) {
	server := miniredis.RunT(t)
	ctx := context.Background()

	bus, err := NewRedisBus(ctx, "redis://"+server.Addr(), "theoryboard:sessions")
	require.NoError(t, err)
	defer bus.Close()

	events, cancel := bus.Subscribe(ctx)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, bus.Publish(ctx, SessionEvent{Kind: SignedOut, UserID: "u9", At: at}))

	ev := receive(t, events)
	assert.Equal(t, SignedOut, ev.Kind)
	assert.Equal(t, "u9", ev.UserID)
	assert.True(t, at.Equal(ev.At))

	server.Publish("theoryboard:sessions", "{not json")
	require.NoError(t, bus.Publish(ctx, SessionEvent{Kind: SignedIn, UserID: "u10"}))
	assert.Equal(t, "u10", receive(t, events).UserID)

	cancel()
	waitClosed(t, events)
}

func TestNewRedisBusUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewRedisBus(ctx, "redis://127.0.0.1:1", "x")
	require.Error(t, err)

	_, err = NewRedisBus(ctx, "://bad", "x")
	require.Error(t, err)
}
