package realtime

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type receivedEvent struct {
	event   string
	payload string
}

func newTestPubSub(t *testing.T) *RedisPubSub {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisPubSub(client, zap.NewNop())
}

func TestRedisPubSubRoundTrip(t *testing.T) {
	ps := newTestPubSub(t)
	sessionID := uuid.New()

	got := make(chan receivedEvent, 4)
	cancel, err := ps.SubscribeSession(sessionID, func(event string, payload []byte) {
		got <- receivedEvent{event, string(payload)}
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.PublishSessionEvent(sessionID, "spin_result", []byte(`{"remaining":3}`)))

	select {
	case ev := <-got:
		assert.Equal(t, "spin_result", ev.event)
		assert.JSONEq(t, `{"remaining":3}`, ev.payload)
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestRedisPubSubChannelIsolation(t *testing.T) {
	ps := newTestPubSub(t)
	subscribed, other := uuid.New(), uuid.New()

	got := make(chan receivedEvent, 4)
	cancel, err := ps.SubscribeSession(subscribed, func(event string, payload []byte) {
		got <- receivedEvent{event, string(payload)}
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.PublishSessionEvent(other, "spin_result", []byte(`{}`)))

	select {
	case ev := <-got:
		t.Fatalf("received event %q for a different session", ev.event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRedisPubSubCancelStopsDelivery(t *testing.T) {
	ps := newTestPubSub(t)
	sessionID := uuid.New()

	got := make(chan receivedEvent, 4)
	cancel, err := ps.SubscribeSession(sessionID, func(event string, payload []byte) {
		got <- receivedEvent{event, string(payload)}
	})
	require.NoError(t, err)

	cancel()
	time.Sleep(50 * time.Millisecond) // let the reader goroutine wind down

	require.NoError(t, ps.PublishSessionEvent(sessionID, "participant_joined", []byte(`{}`)))

	select {
	case ev := <-got:
		t.Fatalf("received event %q after cancel", ev.event)
	case <-time.After(100 * time.Millisecond):
	}
}
