package realtime

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSchedulerFiresOnce(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	defer s.Shutdown()

	var fired atomic.Int32
	s.Schedule(20*time.Millisecond, func() { fired.Add(1) })

	assert.Equal(t, int32(0), fired.Load(), "must not fire before the delay")
	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "a task fires exactly once")
}

func TestShutdownCancelsPending(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	var fired atomic.Int32
	s.Schedule(30*time.Millisecond, func() { fired.Add(1) })
	s.Shutdown()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load(), "shutdown must stop pending timers")

	// New work after shutdown is dropped.
	s.Schedule(time.Millisecond, func() { fired.Add(1) })
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

// A client that subscribes after a selection is recorded but before the
// reveal window elapses still receives the live announcement.
func TestLateSubscriberGetsDelayedAnnouncement(t *testing.T) {
	hub := newTestHub()
	s := NewScheduler(zap.NewNop())
	defer s.Shutdown()
	sessionID := uuid.New()

	s.Schedule(50*time.Millisecond, func() {
		hub.Publish(sessionID, "spin_result", map[string]int{"remaining": 1})
	})

	// Subscribe inside the window.
	c := newTestClient(sessionID, 16)
	hub.Register(c)
	drain(c)

	require.Eventually(t, func() bool {
		for _, msg := range drain(c) {
			if msg.Event == "spin_result" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

// A client that connects after the reveal window has passed gets nothing
// retroactively; it must re-fetch state over REST.
func TestNoReplayForMissedAnnouncements(t *testing.T) {
	hub := newTestHub()
	s := NewScheduler(zap.NewNop())
	defer s.Shutdown()
	sessionID := uuid.New()

	s.Schedule(10*time.Millisecond, func() {
		hub.Publish(sessionID, "spin_result", map[string]int{"remaining": 1})
	})
	time.Sleep(50 * time.Millisecond) // window passes with nobody connected

	c := newTestClient(sessionID, 16)
	hub.Register(c)

	time.Sleep(30 * time.Millisecond)
	for _, msg := range drain(c) {
		assert.NotEqual(t, "spin_result", msg.Event, "missed events must not replay")
	}
}
