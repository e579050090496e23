package spins

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prizewheel/backend/internal/models"
)

type fakeSessionStore struct {
	sessions map[uuid.UUID]*models.Session
}

func (f *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*models.Session, error) {
	return f.sessions[id], nil
}

// fakeLedger mimics the storage layer: a mutex-guarded map plays the role of
// the unique constraint, so a racing record for an already-selected
// participant fails the same way the database would.
type fakeLedger struct {
	mu           sync.Mutex
	participants []models.ParticipantPublic
	selected     map[uuid.UUID]models.Selection
	order        []uuid.UUID
}

func newFakeLedger(participants ...models.ParticipantPublic) *fakeLedger {
	return &fakeLedger{
		participants: participants,
		selected:     make(map[uuid.UUID]models.Selection),
	}
}

func (f *fakeLedger) EligiblePool(_ context.Context, _ uuid.UUID) ([]models.ParticipantPublic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pool []models.ParticipantPublic
	for _, p := range f.participants {
		if _, ok := f.selected[p.ID]; !ok {
			pool = append(pool, p)
		}
	}
	return pool, nil
}

func (f *fakeLedger) RecordSpin(_ context.Context, sessionID uuid.UUID, winner models.ParticipantPublic, _ int) (*models.Spin, *models.Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.selected[winner.ID]; dup {
		return nil, nil, ErrDuplicateSelection
	}
	spin := &models.Spin{ID: uuid.New(), SessionID: sessionID, CreatedAt: time.Now()}
	sel := models.Selection{
		ID:            uuid.New(),
		SpinID:        spin.ID,
		SessionID:     sessionID,
		ParticipantID: winner.ID,
		CreatedAt:     time.Now(),
	}
	f.selected[winner.ID] = sel
	f.order = append(f.order, winner.ID)
	return spin, &sel, nil
}

type published struct {
	sessionID uuid.UUID
	event     string
	payload   interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []published
}

func (f *fakeBroadcaster) Publish(sessionID uuid.UUID, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{sessionID, event, payload})
}

func (f *fakeBroadcaster) all() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.events...)
}

// fakeScheduler records scheduled tasks instead of starting timers, so tests
// control when the reveal fires.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []func()
	delay time.Duration
}

func (f *fakeScheduler) Schedule(d time.Duration, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
	f.tasks = append(f.tasks, fn)
}

func (f *fakeScheduler) fireAll() {
	f.mu.Lock()
	tasks := f.tasks
	f.tasks = nil
	f.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
}

func testParticipants(n int) []models.ParticipantPublic {
	out := make([]models.ParticipantPublic, n)
	for i := range out {
		out[i] = models.ParticipantPublic{
			ID:        uuid.New(),
			Name:      "Participant " + string(rune('A'+i)),
			MemberID:  "M-" + string(rune('A'+i)),
			CreatedAt: time.Now(),
		}
	}
	return out
}

func newTestEngine(session *models.Session, ledger *fakeLedger) (*Engine, *fakeBroadcaster, *fakeScheduler) {
	store := &fakeSessionStore{sessions: map[uuid.UUID]*models.Session{session.ID: session}}
	bc := &fakeBroadcaster{}
	sched := &fakeScheduler{}
	engine := NewEngine(store, ledger, bc, sched, 6*time.Second, zap.NewNop())
	return engine, bc, sched
}

func TestSpinDrainsPoolThenEmpty(t *testing.T) {
	adminID := uuid.New()
	session := &models.Session{ID: uuid.New(), AdminID: adminID, IsActive: true}
	people := testParticipants(3)
	ledger := newFakeLedger(people...)
	engine, _, _ := newTestEngine(session, ledger)

	winners := make(map[uuid.UUID]bool)
	for i := 0; i < 3; i++ {
		result, err := engine.Spin(context.Background(), session.ID, adminID)
		require.NoError(t, err)
		require.False(t, winners[result.Winner.ID], "participant selected twice")
		winners[result.Winner.ID] = true
		assert.Equal(t, 2-i, result.Remaining)
	}

	// Everyone was covered.
	for _, p := range people {
		assert.True(t, winners[p.ID], "participant %s never selected", p.Name)
	}

	// A fourth call fails and leaves the ledger unchanged.
	_, err := engine.Spin(context.Background(), session.ID, adminID)
	require.ErrorIs(t, err, ErrNoEligibleParticipants)
	assert.Len(t, ledger.order, 3)
}

func TestSpinSessionValidation(t *testing.T) {
	adminID := uuid.New()
	session := &models.Session{ID: uuid.New(), AdminID: adminID, IsActive: true}
	ledger := newFakeLedger(testParticipants(1)...)
	engine, _, _ := newTestEngine(session, ledger)

	_, err := engine.Spin(context.Background(), uuid.New(), adminID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "unknown session id")

	_, err = engine.Spin(context.Background(), session.ID, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound, "session owned by another admin")

	session.IsActive = false
	_, err = engine.Spin(context.Background(), session.ID, adminID)
	assert.ErrorIs(t, err, ErrSessionInactive)

	assert.Empty(t, ledger.order, "failed preconditions must not touch the ledger")
}

func TestConcurrentSpinsSingleParticipant(t *testing.T) {
	adminID := uuid.New()
	session := &models.Session{ID: uuid.New(), AdminID: adminID, IsActive: true}
	ledger := newFakeLedger(testParticipants(1)...)
	engine, _, _ := newTestEngine(session, ledger)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Spin(context.Background(), session.ID, adminID)
		}(i)
	}
	wg.Wait()

	var successes, failures int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		failures++
		// The loser either hit the constraint or saw the pool already empty,
		// depending on interleaving. Both are a retryable rejection.
		if err != ErrDuplicateSelection && err != ErrNoEligibleParticipants {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)
	assert.Len(t, ledger.order, 1, "the single participant must be selected exactly once")
}

func TestConcurrentSpinsDistinctWinners(t *testing.T) {
	const n = 8
	adminID := uuid.New()
	session := &models.Session{ID: uuid.New(), AdminID: adminID, IsActive: true}
	ledger := newFakeLedger(testParticipants(n)...)
	engine, _, _ := newTestEngine(session, ledger)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// A gateway caller retries the whole spin when it loses the
			// race, since the pool has changed underneath it.
			for {
				_, err := engine.Spin(context.Background(), session.ID, adminID)
				if err != ErrDuplicateSelection {
					require.NoError(t, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	require.Len(t, ledger.order, n, "every concurrent spin must land exactly one selection")
	seen := make(map[uuid.UUID]bool)
	for _, id := range ledger.order {
		require.False(t, seen[id], "duplicate winner %s", id)
		seen[id] = true
	}
}

func TestSpinSchedulesDelayedAnnouncement(t *testing.T) {
	adminID := uuid.New()
	session := &models.Session{ID: uuid.New(), AdminID: adminID, IsActive: true}
	ledger := newFakeLedger(testParticipants(2)...)
	engine, bc, sched := newTestEngine(session, ledger)

	result, err := engine.Spin(context.Background(), session.ID, adminID)
	require.NoError(t, err)

	// The admin response returns before anything is broadcast.
	assert.Empty(t, bc.all(), "announcement must wait for the reveal window")
	assert.Equal(t, 6*time.Second, sched.delay)

	sched.fireAll()

	events := bc.all()
	require.Len(t, events, 1)
	assert.Equal(t, session.ID, events[0].sessionID)
	assert.Equal(t, "spin_result", events[0].event)

	ann, ok := events[0].payload.(WinnerAnnouncement)
	require.True(t, ok)
	assert.Equal(t, result.Winner.ID, ann.Winner.ID)
	assert.Equal(t, result.SpinID, ann.SpinID)
	assert.Equal(t, 1, ann.Remaining)
	assert.False(t, ann.Timestamp.IsZero(), "timestamp records the selection moment")
}
