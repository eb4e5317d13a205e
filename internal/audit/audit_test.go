package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pranaynookala001/securedocs/internal/models"
)

type memStore struct {
	mu      sync.Mutex
	rows    []*models.AuditLog
	failErr error
}

func (s *memStore) Append(_ context.Context, record *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.rows = append(s.rows, record)
	return nil
}

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestRecorderWritesRow(t *testing.T) {
	store := &memStore{}
	r := NewRecorder(store, nil, zerolog.Nop())

	r.Record(context.Background(), Event{
		Action:        ActionLoginFailed,
		EntityType:    "Authentication",
		Severity:      SeverityWarning,
		IP:            "203.0.113.9",
		SecurityEvent: true,
		Metadata:      map[string]string{"identifier": "alice"},
	})

	if len(store.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(store.rows))
	}
	row := store.rows[0]
	if row.UserID != ActorAnonymous {
		t.Errorf("actor defaulted to %q, want anonymous", row.UserID)
	}
	if row.Action != ActionLoginFailed || row.Severity != SeverityWarning {
		t.Errorf("row = %s/%s", row.Action, row.Severity)
	}
	if row.Timestamp.IsZero() {
		t.Error("timestamp not defaulted")
	}
	if !row.IsSecurityEvent {
		t.Error("security flag lost")
	}
	if len(row.Metadata) == 0 {
		t.Error("metadata not serialized")
	}
}

func TestRecorderSwallowsStoreFailure(t *testing.T) {
	store := &memStore{failErr: errors.New("db down")}
	r := NewRecorder(store, nil, zerolog.Nop())

	// Must not panic or propagate.
	r.Record(context.Background(), Event{Action: ActionLoginSuccess})
}

func TestRecorderMarksCriticalForReview(t *testing.T) {
	store := &memStore{}
	r := NewRecorder(store, nil, zerolog.Nop())

	r.Record(context.Background(), Event{Action: ActionUserLocked, Severity: SeverityCritical})

	if !store.rows[0].RequiresReview {
		t.Fatal("critical events must require review")
	}
}

func TestDispatcherDeliversAndDrains(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(DispatcherConfig{BufferSize: 8}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{Action: ActionLoginSuccess})
	}
	d.Close()

	if got := sink.len(); got != 5 {
		t.Fatalf("delivered = %d, want 5", got)
	}
}

type blockingSink struct {
	release chan struct{}
	first   sync.Once
	started chan struct{}
}

func (s *blockingSink) Emit(context.Context, Event) {
	s.first.Do(func() { close(s.started) })
	<-s.release
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{}), started: make(chan struct{})}
	d := NewDispatcher(DispatcherConfig{BufferSize: 1, DropIfFull: true}, sink)

	d.Emit(context.Background(), Event{Action: ActionLoginSuccess})
	<-sink.started

	// One event occupies the sink, one fills the buffer, the rest drop.
	deadline := time.After(time.Second)
	for d.Dropped() == 0 {
		select {
		case <-deadline:
			t.Fatal("no events dropped")
		default:
			d.Emit(context.Background(), Event{Action: ActionLoginFailed})
		}
	}

	close(sink.release)
	d.Close()
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var d *Dispatcher
	d.Emit(context.Background(), Event{Action: ActionLogoutSuccess})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}
