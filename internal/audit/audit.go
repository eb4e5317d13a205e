// Package audit records security-relevant activity. Every decision
// branch of the session manager produces exactly one event; events are
// written synchronously to the store before the caller's response is
// returned, and optionally mirrored to external sinks asynchronously.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/pranaynookala001/securedocs/internal/models"
)

// Severity levels, ordered.
const (
	SeverityInfo     = "Info"
	SeverityWarning  = "Warning"
	SeverityError    = "Error"
	SeverityCritical = "Critical"
)

// ActorAnonymous marks activity with no resolved account.
const ActorAnonymous = "anonymous"

// Audit action tags emitted by the session manager.
const (
	ActionLoginBlockedThreat   = "Login_Blocked_Threat"
	ActionLoginBlockedLocked   = "Login_Blocked_Locked"
	ActionLoginBlockedInactive = "Login_Blocked_Inactive"
	ActionLoginFailed          = "Login_Failed"
	ActionLoginSuccess         = "Login_Success"
	ActionUserRegistered       = "User_Registered"
	ActionUserLocked           = "User_Locked"
	ActionUserUnlocked         = "User_Unlocked"
	ActionTokenRefreshed       = "Token_Refreshed"
	ActionLogoutSuccess        = "Logout_Success"
	ActionPasswordChanged      = "Password_Changed"
)

// Event is one audit fact in transit.
type Event struct {
	Timestamp     time.Time         `json:"timestamp"`
	Actor         string            `json:"actor"`
	Action        string            `json:"action"`
	EntityType    string            `json:"entity_type"`
	EntityID      *uuid.UUID        `json:"entity_id,omitempty"`
	Severity      string            `json:"severity"`
	Description   string            `json:"description,omitempty"`
	IP            string            `json:"ip,omitempty"`
	UserAgent     string            `json:"user_agent,omitempty"`
	SecurityEvent bool              `json:"security_event"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Store appends immutable audit rows.
type Store interface {
	Append(ctx context.Context, record *models.AuditLog) error
}

// Sink receives mirrored events. Implementations must not block for
// long; the dispatcher serializes delivery on one goroutine.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// Recorder is the single write path for audit records. A failed store
// write is logged and swallowed: audit emission must never turn an
// otherwise successful operation into a failure.
type Recorder struct {
	store      Store
	log        zerolog.Logger
	dispatcher *Dispatcher
	now        func() time.Time
}

// NewRecorder wires the store-backed recorder. dispatcher may be nil
// when no mirror sink is configured.
func NewRecorder(store Store, dispatcher *Dispatcher, log zerolog.Logger) *Recorder {
	return &Recorder{
		store:      store,
		log:        log,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Record persists the event and forwards it to the mirror dispatcher.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now()
	}
	if event.Actor == "" {
		event.Actor = ActorAnonymous
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}

	row := &models.AuditLog{
		Timestamp:       event.Timestamp,
		UserID:          event.Actor,
		Action:          event.Action,
		EntityType:      event.EntityType,
		EntityID:        event.EntityID,
		Severity:        event.Severity,
		Description:     event.Description,
		IPAddress:       event.IP,
		UserAgent:       event.UserAgent,
		IsSecurityEvent: event.SecurityEvent,
		RequiresReview:  event.Severity == SeverityCritical,
	}
	if len(event.Metadata) > 0 {
		if raw, err := json.Marshal(event.Metadata); err == nil {
			row.Metadata = datatypes.JSON(raw)
		}
	}

	if err := r.store.Append(ctx, row); err != nil {
		r.log.Warn().
			Err(err).
			Str("action", event.Action).
			Str("actor", event.Actor).
			Msg("audit record write failed")
	}

	r.dispatcher.Emit(ctx, event)
}
