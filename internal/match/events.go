package match

import "time"

// Reason tags a session-closed event with why the pair ended.
type Reason string

const (
	ReasonSkipped      Reason = "skipped"
	ReasonDisconnected Reason = "disconnected"
	ReasonReported     Reason = "reported"
)

// PartnerInfo is the public partner attributes delivered with a matched
// notification.
type PartnerInfo struct {
	ID      string
	Country string
}

// Notifier delivers pairing events to connected clients. Implementations are
// invoked while the Hub lock is held and must not call back into the Hub.
type Notifier interface {
	// Matched tells a participant it has been paired.
	Matched(id string, partner PartnerInfo)
	// PartnerLeft tells a participant the other side ended the session.
	PartnerLeft(id string)
	// Waiting tells a queued participant its filters were broadened.
	// Scope is "gender" or "global".
	Waiting(id string, scope string)
}

// Broadening scopes passed to Notifier.Waiting.
const (
	ScopeGender = "gender"
	ScopeGlobal = "global"
)

// PairMatched is emitted when a new pair is created.
type PairMatched struct {
	AID       string    `json:"a_id"`
	BID       string    `json:"b_id"`
	MatchedAt time.Time `json:"matched_at"`
}

// SessionClosed is emitted when a pair is torn down. InitiatorID identifies
// the side whose action ended the session.
type SessionClosed struct {
	InitiatorID string        `json:"initiator_id"`
	PartnerID   string        `json:"partner_id"`
	Reason      Reason        `json:"reason"`
	Duration    time.Duration `json:"duration"`
	ClosedAt    time.Time     `json:"closed_at"`
}

// ReportLogged is emitted when a report has been accepted by the core.
type ReportLogged struct {
	ReporterID string    `json:"reporter_id"`
	TargetID   string    `json:"target_id"`
	At         time.Time `json:"at"`
}

// Recorder receives structured events for the external persistence and
// observability layer. Like Notifier, implementations run under the Hub lock
// and must not call back into the Hub.
type Recorder interface {
	PairMatched(e PairMatched)
	SessionClosed(e SessionClosed)
	ReportLogged(e ReportLogged)
}

// NopNotifier discards all client notifications.
type NopNotifier struct{}

func (NopNotifier) Matched(string, PartnerInfo) {}
func (NopNotifier) PartnerLeft(string)          {}
func (NopNotifier) Waiting(string, string)      {}

// NopRecorder discards all observability events.
type NopRecorder struct{}

func (NopRecorder) PairMatched(PairMatched)     {}
func (NopRecorder) SessionClosed(SessionClosed) {}
func (NopRecorder) ReportLogged(ReportLogged)   {}
