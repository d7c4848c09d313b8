package messaging

import (
	"encoding/json"
	"log"

	"github.com/pairwire/match-app/internal/match"
)

// Recorder publishes pairing lifecycle events to NATS for the external
// persistence and observability layer. It implements match.Recorder.
// Publishing is best-effort: a failed publish is logged, never propagated,
// since the core must not fail on observability errors.
type Recorder struct {
	client *Client
}

// NewRecorder creates a Recorder over an established NATS client.
func NewRecorder(client *Client) *Recorder {
	return &Recorder{client: client}
}

// PairMatched publishes a pair.matched event.
func (r *Recorder) PairMatched(e match.PairMatched) {
	r.publish(SubjectPairMatched, e)
}

// SessionClosed publishes a pair.closed event.
func (r *Recorder) SessionClosed(e match.SessionClosed) {
	r.publish(SubjectPairClosed, e)
}

// ReportLogged publishes a report.logged event.
func (r *Recorder) ReportLogged(e match.ReportLogged) {
	r.publish(SubjectReportLogged, e)
}

func (r *Recorder) publish(subject string, e interface{}) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("[recorder] marshal %s: %v", subject, err)
		return
	}
	if err := r.client.Publish(subject, data); err != nil {
		log.Printf("[recorder] publish %s: %v", subject, err)
	}
}
