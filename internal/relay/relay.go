// Package relay forwards opaque negotiation payloads between the two members
// of an active pair. It performs no interpretation or buffering: the only
// check is that the addressed target is the sender's current partner.
package relay

import (
	"encoding/json"
	"log"

	"github.com/pairwire/match-app/internal/metrics"
)

// Partners resolves a participant's current partner. Implemented by the
// match Hub; lookups must be cheap since this is the signaling hot path.
type Partners interface {
	PartnerOf(id string) (string, bool)
}

// SendFunc delivers a relayed payload to the target's outbound channel.
type SendFunc func(targetID, senderID string, payload json.RawMessage) error

// Relay routes signal messages between paired participants.
type Relay struct {
	partners Partners
	send     SendFunc
}

// New creates a Relay over the given partner lookup and delivery function.
func New(partners Partners, send SendFunc) *Relay {
	return &Relay{partners: partners, send: send}
}

// Relay forwards payload to targetID iff targetID is senderID's current
// partner. Stale or spoofed targets are dropped silently: races between
// disconnect and in-flight signaling are expected and not an error. Returns
// true when the payload was handed to the transport.
func (r *Relay) Relay(senderID, targetID string, payload json.RawMessage) bool {
	partnerID, ok := r.partners.PartnerOf(senderID)
	if !ok || partnerID != targetID {
		metrics.SignalsTotal.WithLabelValues("dropped").Inc()
		log.Printf("[relay] dropped stale signal sender=%s target=%s", senderID, targetID)
		return false
	}

	if err := r.send(targetID, senderID, payload); err != nil {
		metrics.SignalsTotal.WithLabelValues("failed").Inc()
		log.Printf("[relay] send to %s failed: %v", targetID, err)
		return false
	}

	metrics.SignalsTotal.WithLabelValues("delivered").Inc()
	return true
}
