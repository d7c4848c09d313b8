package main

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pairwire/match-app/internal/match"
	"github.com/pairwire/match-app/internal/presence"
	"github.com/pairwire/match-app/internal/protocol"
)

// clientNotifier delivers pairing events to connected clients and mirrors
// state changes into the presence store. Hub callbacks run under the Hub lock,
// so delivery is deferred to background workers — but events for one
// participant must reach the socket in the order the hub emitted them: when a
// session closes and the survivor is re-matched in the same lock hold, the
// client must see partner_left before the new matched. Each participant
// therefore gets a FIFO of pending deliveries drained by at most one worker.
type clientNotifier struct {
	send     func(id string, data []byte) error
	presence *presence.Store

	mu      sync.Mutex
	pending map[string][]func()
	active  map[string]bool
}

func newClientNotifier(send func(id string, data []byte) error, p *presence.Store) *clientNotifier {
	return &clientNotifier{
		send:     send,
		presence: p,
		pending:  make(map[string][]func()),
		active:   make(map[string]bool),
	}
}

// enqueue appends fn to the participant's delivery queue and starts a drain
// worker unless one is already running for that participant.
func (n *clientNotifier) enqueue(id string, fn func()) {
	n.mu.Lock()
	n.pending[id] = append(n.pending[id], fn)
	if n.active[id] {
		n.mu.Unlock()
		return
	}
	n.active[id] = true
	n.mu.Unlock()

	go n.drain(id)
}

// drain runs the participant's queued deliveries in order. The head is popped
// under the lock before it executes, so a concurrent enqueue observing a
// non-empty queue never starts a second worker for entries this one will
// still pick up.
func (n *clientNotifier) drain(id string) {
	for {
		n.mu.Lock()
		queue := n.pending[id]
		if len(queue) == 0 {
			delete(n.pending, id)
			delete(n.active, id)
			n.mu.Unlock()
			return
		}
		fn := queue[0]
		n.pending[id] = queue[1:]
		n.mu.Unlock()

		fn()
	}
}

func (n *clientNotifier) Matched(id string, partner match.PartnerInfo) {
	n.enqueue(id, func() {
		data, err := protocol.NewServerMessage(protocol.TypeMatched, protocol.MatchedMsg{
			PartnerID: partner.ID,
			Country:   partner.Country,
		})
		if err != nil {
			log.Printf("[notify] build matched for %s: %v", id, err)
			return
		}
		if err := n.send(id, data); err != nil {
			log.Printf("[notify] send matched to %s: %v", id, err)
		}
		if n.presence != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = n.presence.UpdateStatus(ctx, id, string(match.StatusMatched), partner.ID)
		}
	})
}

func (n *clientNotifier) PartnerLeft(id string) {
	n.enqueue(id, func() {
		data, err := protocol.NewServerMessage(protocol.TypePartnerLeft, protocol.PartnerLeftMsg{})
		if err != nil {
			log.Printf("[notify] build partner_left for %s: %v", id, err)
			return
		}
		if err := n.send(id, data); err != nil {
			log.Printf("[notify] send partner_left to %s: %v", id, err)
		}
		// The surviving side re-enters matching automatically.
		if n.presence != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = n.presence.UpdateStatus(ctx, id, string(match.StatusQueued), "")
		}
	})
}

func (n *clientNotifier) Waiting(id string, scope string) {
	n.enqueue(id, func() {
		data, err := protocol.NewServerMessage(protocol.TypeWaiting, protocol.WaitingMsg{Scope: scope})
		if err != nil {
			log.Printf("[notify] build waiting for %s: %v", id, err)
			return
		}
		if err := n.send(id, data); err != nil {
			log.Printf("[notify] send waiting to %s: %v", id, err)
		}
	})
}
