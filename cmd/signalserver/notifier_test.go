package main

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/pairwire/match-app/internal/match"
)

// sendRecorder captures the type discriminator of every frame handed to the
// notifier's send function, in delivery order.
type sendRecorder struct {
	mu    sync.Mutex
	types []string
}

func (r *sendRecorder) send(id string, data []byte) error {
	var env struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(data, &env)
	r.mu.Lock()
	r.types = append(r.types, env.Type)
	r.mu.Unlock()
	return nil
}

func (r *sendRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.types))
	copy(out, r.types)
	return out
}

func waitForDeliveries(t *testing.T, r *sendRecorder, want int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		got := r.snapshot()
		if len(got) >= want {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d deliveries, got %v", want, got)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestNotifierDeliversInEmitOrder(t *testing.T) {
	rec := &sendRecorder{}
	n := newClientNotifier(rec.send, nil)

	// A closing session emits partner_left and, when the survivor is
	// immediately re-matched, a matched right behind it. The client must see
	// them in that order or it tears down the session it just received.
	n.PartnerLeft("p-1")
	n.Matched("p-1", match.PartnerInfo{ID: "p-2", Country: "US"})

	got := waitForDeliveries(t, rec, 2)
	if got[0] != "partner_left" || got[1] != "matched" {
		t.Fatalf("delivery order = %v, want [partner_left matched]", got)
	}
}

func TestNotifierOrderUnderRepeatedRematches(t *testing.T) {
	rec := &sendRecorder{}
	n := newClientNotifier(rec.send, nil)

	const rounds = 25
	for i := 0; i < rounds; i++ {
		n.PartnerLeft("p-1")
		n.Matched("p-1", match.PartnerInfo{ID: "p-2"})
	}

	got := waitForDeliveries(t, rec, rounds*2)
	for i := 0; i < rounds; i++ {
		if got[2*i] != "partner_left" || got[2*i+1] != "matched" {
			t.Fatalf("round %d delivered [%s %s], want [partner_left matched]",
				i, got[2*i], got[2*i+1])
		}
	}
}

func TestNotifierIndependentParticipants(t *testing.T) {
	rec := &sendRecorder{}
	n := newClientNotifier(rec.send, nil)

	n.Waiting("p-1", match.ScopeGender)
	n.Waiting("p-2", match.ScopeGlobal)

	got := waitForDeliveries(t, rec, 2)
	if len(got) != 2 {
		t.Fatalf("deliveries = %v, want 2 waiting frames", got)
	}
	for _, typ := range got {
		if typ != "waiting" {
			t.Fatalf("delivery type = %q, want waiting", typ)
		}
	}
}
