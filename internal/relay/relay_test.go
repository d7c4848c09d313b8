package relay

import (
	"encoding/json"
	"errors"
	"testing"
)

type staticPartners map[string]string

func (s staticPartners) PartnerOf(id string) (string, bool) {
	p, ok := s[id]
	return p, ok
}

type delivery struct {
	target, sender string
	payload        json.RawMessage
}

func TestRelay_DeliversToPartner(t *testing.T) {
	var got []delivery
	r := New(staticPartners{"a": "b"}, func(targetID, senderID string, payload json.RawMessage) error {
		got = append(got, delivery{targetID, senderID, payload})
		return nil
	})

	payload := json.RawMessage(`{"sdp":"offer"}`)
	if !r.Relay("a", "b", payload) {
		t.Fatal("expected delivery to succeed")
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if got[0].target != "b" || got[0].sender != "a" {
		t.Errorf("unexpected delivery %+v", got[0])
	}
	if string(got[0].payload) != `{"sdp":"offer"}` {
		t.Errorf("payload should pass through verbatim, got %s", got[0].payload)
	}
}

func TestRelay_DropsStaleTarget(t *testing.T) {
	called := false
	r := New(staticPartners{"a": "b"}, func(string, string, json.RawMessage) error {
		called = true
		return nil
	})

	// Target is not the current partner (stale after a rematch).
	if r.Relay("a", "c", nil) {
		t.Error("stale target should be dropped")
	}
	// Sender has no partner at all.
	if r.Relay("x", "b", nil) {
		t.Error("unpaired sender should be dropped")
	}
	if called {
		t.Error("send must not be invoked for dropped signals")
	}
}

func TestRelay_SendFailure(t *testing.T) {
	r := New(staticPartners{"a": "b"}, func(string, string, json.RawMessage) error {
		return errors.New("connection gone")
	})

	if r.Relay("a", "b", json.RawMessage(`{}`)) {
		t.Error("failed send should return false")
	}
}
