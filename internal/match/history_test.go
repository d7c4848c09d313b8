package match

import (
	"strconv"
	"testing"
)

func TestHistory_Empty(t *testing.T) {
	h := newHistory(4)
	if got := h.all(); len(got) != 0 {
		t.Errorf("expected empty history, got %d events", len(got))
	}
}

func TestHistory_ChronologicalOrder(t *testing.T) {
	h := newHistory(4)
	for i := 0; i < 3; i++ {
		h.add(SessionClosed{InitiatorID: strconv.Itoa(i)})
	}

	got := h.all()
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i, e := range got {
		if e.InitiatorID != strconv.Itoa(i) {
			t.Errorf("event %d: got initiator %s", i, e.InitiatorID)
		}
	}
}

func TestHistory_OverwritesOldest(t *testing.T) {
	h := newHistory(3)
	for i := 0; i < 5; i++ {
		h.add(SessionClosed{InitiatorID: strconv.Itoa(i)})
	}

	got := h.all()
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	// Events 2, 3, 4 survive.
	for i, e := range got {
		if e.InitiatorID != strconv.Itoa(i+2) {
			t.Errorf("event %d: got initiator %s, want %d", i, e.InitiatorID, i+2)
		}
	}
}

func TestHistory_ZeroSizeUsesDefault(t *testing.T) {
	h := newHistory(0)
	if len(h.items) != DefaultHistorySize {
		t.Errorf("expected default size %d, got %d", DefaultHistorySize, len(h.items))
	}
}
