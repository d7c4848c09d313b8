package match

// DefaultHistorySize is the number of recent closed sessions retained for the
// telemetry surface.
const DefaultHistorySize = 64

// history is a fixed-size ring buffer of closed-session events. Access is
// serialized by the Hub lock.
type history struct {
	items []SessionClosed
	pos   int
	count int
}

func newHistory(size int) *history {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &history{items: make([]SessionClosed, size)}
}

// add appends an event, overwriting the oldest once the buffer is full.
func (h *history) add(e SessionClosed) {
	h.items[h.pos] = e
	h.pos = (h.pos + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// all returns the retained events in chronological order (oldest first).
func (h *history) all() []SessionClosed {
	out := make([]SessionClosed, h.count)
	start := (h.pos - h.count + len(h.items)) % len(h.items)
	for i := 0; i < h.count; i++ {
		out[i] = h.items[(start+i)%len(h.items)]
	}
	return out
}
