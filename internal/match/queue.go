package match

import "time"

// Entry is a lightweight projection of a queued participant: just the fields
// the compatibility predicate needs. At most one entry exists per participant
// id at any time.
type Entry struct {
	ID            string
	SelfGender    Gender
	DesiredGender Gender
	Country       string
	SameCountry   bool
	EnqueuedAt    time.Time
}

// Queue holds participants waiting for a partner in insertion order. It is a
// passive data structure: the Hub serializes all access behind its lock, so
// Queue itself carries no locking.
type Queue struct {
	entries []*Entry
	index   map[string]*Entry
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{index: make(map[string]*Entry)}
}

// Add appends an entry unless the participant is already queued. Returns true
// if the entry was inserted.
func (q *Queue) Add(e *Entry) bool {
	if _, ok := q.index[e.ID]; ok {
		return false
	}
	q.entries = append(q.entries, e)
	q.index[e.ID] = e
	return true
}

// Remove deletes the entry for the given participant id. Returns true if an
// entry was present.
func (q *Queue) Remove(id string) bool {
	if _, ok := q.index[id]; !ok {
		return false
	}
	delete(q.index, id)
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the queued entry for id, or nil if the participant is not
// queued.
func (q *Queue) Get(id string) *Entry {
	return q.index[id]
}

// Contains reports whether the participant is queued.
func (q *Queue) Contains(id string) bool {
	_, ok := q.index[id]
	return ok
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	return len(q.entries)
}

// FindMatch scans the queue in insertion order (oldest waiter first) and
// returns the first entry compatible with the requester, excluding the
// requester itself. It does not remove the entry; the caller claims both
// sides atomically under the Hub lock.
func (q *Queue) FindMatch(requester *Entry, forceGlobal bool) *Entry {
	for _, cand := range q.entries {
		if cand.ID == requester.ID {
			continue
		}
		if Compatible(requester, cand, forceGlobal) {
			return cand
		}
	}
	return nil
}

// Compatible applies the mutual compatibility predicate: each side's
// desired-gender filter must accept the other's self-gender, and when either
// side restricts to the same country both must share a country code. The
// country check is waived entirely when forceGlobal is true.
func Compatible(a, b *Entry, forceGlobal bool) bool {
	if !a.DesiredGender.Accepts(b.SelfGender) || !b.DesiredGender.Accepts(a.SelfGender) {
		return false
	}
	if forceGlobal {
		return true
	}
	if a.SameCountry || b.SameCountry {
		return a.Country == b.Country
	}
	return true
}
