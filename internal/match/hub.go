package match

import (
	"context"
	"log"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pairwire/match-app/internal/metrics"
)

// Config holds tunable parameters for the pairing core.
type Config struct {
	// GenderBroadenDelay is how long a restrictively-filtered participant
	// waits before the gender filter is relaxed to "all".
	GenderBroadenDelay time.Duration
	// GlobalBroadenDelay is the additional wait after gender relaxation
	// before the same-country restriction is dropped.
	GlobalBroadenDelay time.Duration
	// HistorySize caps the recent closed-session buffer for telemetry.
	HistorySize int
}

// DefaultConfig returns the production broadening schedule: gender after 15s,
// country 5s later.
func DefaultConfig() Config {
	return Config{
		GenderBroadenDelay: 15 * time.Second,
		GlobalBroadenDelay: 5 * time.Second,
		HistorySize:        DefaultHistorySize,
	}
}

// Hub is the single serialization point for all pairing state: the
// participant registry, the matching queue, and the active-pair relation.
// Every mutation runs under one lock; read-only lookups (relay routing,
// telemetry) take the read lock.
type Hub struct {
	mu  sync.RWMutex
	cfg Config

	gate     Gate
	geo      CountryResolver
	notifier Notifier
	recorder Recorder

	participants map[string]*Participant
	queue        *Queue
	timers       map[string]*time.Timer // pending broadening task per participant
	history      *history
}

// NewHub creates a Hub. Nil collaborators are replaced with no-op defaults;
// a nil resolver reports every address as UnknownCountry.
func NewHub(cfg Config, gate Gate, geo CountryResolver, notifier Notifier, recorder Recorder) *Hub {
	if gate == nil {
		gate = openGate{}
	}
	if geo == nil {
		geo = ResolverFunc(func(context.Context, string) string { return UnknownCountry })
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Hub{
		cfg:          cfg,
		gate:         gate,
		geo:          geo,
		notifier:     notifier,
		recorder:     recorder,
		participants: make(map[string]*Participant),
		queue:        NewQueue(),
		timers:       make(map[string]*time.Timer),
		history:      newHistory(cfg.HistorySize),
	}
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

// Register admits a new connection. It consults the moderation gate with the
// client address and, if admitted, creates an idle participant and returns
// its id. Gate lookup failures fail open so a moderation outage does not
// block traffic.
//
// The address is reduced to its host part before any use: ban keys, report
// records, and the offense counter must survive reconnects, and the
// ephemeral port changes on every connection.
func (h *Hub) Register(ctx context.Context, address string) (string, error) {
	if host, _, err := net.SplitHostPort(address); err == nil {
		address = host
	}

	banned, err := h.gate.IsBanned(ctx, address)
	if err != nil {
		log.Printf("[hub] ban check for %s failed: %v (failing open)", address, err)
	} else if banned {
		return "", ErrAdmissionDenied
	}

	country := h.geo.Country(ctx, address)
	if country == "" {
		country = UnknownCountry
	}

	p := &Participant{
		ID:       uuid.New().String(),
		Address:  address,
		Country:  country,
		Filters:  Filters{SelfGender: GenderAll, DesiredGender: GenderAll},
		Status:   StatusIdle,
		JoinedAt: time.Now(),
	}

	h.mu.Lock()
	h.participants[p.ID] = p
	metrics.Participants.Set(float64(len(h.participants)))
	h.mu.Unlock()

	return p.ID, nil
}

// Get returns the public view of a participant.
func (h *Hub) Get(id string) (PublicParticipant, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.participants[id]
	if !ok {
		return PublicParticipant{}, ErrNotFound
	}
	return p.public(), nil
}

// PartnerOf returns the participant's current partner id. Used by the relay
// hot path; takes only the read lock.
func (h *Hub) PartnerOf(id string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.participants[id]
	if !ok || p.Status != StatusMatched {
		return "", false
	}
	return p.PartnerID, true
}

// ---------------------------------------------------------------------------
// Session manager
// ---------------------------------------------------------------------------

// FindPartner handles a find-partner request. If the participant is currently
// matched, the session is ended first with reason skipped. On an immediate
// match both sides are notified; otherwise the participant is enqueued and,
// for restrictive filters, the broadening schedule is armed. A find-partner
// request while already queued is an idempotent no-op.
func (h *Hub) FindPartner(id string, f Filters) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.participants[id]
	if !ok {
		return ErrNotFound
	}

	if p.Status == StatusMatched {
		p.SkipCount++
		h.endSessionLocked(p, ReasonSkipped)
	}
	if p.Status == StatusQueued {
		return nil
	}

	p.Filters = f
	if !h.tryMatchLocked(p, false) {
		h.enqueueLocked(p)
	}
	return nil
}

// Stop returns the participant to idle without disconnecting the transport:
// it leaves the queue or ends the current session.
func (h *Hub) Stop(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.participants[id]
	if !ok {
		return ErrNotFound
	}

	switch p.Status {
	case StatusQueued:
		h.dequeueLocked(id)
		p.Status = StatusIdle
	case StatusMatched:
		h.endSessionLocked(p, ReasonSkipped)
	}
	return nil
}

// EndSession ends the participant's current session with the given reason.
// Only valid from the matched state; otherwise a no-op.
func (h *Hub) EndSession(id string, reason Reason) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.participants[id]
	if !ok {
		return ErrNotFound
	}
	h.endSessionLocked(p, reason)
	return nil
}

// Disconnect removes a participant entirely: queue entry, active session, and
// registry record. It is idempotent and safe to call at any lifecycle point,
// including mid-match races.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.participants[id]
	if !ok {
		return
	}

	h.dequeueLocked(id)
	h.endSessionLocked(p, ReasonDisconnected)
	delete(h.participants, id)
	metrics.Participants.Set(float64(len(h.participants)))
}

// Report increments the target's report counter and hands the report to the
// moderation gate. A target that already left is a benign no-op; the
// reporter must exist.
func (h *Hub) Report(ctx context.Context, reporterID, targetID, evidence string) error {
	h.mu.Lock()
	reporter, ok := h.participants[reporterID]
	if !ok {
		h.mu.Unlock()
		return ErrNotFound
	}
	target, ok := h.participants[targetID]
	if !ok {
		h.mu.Unlock()
		return nil
	}

	target.ReportCount++
	now := time.Now()
	rep := Report{
		ReporterID:   reporter.ID,
		ReporterAddr: reporter.Address,
		TargetID:     target.ID,
		TargetAddr:   target.Address,
		Evidence:     evidence,
		Ts:           now.Unix(),
	}
	h.recorder.ReportLogged(ReportLogged{ReporterID: reporterID, TargetID: targetID, At: now})
	h.mu.Unlock()

	metrics.ReportsTotal.Inc()

	// Gate call may hit the network; keep it outside the lock.
	return h.gate.RecordReport(ctx, rep)
}

// ---------------------------------------------------------------------------
// Telemetry surface (read-only)
// ---------------------------------------------------------------------------

// Snapshot returns the public view of every participant, ordered by join
// time.
func (h *Hub) Snapshot() []PublicParticipant {
	h.mu.RLock()
	out := make([]PublicParticipant, 0, len(h.participants))
	for _, p := range h.participants {
		out = append(out, p.public())
	}
	h.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

// RecentClosed returns the retained closed-session events, oldest first.
func (h *Hub) RecentClosed() []SessionClosed {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.history.all()
}

// QueueLen returns the current number of queued participants.
func (h *Hub) QueueLen() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.queue.Len()
}

// ParticipantCount returns the number of registered participants.
func (h *Hub) ParticipantCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.participants)
}

// ---------------------------------------------------------------------------
// Internals — all require h.mu held for writing.
// ---------------------------------------------------------------------------

func (h *Hub) entryFor(p *Participant) *Entry {
	return &Entry{
		ID:            p.ID,
		SelfGender:    p.Filters.SelfGender,
		DesiredGender: p.Filters.DesiredGender,
		Country:       p.Country,
		SameCountry:   p.Filters.SameCountry,
		EnqueuedAt:    time.Now(),
	}
}

// enqueueLocked adds the participant to the queue and arms the broadening
// schedule for restrictive filters.
func (h *Hub) enqueueLocked(p *Participant) {
	if !h.queue.Add(h.entryFor(p)) {
		return
	}
	p.Status = StatusQueued
	metrics.QueueSize.Set(float64(h.queue.Len()))

	if p.Filters.Restrictive() && h.cfg.GenderBroadenDelay > 0 {
		h.scheduleBroadenLocked(p.ID, h.cfg.GenderBroadenDelay, h.broadenGender)
	}
}

// dequeueLocked removes the queue entry and cancels any pending broadening
// task. Safe to call when the participant is not queued.
func (h *Hub) dequeueLocked(id string) {
	if h.queue.Remove(id) {
		metrics.QueueSize.Set(float64(h.queue.Len()))
	}
	h.cancelBroadenLocked(id)
}

// tryMatchLocked scans the queue for a compatible partner and, on success,
// claims both sides atomically: queue entries removed, broadening cancelled,
// statuses and partner pointers set symmetrically, notifications emitted.
func (h *Hub) tryMatchLocked(p *Participant, forceGlobal bool) bool {
	req := h.queue.Get(p.ID)
	if req == nil {
		req = h.entryFor(p)
	}

	for {
		cand := h.queue.FindMatch(req, forceGlobal)
		if cand == nil {
			return false
		}

		partner, ok := h.participants[cand.ID]
		if !ok || partner.Status != StatusQueued {
			// Stale entry; should not happen since disconnect dequeues
			// under the same lock, but a dangling entry must never pair.
			h.dequeueLocked(cand.ID)
			continue
		}

		h.dequeueLocked(cand.ID)
		h.dequeueLocked(p.ID)

		now := time.Now()
		p.Status = StatusMatched
		partner.Status = StatusMatched
		p.PartnerID = partner.ID
		partner.PartnerID = p.ID
		p.matchedAt = now
		partner.matchedAt = now

		metrics.ActivePairs.Inc()
		metrics.MatchWaitSeconds.Observe(now.Sub(cand.EnqueuedAt).Seconds())

		h.notifier.Matched(p.ID, PartnerInfo{ID: partner.ID, Country: partner.Country})
		h.notifier.Matched(partner.ID, PartnerInfo{ID: p.ID, Country: p.Country})
		h.recorder.PairMatched(PairMatched{AID: p.ID, BID: partner.ID, MatchedAt: now})
		return true
	}
}

// endSessionLocked tears down the participant's session. The partner, if
// still connected, receives partner-left and automatically re-enters the
// queue with its existing filters. A missing partner is not an error: the
// teardown may race with the partner's disconnect.
func (h *Hub) endSessionLocked(p *Participant, reason Reason) {
	if p.Status != StatusMatched {
		return
	}

	partnerID := p.PartnerID
	duration := time.Since(p.matchedAt)

	p.Status = StatusIdle
	p.PartnerID = ""
	p.matchedAt = time.Time{}

	metrics.ActivePairs.Dec()
	metrics.SessionDurationSeconds.Observe(duration.Seconds())

	ev := SessionClosed{
		InitiatorID: p.ID,
		PartnerID:   partnerID,
		Reason:      reason,
		Duration:    duration,
		ClosedAt:    time.Now(),
	}
	h.history.add(ev)
	h.recorder.SessionClosed(ev)

	partner, ok := h.participants[partnerID]
	if !ok || partner.Status != StatusMatched || partner.PartnerID != p.ID {
		return
	}

	partner.Status = StatusIdle
	partner.PartnerID = ""
	partner.matchedAt = time.Time{}
	h.notifier.PartnerLeft(partnerID)

	// The surviving side goes straight back into matching.
	if !h.tryMatchLocked(partner, false) {
		h.enqueueLocked(partner)
	}
}

// ---------------------------------------------------------------------------
// Filter broadening
// ---------------------------------------------------------------------------

func (h *Hub) scheduleBroadenLocked(id string, delay time.Duration, fire func(id string)) {
	h.cancelBroadenLocked(id)
	h.timers[id] = time.AfterFunc(delay, func() { fire(id) })
}

func (h *Hub) cancelBroadenLocked(id string) {
	if t, ok := h.timers[id]; ok {
		t.Stop()
		delete(h.timers, id)
	}
}

// broadenGender is the first broadening stage: relax the desired-gender
// filter to "all" and retry with the country check waived for this scan. A
// late fire after dequeue is a guarded no-op.
func (h *Hub) broadenGender(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.timers, id)

	p, ok := h.participants[id]
	e := h.queue.Get(id)
	if !ok || e == nil {
		return
	}

	if p.Filters.DesiredGender != GenderAll {
		p.Filters.DesiredGender = GenderAll
		e.DesiredGender = GenderAll
		h.notifier.Waiting(id, ScopeGender)
	}

	if h.tryMatchLocked(p, true) {
		return
	}
	if p.Filters.SameCountry && h.cfg.GlobalBroadenDelay > 0 {
		h.scheduleBroadenLocked(id, h.cfg.GlobalBroadenDelay, h.broadenGlobal)
	}
}

// broadenGlobal is the second stage: drop the same-country restriction on the
// entry itself so other requesters' scans can also select it, then retry.
func (h *Hub) broadenGlobal(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.timers, id)

	p, ok := h.participants[id]
	e := h.queue.Get(id)
	if !ok || e == nil {
		return
	}

	if p.Filters.SameCountry {
		p.Filters.SameCountry = false
		e.SameCountry = false
		h.notifier.Waiting(id, ScopeGlobal)
	}
	h.tryMatchLocked(p, true)
}
