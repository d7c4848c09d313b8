// Package match implements the pairing core: the participant registry, the
// FIFO matching queue with filter broadening, and the session state machine
// that pairs participants and tears pairs down. All mutable shared state is
// owned by the Hub and serialized behind a single lock.
package match

import "time"

// Gender is a participant's self-reported gender or a desired-gender filter.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	// GenderAll is the default filter value and matches any self-gender.
	GenderAll Gender = "all"
)

// ParseGender normalizes a wire-level gender string. Unknown or empty values
// fall back to GenderAll.
func ParseGender(s string) Gender {
	switch Gender(s) {
	case GenderMale, GenderFemale:
		return Gender(s)
	default:
		return GenderAll
	}
}

// Accepts reports whether a desired-gender filter accepts the given
// self-gender.
func (g Gender) Accepts(self Gender) bool {
	return g == GenderAll || g == self
}

// Status is a participant's position in the pairing state machine.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusQueued  Status = "queued"
	StatusMatched Status = "matched"
)

// UnknownCountry is used when the geography lookup cannot resolve an address.
const UnknownCountry = "UN"

// Filters are the matching constraints a participant supplies with a
// find-partner request. They are mutated in place by filter broadening.
type Filters struct {
	SelfGender    Gender
	DesiredGender Gender
	SameCountry   bool
}

// Restrictive reports whether the filters constrain matching beyond the
// defaults, which is what arms the broadening timers.
func (f Filters) Restrictive() bool {
	return f.DesiredGender != GenderAll || f.SameCountry
}

// Participant is one live connection's pairing state. It is owned by the Hub
// and must only be touched while holding the Hub lock.
type Participant struct {
	ID          string
	Address     string // network origin, never exposed to clients
	Country     string
	Filters     Filters
	Status      Status
	PartnerID   string // set iff Status == StatusMatched
	SkipCount   int
	ReportCount int
	JoinedAt    time.Time

	matchedAt time.Time // pair creation time, shared by both members
}

// PublicParticipant is the externally visible projection of a Participant,
// used for the matched notification and the telemetry snapshot. It carries no
// network address.
type PublicParticipant struct {
	ID            string    `json:"id"`
	Country       string    `json:"country"`
	SelfGender    Gender    `json:"self_gender"`
	DesiredGender Gender    `json:"desired_gender"`
	SameCountry   bool      `json:"same_country"`
	Status        Status    `json:"status"`
	PartnerID     string    `json:"partner_id,omitempty"`
	SkipCount     int       `json:"skip_count"`
	ReportCount   int       `json:"report_count"`
	JoinedAt      time.Time `json:"joined_at"`
}

func (p *Participant) public() PublicParticipant {
	return PublicParticipant{
		ID:            p.ID,
		Country:       p.Country,
		SelfGender:    p.Filters.SelfGender,
		DesiredGender: p.Filters.DesiredGender,
		SameCountry:   p.Filters.SameCountry,
		Status:        p.Status,
		PartnerID:     p.PartnerID,
		SkipCount:     p.SkipCount,
		ReportCount:   p.ReportCount,
		JoinedAt:      p.JoinedAt,
	}
}
