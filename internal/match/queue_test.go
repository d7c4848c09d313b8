package match

import (
	"testing"
	"time"
)

func entry(id string, self, desired Gender, country string, sameCountry bool) *Entry {
	return &Entry{
		ID:            id,
		SelfGender:    self,
		DesiredGender: desired,
		Country:       country,
		SameCountry:   sameCountry,
		EnqueuedAt:    time.Now(),
	}
}

func TestParseGender(t *testing.T) {
	cases := []struct {
		in       string
		expected Gender
	}{
		{"male", GenderMale},
		{"female", GenderFemale},
		{"all", GenderAll},
		{"", GenderAll},
		{"other", GenderAll},
		{"MALE", GenderAll},
	}
	for _, tc := range cases {
		if got := ParseGender(tc.in); got != tc.expected {
			t.Errorf("ParseGender(%q) = %v, want %v", tc.in, got, tc.expected)
		}
	}
}

func TestQueue_AddIdempotent(t *testing.T) {
	q := NewQueue()

	if !q.Add(entry("a", GenderAll, GenderAll, "US", false)) {
		t.Fatal("first Add should return true")
	}
	if q.Add(entry("a", GenderAll, GenderAll, "DE", false)) {
		t.Error("second Add for same id should return false")
	}
	if q.Len() != 1 {
		t.Errorf("expected len=1, got %d", q.Len())
	}
}

func TestQueue_Remove(t *testing.T) {
	q := NewQueue()
	q.Add(entry("a", GenderAll, GenderAll, "US", false))
	q.Add(entry("b", GenderAll, GenderAll, "US", false))

	if !q.Remove("a") {
		t.Fatal("Remove should return true for queued id")
	}
	if q.Remove("a") {
		t.Error("Remove should return false for absent id")
	}
	if q.Contains("a") {
		t.Error("removed entry should not be contained")
	}
	if q.Len() != 1 {
		t.Errorf("expected len=1, got %d", q.Len())
	}
}

func TestCompatible_MutualGender(t *testing.T) {
	cases := []struct {
		name     string
		a, b     *Entry
		expected bool
	}{
		{
			name:     "both all",
			a:        entry("a", GenderAll, GenderAll, "US", false),
			b:        entry("b", GenderAll, GenderAll, "US", false),
			expected: true,
		},
		{
			name:     "mutual preference satisfied",
			a:        entry("a", GenderMale, GenderFemale, "US", false),
			b:        entry("b", GenderFemale, GenderMale, "US", false),
			expected: true,
		},
		{
			name:     "one side rejects",
			a:        entry("a", GenderMale, GenderFemale, "US", false),
			b:        entry("b", GenderFemale, GenderFemale, "US", false),
			expected: false,
		},
		{
			name:     "requester rejects candidate",
			a:        entry("a", GenderFemale, GenderFemale, "US", false),
			b:        entry("b", GenderMale, GenderAll, "US", false),
			expected: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Compatible(tc.a, tc.b, false); got != tc.expected {
				t.Errorf("Compatible() = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestCompatible_Country(t *testing.T) {
	// One side restricting to same country forces the check for both.
	a := entry("a", GenderAll, GenderAll, "US", true)
	b := entry("b", GenderAll, GenderAll, "DE", false)
	if Compatible(a, b, false) {
		t.Error("different countries with one same_country=true should not match")
	}

	b.Country = "US"
	if !Compatible(a, b, false) {
		t.Error("same country should match")
	}
}

func TestCompatible_ForceGlobalWaivesCountryOnly(t *testing.T) {
	a := entry("a", GenderAll, GenderAll, "US", true)
	b := entry("b", GenderAll, GenderAll, "DE", true)
	if !Compatible(a, b, true) {
		t.Error("forceGlobal should waive the country restriction")
	}

	// The gender predicate must survive forceGlobal.
	c := entry("c", GenderMale, GenderFemale, "US", true)
	d := entry("d", GenderMale, GenderAll, "DE", true)
	if Compatible(c, d, true) {
		t.Error("forceGlobal must not waive the gender predicate")
	}
}

func TestQueue_FindMatch_FIFO(t *testing.T) {
	q := NewQueue()
	q.Add(entry("old", GenderAll, GenderAll, "US", false))
	q.Add(entry("new", GenderAll, GenderAll, "US", false))

	req := entry("req", GenderAll, GenderAll, "US", false)
	got := q.FindMatch(req, false)
	if got == nil || got.ID != "old" {
		t.Fatalf("expected oldest compatible entry %q, got %+v", "old", got)
	}
}

func TestQueue_FindMatch_SkipsIncompatibleAndSelf(t *testing.T) {
	q := NewQueue()
	q.Add(entry("req", GenderAll, GenderAll, "US", false))
	q.Add(entry("wrong", GenderMale, GenderMale, "US", false))
	q.Add(entry("right", GenderFemale, GenderAll, "US", false))

	req := q.Get("req")
	req.DesiredGender = GenderFemale

	got := q.FindMatch(req, false)
	if got == nil || got.ID != "right" {
		t.Fatalf("expected %q, got %+v", "right", got)
	}
}

func TestQueue_FindMatch_Empty(t *testing.T) {
	q := NewQueue()
	if got := q.FindMatch(entry("req", GenderAll, GenderAll, "US", false), false); got != nil {
		t.Errorf("expected nil on empty queue, got %+v", got)
	}
}

func TestFilters_Restrictive(t *testing.T) {
	cases := []struct {
		f        Filters
		expected bool
	}{
		{Filters{SelfGender: GenderAll, DesiredGender: GenderAll}, false},
		{Filters{SelfGender: GenderMale, DesiredGender: GenderAll}, false},
		{Filters{SelfGender: GenderAll, DesiredGender: GenderFemale}, true},
		{Filters{SelfGender: GenderAll, DesiredGender: GenderAll, SameCountry: true}, true},
	}
	for _, tc := range cases {
		if got := tc.f.Restrictive(); got != tc.expected {
			t.Errorf("Restrictive(%+v) = %v, want %v", tc.f, got, tc.expected)
		}
	}
}
