package match

import "context"

// Report is handed to the moderation gate when a client reports another
// participant. Addresses are included for ban enforcement; they never reach
// clients.
type Report struct {
	ReporterID   string `json:"reporter_id"`
	ReporterAddr string `json:"reporter_addr"`
	TargetID     string `json:"target_id"`
	TargetAddr   string `json:"target_addr"`
	Evidence     string `json:"evidence"`
	Ts           int64  `json:"ts"`
}

// Gate is the moderation authority the core consults but does not implement.
// IsBanned is called synchronously at admission time; RecordReport hands a
// report off for external persistence and ban escalation.
type Gate interface {
	IsBanned(ctx context.Context, address string) (bool, error)
	RecordReport(ctx context.Context, rep Report) error
}

// CountryResolver maps a network address to an ISO country code. Resolvers
// return UnknownCountry when the address cannot be resolved.
type CountryResolver interface {
	Country(ctx context.Context, address string) string
}

// ResolverFunc adapts a function to the CountryResolver interface.
type ResolverFunc func(ctx context.Context, address string) string

// Country implements CountryResolver.
func (f ResolverFunc) Country(ctx context.Context, address string) string {
	return f(ctx, address)
}

// openGate admits everyone and drops reports. It is the default when no gate
// is configured.
type openGate struct{}

func (openGate) IsBanned(context.Context, string) (bool, error) { return false, nil }
func (openGate) RecordReport(context.Context, Report) error     { return nil }
