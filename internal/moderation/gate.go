// Package moderation implements the moderation gate the pairing core
// consults: admission checks against the Redis ban store and report intake
// published to NATS for the moderation service to persist and act on.
package moderation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pairwire/match-app/internal/ban"
	"github.com/pairwire/match-app/internal/match"
)

// ReportSink publishes a serialized report to the moderation intake channel.
// Implemented by the messaging NATS client.
type ReportSink interface {
	PublishModerationReport(data []byte) error
}

// Gate combines the ban store with the report intake. It satisfies
// match.Gate.
type Gate struct {
	bans *ban.Store
	sink ReportSink
}

// NewGate creates a Gate. The sink may be nil, in which case reports are
// accepted but go nowhere (useful for local development without NATS).
func NewGate(bans *ban.Store, sink ReportSink) *Gate {
	return &Gate{bans: bans, sink: sink}
}

// IsBanned reports whether the address is currently banned.
func (g *Gate) IsBanned(ctx context.Context, address string) (bool, error) {
	banned, _, _, err := g.bans.IsBanned(ctx, address)
	return banned, err
}

// BanInfo returns full ban details for an address, used to populate the
// terminal banned message on admission rejection.
func (g *Gate) BanInfo(ctx context.Context, address string) (banned bool, remainingSec int, reason string) {
	banned, remainingSec, reason, _ = g.bans.IsBanned(ctx, address)
	return banned, remainingSec, reason
}

// RecordReport hands a report to the moderation service via the intake
// subject. Persistence and auto-ban escalation happen in moderationd.
func (g *Gate) RecordReport(ctx context.Context, rep match.Report) error {
	if g.sink == nil {
		return nil
	}
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("moderation: marshal report: %w", err)
	}
	if err := g.sink.PublishModerationReport(data); err != nil {
		return fmt.Errorf("moderation: publish report: %w", err)
	}
	return nil
}
