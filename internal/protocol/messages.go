// Package protocol defines the WebSocket message types and structures used for
// communication between the client and server. All messages are serialized as
// JSON and follow a consistent envelope format with a type discriminator.
// Signaling payloads are carried as raw JSON and never interpreted here.
package protocol

import (
	"encoding/json"
	"fmt"
)

// ---------------------------------------------------------------------------
// Message type constants
// ---------------------------------------------------------------------------

// Client -> Server message types.
const (
	TypeFindPartner = "find_partner"
	TypeStop        = "stop"
	TypeSignal      = "signal"
	TypeReport      = "report"
	TypePing        = "ping"
)

// Server -> Client message types. TypeSignal is shared: relayed signals go
// back out under the same type with a "from" field in place of "target_id".
const (
	TypeSessionCreated = "session_created"
	TypeMatched        = "matched"
	TypeWaiting        = "waiting"
	TypePartnerLeft    = "partner_left"
	TypeBanned         = "banned"
	TypeError          = "error"
	TypePong           = "pong"
)

// ---------------------------------------------------------------------------
// Envelope — used for initial JSON parsing to extract the type discriminator.
// ---------------------------------------------------------------------------

// Envelope holds the message type and the raw JSON payload for deferred
// parsing into a concrete struct.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements the json.Unmarshaler interface. It captures the
// full raw bytes and extracts only the "type" field so that the rest of the
// payload can be decoded later into the appropriate concrete struct.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	// Capture the full raw message for deferred parsing.
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	// Extract only the type field.
	var partial struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: failed to unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("protocol: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	return nil
}

// ---------------------------------------------------------------------------
// Client -> Server message structs
// ---------------------------------------------------------------------------

// FindPartnerMsg is sent by the client to request a partner. Empty gender
// fields mean "all". When the client is already in a session the server ends
// it first (skip semantics).
type FindPartnerMsg struct {
	Type          string `json:"type"`
	SelfGender    string `json:"self_gender"`
	DesiredGender string `json:"desired_gender"`
	SameCountry   bool   `json:"same_country"`
}

// StopMsg is sent by the client to leave the queue or end the current session
// without disconnecting the transport.
type StopMsg struct {
	Type string `json:"type"`
}

// SignalMsg carries an opaque negotiation payload addressed to the sender's
// current partner. The payload is relayed verbatim and never inspected.
type SignalMsg struct {
	Type     string          `json:"type"`
	TargetID string          `json:"target_id"`
	Payload  json.RawMessage `json:"payload"`
}

// ReportMsg is sent by the client to report another participant.
type ReportMsg struct {
	Type     string `json:"type"`
	TargetID string `json:"target_id"`
	Evidence string `json:"evidence"`
}

// PingMsg is a client-initiated keepalive ping.
type PingMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Server -> Client message structs
// ---------------------------------------------------------------------------

// SessionCreatedMsg is sent by the server once a new connection has been
// admitted and registered.
type SessionCreatedMsg struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participant_id"`
	Country       string `json:"country"`
}

// MatchedMsg is sent to both sides of a new pair. Only public partner
// attributes are exposed; the partner's network address never leaves the
// server.
type MatchedMsg struct {
	Type      string `json:"type"`
	PartnerID string `json:"partner_id"`
	Country   string `json:"country"`
}

// WaitingMsg is sent when the matcher broadens a queued participant's
// filters because no compatible partner appeared in time.
type WaitingMsg struct {
	Type  string `json:"type"`
	Scope string `json:"scope"` // "gender" or "global"
}

// ServerSignalMsg is a relayed negotiation payload from the partner.
type ServerSignalMsg struct {
	Type    string          `json:"type"`
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

// PartnerLeftMsg is sent when the partner ended the session or disconnected.
type PartnerLeftMsg struct {
	Type string `json:"type"`
}

// BannedMsg is the terminal message sent when an address fails the admission
// check. The connection is closed immediately after.
type BannedMsg struct {
	Type     string `json:"type"`
	Duration int    `json:"duration"` // remaining seconds, 0 if unknown
	Reason   string `json:"reason"`
}

// ErrorMsg is sent by the server to communicate an error condition.
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PongMsg is the server's response to a client ping.
type PongMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// ParseClientMessage parses raw WebSocket bytes into a typed client message.
// It returns the message type string, the decoded struct, and any error
// encountered during parsing. An error is returned for unknown or
// server-only message types.
func ParseClientMessage(data []byte) (string, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("protocol: failed to parse message: %w", err)
	}

	var (
		msg interface{}
		err error
	)

	switch env.Type {
	case TypeFindPartner:
		var m FindPartnerMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeStop:
		var m StopMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeSignal:
		var m SignalMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeReport:
		var m ReportMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypePing:
		var m PingMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	default:
		return env.Type, nil, fmt.Errorf("protocol: unknown client message type: %q", env.Type)
	}

	if err != nil {
		return env.Type, nil, fmt.Errorf("protocol: failed to decode %q payload: %w", env.Type, err)
	}
	return env.Type, msg, nil
}

// NewServerMessage creates a JSON-encoded byte slice for a server message.
// The msgType is injected into the payload under the "type" key. The payload
// should be one of the server message structs; this function marshals it to
// JSON, injects the type field, and returns the final bytes.
func NewServerMessage(msgType string, payload interface{}) ([]byte, error) {
	// Marshal the payload struct to a generic map so we can ensure the "type"
	// field is present and correct.
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal payload: %w", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("protocol: failed to unmarshal payload into map: %w", err)
	}

	m["type"] = msgType

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal server message: %w", err)
	}
	return out, nil
}
