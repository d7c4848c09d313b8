package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseClientMessage_FindPartner(t *testing.T) {
	data := []byte(`{"type":"find_partner","self_gender":"male","desired_gender":"female","same_country":true}`)

	msgType, msg, err := ParseClientMessage(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgType != TypeFindPartner {
		t.Errorf("expected type %q, got %q", TypeFindPartner, msgType)
	}

	m, ok := msg.(FindPartnerMsg)
	if !ok {
		t.Fatalf("expected FindPartnerMsg, got %T", msg)
	}
	if m.SelfGender != "male" || m.DesiredGender != "female" || !m.SameCountry {
		t.Errorf("unexpected fields: %+v", m)
	}
}

func TestParseClientMessage_FindPartnerDefaults(t *testing.T) {
	data := []byte(`{"type":"find_partner"}`)

	_, msg, err := ParseClientMessage(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := msg.(FindPartnerMsg)
	if m.SelfGender != "" || m.DesiredGender != "" || m.SameCountry {
		t.Errorf("omitted fields should be zero values: %+v", m)
	}
}

func TestParseClientMessage_Signal(t *testing.T) {
	data := []byte(`{"type":"signal","target_id":"abc","payload":{"sdp":"offer","nested":{"a":1}}}`)

	msgType, msg, err := ParseClientMessage(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgType != TypeSignal {
		t.Errorf("expected type %q, got %q", TypeSignal, msgType)
	}

	m := msg.(SignalMsg)
	if m.TargetID != "abc" {
		t.Errorf("unexpected target: %q", m.TargetID)
	}
	// The payload stays raw: no interpretation or re-encoding on parse.
	var payload map[string]interface{}
	if err := json.Unmarshal(m.Payload, &payload); err != nil {
		t.Fatalf("payload should be valid JSON: %v", err)
	}
	if payload["sdp"] != "offer" {
		t.Errorf("unexpected payload: %v", payload)
	}
}

func TestParseClientMessage_Report(t *testing.T) {
	data := []byte(`{"type":"report","target_id":"xyz","evidence":"spamming links"}`)

	_, msg, err := ParseClientMessage(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := msg.(ReportMsg)
	if m.TargetID != "xyz" || m.Evidence != "spamming links" {
		t.Errorf("unexpected fields: %+v", m)
	}
}

func TestParseClientMessage_StopAndPing(t *testing.T) {
	for _, typ := range []string{TypeStop, TypePing} {
		msgType, _, err := ParseClientMessage([]byte(`{"type":"` + typ + `"}`))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", typ, err)
		}
		if msgType != typ {
			t.Errorf("expected type %q, got %q", typ, msgType)
		}
	}
}

func TestParseClientMessage_Errors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"invalid json", `{not json`},
		{"missing type", `{"target_id":"abc"}`},
		{"empty type", `{"type":""}`},
		{"unknown type", `{"type":"launch_missiles"}`},
		{"server-only type", `{"type":"matched"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := ParseClientMessage([]byte(tc.data)); err == nil {
				t.Errorf("expected error for %s", tc.data)
			}
		})
	}
}

func TestNewServerMessage_InjectsType(t *testing.T) {
	data, err := NewServerMessage(TypeMatched, MatchedMsg{
		PartnerID: "p1",
		Country:   "US",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("output should be valid JSON: %v", err)
	}
	if m["type"] != TypeMatched {
		t.Errorf("expected type %q, got %v", TypeMatched, m["type"])
	}
	if m["partner_id"] != "p1" || m["country"] != "US" {
		t.Errorf("unexpected fields: %v", m)
	}
}

func TestNewServerMessage_SignalRoundTrip(t *testing.T) {
	payload := json.RawMessage(`{"candidate":"host 10.0.0.1"}`)
	data, err := NewServerMessage(TypeSignal, ServerSignalMsg{
		From:    "sender",
		Payload: payload,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, `"from":"sender"`) {
		t.Errorf("expected from field, got %s", out)
	}
	if !strings.Contains(out, `"candidate":"host 10.0.0.1"`) {
		t.Errorf("payload should survive encoding, got %s", out)
	}
}
