package model

import (
	"testing"
)

func TestDocument_StatusHelpers(t *testing.T) {
	tests := []struct {
		status        string
		wantDraft     bool
		wantPublished bool
	}{
		{StatusDraft, true, false},
		{StatusPublished, false, true},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			d := &Document{Status: tt.status}
			if d.IsDraft() != tt.wantDraft {
				t.Errorf("IsDraft() = %v, want %v", d.IsDraft(), tt.wantDraft)
			}
			if d.IsPublished() != tt.wantPublished {
				t.Errorf("IsPublished() = %v, want %v", d.IsPublished(), tt.wantPublished)
			}
		})
	}
}

func TestDocument_IsOwnedBy(t *testing.T) {
	d := &Document{UserID: "owner"}

	if !d.IsOwnedBy("owner") {
		t.Error("owner should own the document")
	}
	if d.IsOwnedBy("other") {
		t.Error("other user should not own the document")
	}
	if d.IsOwnedBy("") {
		t.Error("anonymous caller should never own a document")
	}
	if (&Document{}).IsOwnedBy("") {
		t.Error("empty owner must not match an anonymous caller")
	}
}

func TestPayload_CloneIsDeep(t *testing.T) {
	p := Payload{
		"meta":    map[string]any{"color": "blue"},
		"actions": []any{map[string]any{"action": "run"}},
	}

	c := p.Clone()
	c["meta"].(map[string]any)["color"] = "red"
	c["actions"].([]any)[0].(map[string]any)["action"] = "sleep"

	if p["meta"].(map[string]any)["color"] != "blue" {
		t.Error("nested object was shared between clones")
	}
	if p["actions"].([]any)[0].(map[string]any)["action"] != "run" {
		t.Error("array element was shared between clones")
	}
	if Payload(nil).Clone() == nil {
		t.Error("nil payload should clone to an empty payload")
	}
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload(nil)
	if err != nil || len(p) != 0 {
		t.Fatalf("empty input: got %v, %v", p, err)
	}

	p, err = ParsePayload([]byte("null"))
	if err != nil || p == nil {
		t.Fatalf("null input should yield empty payload, got %v, %v", p, err)
	}

	p, err = ParsePayload([]byte(`{"a":1,"b":{"c":"d"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p["a"] != float64(1) {
		t.Errorf("a = %v, want 1", p["a"])
	}

	if _, err := ParsePayload([]byte(`[1,2]`)); err == nil {
		t.Error("array input should be rejected")
	}

	var nilPayload Payload
	data, err := nilPayload.Encode()
	if err != nil || string(data) != "{}" {
		t.Errorf("nil payload should encode as {}, got %s, %v", data, err)
	}
}
