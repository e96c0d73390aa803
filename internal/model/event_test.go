package model

import (
	"errors"
	"testing"

	json "github.com/goccy/go-json"
)

func TestEventUnmarshalDispatchesOnType(t *testing.T) {
	raw := `{
		"uuid": "e-1",
		"timestamp_millis": 1700000000000,
		"type": "track",
		"data": {
			"name": "Clicked",
			"properties": [["category", "cta"], ["color", "red"]],
			"products": [[["sku", "S1"], ["price", "9.5"]]]
		},
		"context": {
			"client": {"user_agent": "ua", "screen_width": 10, "screen_height": 20, "country_code": "FR"},
			"session": {"session_start": true, "session_count": 2, "first_seen": 1, "last_seen": 2},
			"campaign": {"name": "c", "term": "t"}
		}
	}`

	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := ev.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	td, ok := ev.Data.(TrackData)
	if !ok {
		t.Fatalf("expected TrackData, got %T", ev.Data)
	}
	if td.Name != "Clicked" || len(td.Properties) != 2 || td.Properties[1].Value != "red" {
		t.Fatalf("unexpected track data %+v", td)
	}
	if v, _ := td.Products[0].Get("price"); v != "9.5" {
		t.Fatalf("expected product price 9.5, got %q", v)
	}
	if ev.Context.Client.ScreenHeight != 20 || !ev.Context.Session.SessionStart || ev.Context.Campaign.Term != "t" {
		t.Fatalf("unexpected context %+v", ev.Context)
	}
	if ev.TimestampMillis != 1700000000000 {
		t.Fatalf("unexpected timestamp %d", ev.TimestampMillis)
	}
}

func TestEventUnmarshalUnknownType(t *testing.T) {
	var ev Event
	err := json.Unmarshal([]byte(`{"type":"screen","data":{}}`), &ev)
	if !errors.Is(err, ErrUnknownEventType) {
		t.Fatalf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestEventRoundTripKeepsVariant(t *testing.T) {
	ev := Event{
		UUID: "u",
		Type: EventUser,
		Data: UserData{UserID: "id", AnonymousID: "anon", Properties: Dict{{Key: "a", Value: "1"}}},
	}
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Event
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ud, ok := back.Data.(UserData)
	if !ok || ud.AnonymousID != "anon" || ud.Properties[0].Key != "a" {
		t.Fatalf("unexpected data after round trip: %#v", back.Data)
	}
}

func TestEventValidate(t *testing.T) {
	if err := (Event{Type: EventPage, Data: TrackData{}}).Validate(); err == nil {
		t.Fatalf("expected mismatch error")
	}
	if err := (Event{Type: EventPage}).Validate(); err == nil {
		t.Fatalf("expected missing data error")
	}
	if err := (Event{Type: EventPage, Data: (*PageData)(nil)}).Validate(); err == nil {
		t.Fatalf("expected nil pointer data to be rejected")
	}
	if err := (Event{Type: EventPage, Data: &PageData{}}).Validate(); err != nil {
		t.Fatalf("expected pointer variant to validate, got %v", err)
	}
}

func TestDictObjectFormIsSorted(t *testing.T) {
	var d Dict
	if err := json.Unmarshal([]byte(`{"b":"2","a":"1"}`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(d) != 2 || d[0].Key != "a" || d[1].Key != "b" {
		t.Fatalf("unexpected dict %v", d)
	}
}

func TestDictRejectsMalformedPairs(t *testing.T) {
	var d Dict
	if err := json.Unmarshal([]byte(`[["only-key"]]`), &d); err == nil {
		t.Fatalf("expected error for malformed pair")
	}
}

func TestDictGetLastWins(t *testing.T) {
	d := Dict{{Key: "k", Value: "1"}, {Key: "k", Value: "2"}}
	if v, _ := d.Get("k"); v != "2" {
		t.Fatalf("expected last value, got %q", v)
	}
	if d.Map()["k"] != "2" {
		t.Fatalf("expected map last value")
	}
	if _, ok := d.Get("missing"); ok {
		t.Fatalf("expected missing key")
	}
}
