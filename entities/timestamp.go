package entities

import (
	"encoding/json"
	"strings"
	"time"
)

// timestampLayouts are tried in order. The upstream serialises naive datetimes,
// sometimes with a space separator and microseconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a tolerant creation time. Raw keeps the upstream text so an
// unparseable value still round-trips and can be shown as-is.
type Timestamp struct {
	Time time.Time
	Raw  string
}

// ParseTimestamp parses raw with the known layouts. On failure the returned
// Timestamp has a zero Time and keeps Raw.
func ParseTimestamp(raw string) Timestamp {
	raw = strings.TrimSpace(raw)
	ts := Timestamp{Raw: raw}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			ts.Time = t
			return ts
		}
	}
	return ts
}

// NewTimestamp wraps t, rendering Raw as RFC3339.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, Raw: t.Format(time.RFC3339)}
}

// Valid reports whether the raw value parsed.
func (ts Timestamp) Valid() bool {
	return !ts.Time.IsZero()
}

// Date formats the calendar day as DD/MM/YYYY, or returns Raw when unparsed.
func (ts Timestamp) Date() string {
	if !ts.Valid() {
		return ts.Raw
	}
	return ts.Time.Format("02/01/2006")
}

// DateTime formats as DD/MM/YYYY HH:MM, or returns Raw when unparsed.
func (ts Timestamp) DateTime() string {
	if !ts.Valid() {
		return ts.Raw
	}
	return ts.Time.Format("02/01/2006 15:04")
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.Raw == "" && ts.Valid() {
		return json.Marshal(ts.Time.Format(time.RFC3339))
	}
	return json.Marshal(ts.Raw)
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*ts = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*ts = ParseTimestamp(raw)
	return nil
}
