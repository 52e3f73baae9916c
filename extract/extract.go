// Package extract decodes the multi-value fields that the upstream API
// serialises as JSON arrays inside a single text attribute.
//
// Every decoder here is total: malformed input yields an empty result, never
// an error or a panic. This is the only place that parses those fields.
package extract

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/aldeia/relatos-dashboard/entities"
	"golang.org/x/text/encoding/charmap"
)

// Record keys used by the structuring step.
const (
	SymptomKey = "sintoma"
	TermKey    = "termo_nativo"
	MeaningKey = "significado_aproximado"
	ContextKey = "contexto_cultural_saude"
)

// Entry is one decoded list element. Structured is set when the element was
// an object rather than a bare value.
type Entry struct {
	Label      string `json:"label"`
	Meaning    string `json:"meaning,omitempty"`
	Context    string `json:"context,omitempty"`
	Structured bool   `json:"structured"`
}

// DecodeList decodes raw as a JSON array. labelKey names the object field
// that carries the label; objects without it are labelled by their stable
// stringification so nothing is dropped. null elements are skipped.
func DecodeList(raw, labelKey string) []Entry {
	elems, ok := decodeArray(raw)
	if !ok || len(elems) == 0 {
		return nil
	}

	entries := make([]Entry, 0, len(elems))
	for _, elem := range elems {
		if entry, ok := decodeEntry(elem, labelKey); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Symptoms decodes the identified-symptoms field of sd.
func Symptoms(sd *entities.StructuredData) []Entry {
	if sd == nil {
		return nil
	}
	return DecodeList(sd.Symptoms, SymptomKey)
}

// IndigenousTerms decodes the indigenous-term correspondences of sd.
func IndigenousTerms(sd *entities.StructuredData) []Entry {
	if sd == nil {
		return nil
	}
	return DecodeList(sd.IndigenousTerms, TermKey)
}

// Recommendations decodes the recommendation list of an explanation. A value
// that is not a JSON array is returned as a single free-text recommendation.
func Recommendations(e *entities.MedicalExplanation) []string {
	if e == nil || strings.TrimSpace(e.Recommendations) == "" {
		return nil
	}
	if _, ok := decodeArray(e.Recommendations); !ok {
		return []string{e.Recommendations}
	}
	return Labels(DecodeList(e.Recommendations, ""))
}

// Labels returns the label of each entry, in order.
func Labels(entries []Entry) []string {
	if len(entries) == 0 {
		return nil
	}
	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = e.Label
	}
	return labels
}

// Valid reports whether raw is absent or decodes as a JSON array. Decoding
// never depends on it.
func Valid(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return true
	}
	_, ok := decodeArray(raw)
	return ok
}

// decodeArray reports false when raw is blank or not a JSON array.
func decodeArray(raw string) ([]json.RawMessage, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}

	data := []byte(raw)
	if !utf8.Valid(data) {
		// Latin-1 text slipped through upstream; recover it instead of
		// discarding the field.
		decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(data)))
		if err != nil {
			return nil, false
		}
		data = decoded
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, false
	}
	return elems, true
}

func decodeEntry(elem json.RawMessage, labelKey string) (Entry, bool) {
	trimmed := bytes.TrimSpace(elem)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Entry{}, false
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Entry{}, false
		}
		return Entry{Label: s}, true
	case '{':
		var record map[string]any
		if err := json.Unmarshal(trimmed, &record); err != nil {
			return Entry{}, false
		}
		return recordEntry(record, labelKey), true
	default:
		return Entry{Label: compact(trimmed)}, true
	}
}

func recordEntry(record map[string]any, labelKey string) Entry {
	entry := Entry{
		Structured: true,
		Meaning:    stringField(record, MeaningKey),
		Context:    stringField(record, ContextKey),
	}

	// Falsy label values (missing, "", 0, false) fall back to the record.
	switch v := record[labelKey].(type) {
	case string:
		if v != "" {
			entry.Label = v
			return entry
		}
	case float64:
		if v != 0 {
			entry.Label = stringify(v)
			return entry
		}
	case bool:
		if v {
			entry.Label = "true"
			return entry
		}
	case nil:
	default:
		entry.Label = stringify(v)
		return entry
	}

	entry.Label = stringify(record)
	return entry
}

func stringField(record map[string]any, key string) string {
	if s, ok := record[key].(string); ok {
		return s
	}
	return ""
}

// stringify renders v as JSON with sorted object keys and without HTML
// escaping, so equal records always produce the same label.
func stringify(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimRight(buf.String(), "\n")
}

func compact(b []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return string(b)
	}
	return buf.String()
}
