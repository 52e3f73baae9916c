package extract

import (
	"bytes"
	"encoding/json"
	"strings"
)

// EncodeLabels serialises labels into the single-field list encoding. The
// result is always a JSON array; nil encodes as "[]".
func EncodeLabels(labels []string) string {
	if labels == nil {
		labels = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(labels); err != nil {
		return "[]"
	}
	return strings.TrimRight(buf.String(), "\n")
}

// DisplayText renders labels one per line.
func DisplayText(labels []string) string {
	return strings.Join(labels, "\n")
}

// SplitDisplayText parses a free-text buffer where entries are separated by
// newlines or commas. Entries are trimmed and blanks dropped.
func SplitDisplayText(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == ','
	})
	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			labels = append(labels, f)
		}
	}
	return labels
}
