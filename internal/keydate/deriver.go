package keydate

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/hyeon/campus-notices/internal/models"
)

// DefaultTypeLabel is used when the source entry carries no usable label.
const DefaultTypeLabel = "주요 일정"

// Field-name aliases, in fallback order. The upstream producer is not
// consistent about casing or naming, so every candidate is resolved against
// the full list before falling back.
var (
	labelAliases = []string{"keyDateType", "key_date_type", "dateType", "date_type", "type", "label"}
	textAliases  = []string{"keyDate", "key_date", "dateText", "date_text", "date", "text"}
	isoAliases   = []string{"isoDate", "iso_date", "iso", "datetime", "date_time"}
	listAliases  = []string{"keyDates", "key_dates", "dates", "entries"}
)

// candidate is the canonical form every source shape is normalized into
// before any derivation logic runs.
type candidate struct {
	label string
	text  string
	iso   string
}

// Derive extracts a deduplicated list of key-date entries from a notice's
// qualification metadata. The metadata may be a JSON object, a JSON array, or
// a JSON-encoded string containing either; malformed input yields an empty
// list, never an error. Output order is insertion order and derivation is
// pure — identical input always yields element-wise identical output.
func Derive(raw json.RawMessage) []models.KeyDateEntry {
	return DeriveAt(raw, time.Now())
}

// DeriveAt is Derive with an explicit "now" for date-text parsing.
func DeriveAt(raw json.RawMessage, now time.Time) []models.KeyDateEntry {
	entries := []models.KeyDateEntry{}

	obj := decodeMetadata(raw)
	if obj == nil {
		return entries
	}

	seen := map[string]bool{}
	for _, c := range collectCandidates(obj) {
		label := strings.TrimSpace(c.label)
		if label == "" {
			label = DefaultTypeLabel
		}
		text := strings.TrimSpace(c.text)
		if text == "" {
			continue
		}

		id := label + "|" + text
		if seen[id] {
			continue
		}
		seen[id] = true

		entries = append(entries, models.KeyDateEntry{
			ID:        id,
			TypeLabel: label,
			DateText:  text,
			ParsedAt:  resolveTimestamp(c.iso, text, label, now),
		})
	}

	return entries
}

// decodeMetadata unwraps the metadata into a generic value, tolerating both
// direct JSON and a JSON string wrapping JSON (double encoding happens when
// the value round-trips through a text column).
func decodeMetadata(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}

	if s, ok := v.(string); ok {
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			return nil
		}
		v = inner
	}

	return v
}

// collectCandidates normalizes both supported shapes into a flat candidate
// list: the list-of-entries shape first (when present and non-empty), then
// always the single flat {type, date} pair — legacy payloads carry only the
// latter, and some carry both.
func collectCandidates(v any) []candidate {
	var out []candidate

	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				out = append(out, candidateFromMap(m))
			}
		}
	case map[string]any:
		for _, key := range listAliases {
			list, ok := val[key].([]any)
			if !ok || len(list) == 0 {
				continue
			}
			for _, item := range list {
				if m, ok := item.(map[string]any); ok {
					out = append(out, candidateFromMap(m))
				}
			}
			break
		}
		out = append(out, candidateFromMap(val))
	}

	return out
}

func candidateFromMap(m map[string]any) candidate {
	return candidate{
		label: stringField(m, labelAliases),
		text:  stringField(m, textAliases),
		iso:   stringField(m, isoAliases),
	}
}

func stringField(m map[string]any, aliases []string) string {
	for _, key := range aliases {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// resolveTimestamp prefers an explicit ISO timestamp supplied alongside the
// entry; only when that is absent or unparseable does it fall back to the
// free-text parser, using the entry's label as deadline context.
func resolveTimestamp(iso, text, label string, now time.Time) *time.Time {
	if t, ok := parseISOCandidate(iso); ok {
		return &t
	}
	if t, ok := ParseAt(text, label, now); ok {
		return &t
	}
	return nil
}

func parseISOCandidate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, raw); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
