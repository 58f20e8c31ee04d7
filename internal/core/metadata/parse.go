package metadata

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// rawMetadata mirrors the JSON shape requested from the LLM, before any
// validation. Entities tolerates a non-list value by becoming nil.
type rawMetadata struct {
	Category *string    `json:"tipo_documento"`
	Topic    *string    `json:"tema_principal"`
	Date     *string    `json:"fecha_documento"`
	Entities stringList `json:"entidades_clave"`
	Summary  *string    `json:"resumen_corto"`
}

// stringList unmarshals a JSON array of strings, silently dropping
// non-string elements. Any other JSON value decodes to nil.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		*l = nil
		return nil
	}
	var out []string
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// parseResponse decodes the LLM reply as JSON. On a strict-parse failure it
// applies one bounded repair pass: strip markdown code fences, then extract
// the first balanced-looking object span and re-parse. Anything beyond that
// is rejected.
func parseResponse(raw string) (*rawMetadata, error) {
	raw = strings.TrimSpace(raw)

	var meta rawMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err == nil {
		return &meta, nil
	}

	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	if m := jsonObjectRe.FindString(cleaned); m != "" {
		cleaned = m
	}

	if err := json.Unmarshal([]byte(cleaned), &meta); err != nil {
		return nil, fmt.Errorf("unparseable LLM response: %w", err)
	}
	return &meta, nil
}

var datePatternRe = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)

// ValidateDate accepts a string embedding a YYYY-M-D pattern that parses to
// a real calendar date, normalized to YYYY-MM-DD. Anything else is absent.
func ValidateDate(date *string) *string {
	if date == nil {
		return nil
	}
	m := datePatternRe.FindStringSubmatch(*date)
	if m == nil {
		return nil
	}
	parsed, err := time.Parse("2006-1-2", fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]))
	if err != nil {
		return nil
	}
	normalized := parsed.Format("2006-01-02")
	return &normalized
}
