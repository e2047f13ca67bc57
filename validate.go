package main

import (
	"encoding/json"
	"math"
	"strings"
)

// Stage validators. Each one is a pure, total function over the raw
// model output: malformed or out-of-set answers degrade to the unknown
// sentinel for that field, they never produce an error. Transport
// failures are the completion client's problem, not the validators'.

// stripCodeFence removes a markdown ```json fence the model sometimes
// wraps around its answer despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// validateCategory accepts only an exact member of ValidCategories.
// A near-miss is the final answer: there is no re-ask on mismatch.
func validateCategory(raw string) string {
	raw = stripCodeFence(raw)
	for _, c := range ValidCategories {
		if raw == c {
			return c
		}
	}
	return CategoryUnknown
}

// parseSentiment decodes {"sentiment": ..., "severity": ...}. A failed
// parse degrades both fields at once; after a successful parse the two
// fields are validated independently, so a bogus severity never forces
// sentiment to unknown and vice versa.
func parseSentiment(raw string) (string, int) {
	var out struct {
		Sentiment any `json:"sentiment"`
		Severity  any `json:"severity"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		return ValueUnknown, SeverityUnknown
	}

	sentiment := ValueUnknown
	if s, ok := out.Sentiment.(string); ok {
		for _, v := range ValidSentiments {
			if s == v {
				sentiment = v
				break
			}
		}
	}

	// Severity must be an integral JSON number in [1,5]; 3.5 or "4" is
	// rejected, not rounded.
	severity := SeverityUnknown
	if f, ok := out.Severity.(float64); ok && f == math.Trunc(f) && f >= 1 && f <= 5 {
		severity = int(f)
	}

	return sentiment, severity
}

// validateAction accepts any non-empty text verbatim.
func validateAction(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ValueUnknown
	}
	return raw
}

// parseRouting decodes {"department": ..., "priority": ...}. Matching is
// case-insensitive and canonicalizes to the fixed label, so consumers
// only ever see a set member or the unknown sentinel.
func parseRouting(raw string) (string, string) {
	var out struct {
		Department any `json:"department"`
		Priority   any `json:"priority"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		return ValueUnknown, ValueUnknown
	}
	return matchLabel(out.Department, ValidDepartments), matchLabel(out.Priority, ValidPriorities)
}

func matchLabel(v any, allowed []string) string {
	s, ok := v.(string)
	if !ok {
		return ValueUnknown
	}
	s = strings.TrimSpace(s)
	for _, label := range allowed {
		if strings.EqualFold(s, label) {
			return label
		}
	}
	return ValueUnknown
}
