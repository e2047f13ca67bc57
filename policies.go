package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// fallbackPolicies stands in when no policy file is configured; the
// model then leans on conversation history alone.
const fallbackPolicies = "Use conversation history to provide helpful guidance."

// LoadPolicies reads the static policy store, a flat JSON mapping of
// policy name to description, and joins it into the one block inserted
// verbatim into the chat system prompt. An empty path yields the
// fallback blob. Loaded once per session and never refreshed mid-session.
func LoadPolicies(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return fallbackPolicies, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read policies: %w", err)
	}
	var policies map[string]string
	if err := json.Unmarshal(data, &policies); err != nil {
		return "", fmt.Errorf("parse policies json: %w", err)
	}

	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(policies[name])
	}
	return b.String(), nil
}
