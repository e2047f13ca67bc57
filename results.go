package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteResults rewrites the full results file. The pipeline calls this
// after every record, so a crash loses at most the in-flight record and
// the file is always a complete JSON array.
func WriteResults(path string, results []ProcessedFeedback) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

func LoadResults(path string) ([]ProcessedFeedback, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	var results []ProcessedFeedback
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return results, nil
}
