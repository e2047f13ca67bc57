package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Synthesizer is the terminal aggregation step: it tallies the
// persisted pipeline output, asks the model for strategic
// recommendations once, and writes a markdown report.
type Synthesizer struct {
	cfg      Config
	complete completeFunc
}

func NewSynthesizer(cfg Config) *Synthesizer {
	return &Synthesizer{cfg: cfg, complete: newCompleter(cfg)}
}

// Run reads the persisted results, produces the report file, and
// returns its path.
func (s *Synthesizer) Run() (string, error) {
	results, err := LoadResults(s.cfg.ResultsPath)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no results in %s", s.cfg.ResultsPath)
	}

	recommendations, usage, err := s.Summarize(results)
	if err != nil {
		return "", err
	}
	log.Printf("synthesis complete records=%d tokens_in=%d tokens_out=%d", len(results), usage.InputTokens, usage.OutputTokens)

	content := BuildSummaryMarkdown(results, recommendations)
	return WriteReportFile(content, s.cfg.ReportOutputDir, time.Now())
}

// Summarize renders the tallies into the synthesis prompt and makes the
// single recommendation call.
func (s *Synthesizer) Summarize(results []ProcessedFeedback) (string, LLMUsage, error) {
	catOrder, catCounts := tallyCategories(results)
	areaOrder, areaCounts := tallyProblemAreas(results)
	highPriority := countHighPriority(results)

	model := s.cfg.SynthesisModel
	if model == "" {
		model = s.cfg.LLMModel
	}
	prompt := buildSynthesisPrompt(
		formatTallies(catOrder, catCounts),
		fmt.Sprintf("%d", highPriority),
		formatTallies(areaOrder, areaCounts),
	)

	return completeWithRetry(s.complete, s.cfg.LLMMaxRetries, CompletionRequest{
		Model:       model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   s.cfg.PipelineMaxTokens,
		Temperature: pipelineTemperature,
	})
}

// BuildSummaryMarkdown combines the overview counts, category and
// priority breakdowns, and the model's free-text recommendations. The
// priority distribution is recomputed over the full set, not just the
// high-priority subset.
func BuildSummaryMarkdown(results []ProcessedFeedback, recommendations string) string {
	catOrder, catCounts := tallyCategories(results)
	priOrder, priCounts := tallyPriorities(results)

	var b strings.Builder
	b.WriteString("# Feedback Analysis Summary\n\n")
	b.WriteString("## Overview\n")
	b.WriteString(fmt.Sprintf("- **Total Processed**: %d feedback items\n\n", len(results)))

	b.WriteString("## Category Breakdown\n")
	for _, cat := range catOrder {
		b.WriteString(fmt.Sprintf("- **%s**: %d\n", cat, catCounts[cat]))
	}
	b.WriteString("\n## Priority Distribution\n")
	for _, pri := range priOrder {
		b.WriteString(fmt.Sprintf("- **%s**: %d\n", pri, priCounts[pri]))
	}
	b.WriteString("\n## Recommendations\n")
	b.WriteString(strings.TrimSpace(recommendations))
	b.WriteString("\n")
	return b.String()
}

func WriteReportFile(content, outputDir string, reportDate time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("feedback_summary_%s.md", reportDate.Format("20060102"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(content), 0644)
}

// Tallies preserve first-seen order so reports are stable in input order.

func tallyCategories(results []ProcessedFeedback) ([]string, map[string]int) {
	return tally(results, func(pf ProcessedFeedback) (string, bool) {
		return pf.Category, true
	})
}

func tallyPriorities(results []ProcessedFeedback) ([]string, map[string]int) {
	return tally(results, func(pf ProcessedFeedback) (string, bool) {
		return pf.Priority, true
	})
}

// tallyProblemAreas counts benefit types among records with severity >= 4.
func tallyProblemAreas(results []ProcessedFeedback) ([]string, map[string]int) {
	return tally(results, func(pf ProcessedFeedback) (string, bool) {
		return pf.BenefitType, pf.Severity >= 4
	})
}

func countHighPriority(results []ProcessedFeedback) int {
	count := 0
	for _, pf := range results {
		if pf.Priority == "high" {
			count++
		}
	}
	return count
}

func tally(results []ProcessedFeedback, key func(ProcessedFeedback) (string, bool)) ([]string, map[string]int) {
	var order []string
	counts := make(map[string]int)
	for _, pf := range results {
		k, ok := key(pf)
		if !ok {
			continue
		}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}
	return order, counts
}

func formatTallies(order []string, counts map[string]int) string {
	if len(order) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(order))
	for _, k := range order {
		parts = append(parts, fmt.Sprintf("%s: %d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}
