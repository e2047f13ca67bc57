package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

// Markers unique to each stage prompt, used to route stub answers.
const (
	classifyMarker  = "Classify this employee feedback"
	sentimentMarker = "Analyze the sentiment and severity"
	actionMarker    = "identify a specific actionable task"
	routingMarker   = "Route this task"
)

func stubCompleter(responses map[string]string) completeFunc {
	return func(req CompletionRequest) (string, LLMUsage, error) {
		prompt := req.Messages[len(req.Messages)-1].Content
		for marker, resp := range responses {
			if strings.Contains(prompt, marker) {
				return resp, LLMUsage{InputTokens: 10, OutputTokens: 5}, nil
			}
		}
		return "", LLMUsage{}, fmt.Errorf("no stub response for prompt: %s", prompt)
	}
}

func testPipelineConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		LLMProvider:       "anthropic",
		LLMMaxRetries:     3,
		PipelineMaxTokens: 1000,
		ResultsPath:       filepath.Join(t.TempDir(), "results.json"),
	}
}

func TestPipelineScenario(t *testing.T) {
	cfg := testPipelineConfig(t)
	p := &Pipeline{
		cfg:     cfg,
		catalog: map[int64]string{3: "Health: Dental"},
		complete: stubCompleter(map[string]string{
			classifyMarker:  "Process Issues",
			sentimentMarker: `{"sentiment":"negative","severity":4}`,
			actionMarker:    "Escalate dental claim reimbursement delays",
			routingMarker:   `{"department":"Benefits Administration","priority":"high"}`,
		}),
	}

	records := []FeedbackRecord{
		{EmployeeID: 7, BenefitID: 3, Comments: "reimbursement took 2 months", SatisfactionScore: 2},
	}
	results, usage, err := p.Process(records, 50)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	want := ProcessedFeedback{
		EmployeeID:  7,
		BenefitType: "Health: Dental",
		Category:    "Process Issues",
		Sentiment:   "negative",
		Severity:    4,
		Action:      "Escalate dental claim reimbursement delays",
		Department:  "Benefits Administration",
		Priority:    "high",
	}
	if results[0] != want {
		t.Fatalf("unexpected result:\ngot  %+v\nwant %+v", results[0], want)
	}
	// Four stages, each one call.
	if usage.TotalTokens() != 4*15 {
		t.Fatalf("expected usage from 4 calls, got %d tokens", usage.TotalTokens())
	}

	persisted, err := LoadResults(cfg.ResultsPath)
	if err != nil {
		t.Fatalf("LoadResults failed: %v", err)
	}
	if len(persisted) != 1 || persisted[0] != want {
		t.Fatalf("persisted results mismatch: %+v", persisted)
	}
}

func TestPipelineDegradedSentimentContinues(t *testing.T) {
	cfg := testPipelineConfig(t)
	p := &Pipeline{
		cfg:     cfg,
		catalog: map[int64]string{1: "Health: Vision"},
		complete: stubCompleter(map[string]string{
			classifyMarker:  "Coverage Issues",
			sentimentMarker: "the sentiment is quite negative",
			actionMarker:    "Review vision coverage tiers",
			routingMarker:   `{"department":"HR Benefits Team","priority":"medium"}`,
		}),
	}

	results, _, err := p.Process([]FeedbackRecord{{EmployeeID: 1, BenefitID: 1, Comments: "glasses not covered", SatisfactionScore: 2}}, 10)
	if err != nil {
		t.Fatalf("expected degraded sentiment to be non-fatal, got %v", err)
	}
	got := results[0]
	if got.Sentiment != ValueUnknown || got.Severity != SeverityUnknown {
		t.Fatalf("expected degraded sentiment (unknown, -1), got (%q, %d)", got.Sentiment, got.Severity)
	}
	// Later stages still ran with the degraded values.
	if got.Action != "Review vision coverage tiers" || got.Department != "HR Benefits Team" || got.Priority != "medium" {
		t.Fatalf("expected pipeline to continue past degraded stage, got %+v", got)
	}
}

func TestPipelinePersistsCompletedRecordsOnAbort(t *testing.T) {
	cfg := testPipelineConfig(t)
	cfg.LLMMaxRetries = 1

	classifications := 0
	stub := stubCompleter(map[string]string{
		classifyMarker:  "Benefit Value",
		sentimentMarker: `{"sentiment":"neutral","severity":2}`,
		actionMarker:    "Survey gym membership usage",
		routingMarker:   `{"department":"Vendor Management","priority":"low"}`,
	})
	p := &Pipeline{
		cfg:     cfg,
		catalog: map[int64]string{},
		complete: func(req CompletionRequest) (string, LLMUsage, error) {
			if strings.Contains(req.Messages[0].Content, classifyMarker) {
				classifications++
				if classifications == 3 {
					return "", LLMUsage{}, fmt.Errorf("connection reset")
				}
			}
			return stub(req)
		},
	}

	records := []FeedbackRecord{
		{EmployeeID: 1, BenefitID: 9, Comments: "a", SatisfactionScore: 3},
		{EmployeeID: 2, BenefitID: 9, Comments: "b", SatisfactionScore: 3},
		{EmployeeID: 3, BenefitID: 9, Comments: "c", SatisfactionScore: 3},
	}
	results, _, err := p.Process(records, 3)
	if err == nil {
		t.Fatal("expected transport failure to abort the run")
	}
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 completed records, got %d", len(results))
	}

	persisted, loadErr := LoadResults(cfg.ResultsPath)
	if loadErr != nil {
		t.Fatalf("LoadResults failed: %v", loadErr)
	}
	if len(persisted) != 2 {
		t.Fatalf("expected 2 persisted records after abort, got %d", len(persisted))
	}
	if persisted[0].EmployeeID != 1 || persisted[1].EmployeeID != 2 {
		t.Fatalf("persisted records out of input order: %+v", persisted)
	}
}

func TestPipelineBenefitLabelFallback(t *testing.T) {
	cfg := testPipelineConfig(t)
	p := &Pipeline{
		cfg:     cfg,
		catalog: map[int64]string{},
		complete: stubCompleter(map[string]string{
			classifyMarker:  "Benefit Value",
			sentimentMarker: `{"sentiment":"neutral","severity":1}`,
			actionMarker:    "No action needed",
			routingMarker:   `{"department":"Benefits Administration","priority":"low"}`,
		}),
	}

	results, _, err := p.Process([]FeedbackRecord{{EmployeeID: 5, BenefitID: 42, Comments: "fine", SatisfactionScore: 4}}, 1)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if results[0].BenefitType != "Benefit 42" {
		t.Fatalf("expected synthesized label 'Benefit 42', got %q", results[0].BenefitType)
	}
}

func TestPipelineHonorsLimit(t *testing.T) {
	cfg := testPipelineConfig(t)
	p := &Pipeline{
		cfg:     cfg,
		catalog: map[int64]string{},
		complete: stubCompleter(map[string]string{
			classifyMarker:  "Process Issues",
			sentimentMarker: `{"sentiment":"negative","severity":3}`,
			actionMarker:    "Simplify the claims form",
			routingMarker:   `{"department":"Benefits Administration","priority":"medium"}`,
		}),
	}

	var records []FeedbackRecord
	for i := 1; i <= 5; i++ {
		records = append(records, FeedbackRecord{EmployeeID: int64(i), BenefitID: 1, Comments: "x", SatisfactionScore: 3})
	}
	results, _, err := p.Process(records, 2)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected limit to cap processing at 2, got %d", len(results))
	}
	if results[0].EmployeeID != 1 || results[1].EmployeeID != 2 {
		t.Fatalf("expected first two records in table order, got %+v", results)
	}
}

func TestPipelineRecordsHistory(t *testing.T) {
	cfg := testPipelineConfig(t)
	db := newTestDB(t)
	p := &Pipeline{
		cfg:     cfg,
		catalog: map[int64]string{1: "Health: Medical"},
		db:      db,
		complete: stubCompleter(map[string]string{
			classifyMarker:  "Coverage Issues",
			sentimentMarker: `{"sentiment":"negative","severity":5}`,
			actionMarker:    "Expand specialist network",
			routingMarker:   `{"department":"HR Benefits Team","priority":"high"}`,
		}),
	}

	_, _, err := p.Process([]FeedbackRecord{{EmployeeID: 9, BenefitID: 1, Comments: "no specialists in network", SatisfactionScore: 1}}, 1)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	total, err := CountHistory(db)
	if err != nil {
		t.Fatalf("CountHistory failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 history row, got %d", total)
	}

	run, err := LatestRun(db)
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if run.Records != 1 {
		t.Fatalf("expected run to record 1 record, got %d", run.Records)
	}
	if run.CompletedAt.IsZero() {
		t.Fatal("expected run to be marked completed")
	}
	if run.InputTokens == 0 || run.OutputTokens == 0 {
		t.Fatalf("expected run token accounting, got in=%d out=%d", run.InputTokens, run.OutputTokens)
	}
}
