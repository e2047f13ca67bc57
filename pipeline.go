package main

import (
	"database/sql"
	"fmt"
	"log"
)

// Low temperature keeps the categorical stage answers close to
// deterministic.
const pipelineTemperature = 0.1

// Pipeline runs the four analysis stages over feedback records, one
// record at a time, in table order. Stage order is fixed:
// classification and sentiment are independent of each other but both
// feed action identification, which feeds routing.
type Pipeline struct {
	cfg      Config
	catalog  map[int64]string
	db       *sql.DB // optional audit store, nil disables history
	complete completeFunc
}

func NewPipeline(cfg Config, catalog map[int64]string, db *sql.DB) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		catalog:  catalog,
		db:       db,
		complete: newCompleter(cfg),
	}
}

// Process analyzes the first limit records and persists incremental
// results: after each record the full accumulated sequence is rewritten
// to cfg.ResultsPath. A transport failure that survives its retries
// aborts the run; everything persisted up to the previous record stays
// on disk. Validation mismatches are data, not faults, and never abort.
func (p *Pipeline) Process(records []FeedbackRecord, limit int) ([]ProcessedFeedback, LLMUsage, error) {
	if limit > len(records) || limit <= 0 {
		limit = len(records)
	}
	records = records[:limit]

	var runID int64
	if p.db != nil {
		var err error
		runID, err = StartRun(p.db, p.cfg.LLMProvider, p.cfg.LLMModel)
		if err != nil {
			return nil, LLMUsage{}, fmt.Errorf("start run: %w", err)
		}
	}

	results := make([]ProcessedFeedback, 0, len(records))
	var totalUsage LLMUsage

	for i, rec := range records {
		benefitType, ok := p.catalog[rec.BenefitID]
		if !ok {
			benefitType = fmt.Sprintf("Benefit %d", rec.BenefitID)
		}

		category, usage, err := p.classifyFeedback(rec.Comments, benefitType, rec.SatisfactionScore)
		totalUsage.Add(usage)
		if err != nil {
			return results, totalUsage, fmt.Errorf("record %d classification: %w", i+1, err)
		}

		sentiment, severity, usage, err := p.analyzeSentiment(rec.Comments, rec.SatisfactionScore)
		totalUsage.Add(usage)
		if err != nil {
			return results, totalUsage, fmt.Errorf("record %d sentiment: %w", i+1, err)
		}

		action, usage, err := p.identifyAction(category, benefitType, sentiment, severity, rec.Comments)
		totalUsage.Add(usage)
		if err != nil {
			return results, totalUsage, fmt.Errorf("record %d action: %w", i+1, err)
		}

		department, priority, usage, err := p.routeTask(action, category, benefitType, severity)
		totalUsage.Add(usage)
		if err != nil {
			return results, totalUsage, fmt.Errorf("record %d routing: %w", i+1, err)
		}

		pf := ProcessedFeedback{
			EmployeeID:  rec.EmployeeID,
			BenefitType: benefitType,
			Category:    category,
			Sentiment:   sentiment,
			Severity:    severity,
			Action:      action,
			Department:  department,
			Priority:    priority,
		}
		results = append(results, pf)

		if err := WriteResults(p.cfg.ResultsPath, results); err != nil {
			return results, totalUsage, err
		}
		if p.db != nil {
			if err := InsertProcessedFeedback(p.db, runID, pf); err != nil {
				log.Printf("pipeline history insert error run=%d employee=%d: %v", runID, pf.EmployeeID, err)
			}
		}

		log.Printf("pipeline processed %d/%d employee=%d category=%q department=%q priority=%q",
			i+1, len(records), rec.EmployeeID, category, department, priority)
	}

	if p.db != nil {
		if err := FinishRun(p.db, runID, len(results), totalUsage); err != nil {
			log.Printf("pipeline finish run error run=%d: %v", runID, err)
		}
	}

	return results, totalUsage, nil
}

func (p *Pipeline) callStage(prompt string) (string, LLMUsage, error) {
	return completeWithRetry(p.complete, p.cfg.LLMMaxRetries, CompletionRequest{
		Model:       p.cfg.LLMModel,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   p.cfg.PipelineMaxTokens,
		Temperature: pipelineTemperature,
	})
}

func (p *Pipeline) classifyFeedback(comment, benefitType string, score int) (string, LLMUsage, error) {
	text, usage, err := p.callStage(buildClassificationPrompt(comment, benefitType, score))
	if err != nil {
		return "", usage, err
	}
	return validateCategory(text), usage, nil
}

func (p *Pipeline) analyzeSentiment(comment string, score int) (string, int, LLMUsage, error) {
	text, usage, err := p.callStage(buildSentimentPrompt(comment, score))
	if err != nil {
		return "", 0, usage, err
	}
	sentiment, severity := parseSentiment(text)
	return sentiment, severity, usage, nil
}

func (p *Pipeline) identifyAction(category, benefitType, sentiment string, severity int, comment string) (string, LLMUsage, error) {
	text, usage, err := p.callStage(buildActionPrompt(category, benefitType, sentiment, severity, comment))
	if err != nil {
		return "", usage, err
	}
	return validateAction(text), usage, nil
}

func (p *Pipeline) routeTask(action, category, benefitType string, severity int) (string, string, LLMUsage, error) {
	text, usage, err := p.callStage(buildRoutingPrompt(action, category, benefitType, severity))
	if err != nil {
		return "", "", usage, err
	}
	department, priority := parseRouting(text)
	return department, priority, usage, nil
}
