package main

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
)

// AnalyzeResult tracks the outcome of one pipeline invocation.
type AnalyzeResult struct {
	Records     int
	Usage       LLMUsage
	ResultsPath string
}

// AnalyzeFeedback loads the input tables and runs the pipeline over the
// configured record prefix. It has no Slack dependency so it can be
// called from the slash command, the scheduler, and the analyze
// subcommand alike.
func AnalyzeFeedback(cfg Config, db *sql.DB) (AnalyzeResult, error) {
	catalog, err := LoadBenefitCatalog(cfg.BenefitsDataPath)
	if err != nil {
		return AnalyzeResult{}, err
	}
	records, err := LoadFeedback(cfg.FeedbackDataPath)
	if err != nil {
		return AnalyzeResult{}, err
	}
	log.Printf("analyze start records=%d limit=%d provider=%s", len(records), cfg.FeedbackLimit, cfg.LLMProvider)

	pipeline := NewPipeline(cfg, catalog, db)
	results, usage, err := pipeline.Process(records, cfg.FeedbackLimit)
	result := AnalyzeResult{
		Records:     len(results),
		Usage:       usage,
		ResultsPath: cfg.ResultsPath,
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

func FormatAnalyzeSummary(result AnalyzeResult) string {
	return fmt.Sprintf("Analyzed %d feedback records (tokens in=%d out=%d). Results saved to %s.",
		result.Records, result.Usage.InputTokens, result.Usage.OutputTokens, result.ResultsPath)
}

// StartAnalyzeScheduler starts a cron-based scheduler that periodically
// runs the pipeline plus synthesis and posts the outcome to the report
// channel. The schedule is a standard 5-field cron expression
// (minute hour day-of-month month day-of-week).
// Examples: "0 9 * * *" (daily 9am), "0 9 * * 1" (Mondays 9am).
func StartAnalyzeScheduler(cfg Config, db *sql.DB, api *slack.Client) {
	schedule := strings.TrimSpace(cfg.AnalyzeSchedule)
	if schedule == "" {
		log.Println("Scheduled analysis disabled (analyze_schedule not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid analyze_schedule '%s': %v, scheduled analysis disabled", schedule, err)
		return
	}

	log.Printf("Scheduled analysis enabled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next analysis at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			result, analyzeErr := AnalyzeFeedback(cfg, db)
			summary := FormatAnalyzeSummary(result)
			if analyzeErr != nil {
				log.Printf("Scheduled analysis error: %v", analyzeErr)
				summary = fmt.Sprintf("Analysis aborted after %d records: %v", result.Records, analyzeErr)
			} else if reportPath, synthErr := NewSynthesizer(cfg).Run(); synthErr != nil {
				log.Printf("Scheduled synthesis error: %v", synthErr)
				summary += fmt.Sprintf(" Synthesis failed: %v", synthErr)
			} else {
				summary += fmt.Sprintf(" Summary report: %s", reportPath)
			}
			log.Printf("Scheduled analysis complete: %s", summary)

			if cfg.ReportChannelID != "" {
				_, _, postErr := api.PostMessage(cfg.ReportChannelID, slack.MsgOptionText(summary, false))
				if postErr != nil {
					log.Printf("Scheduled analysis post error: %v", postErr)
				}
			}
		}
	}()
}
