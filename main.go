package main

import (
	"fmt"
	"log"
	"os"

	"github.com/slack-go/slack"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd := os.Args[1]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		usage()
		return
	}

	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	switch cmd {
	case "analyze":
		result, err := AnalyzeFeedback(cfg, db)
		if err != nil {
			log.Fatalf("Analysis aborted after %d records: %v", result.Records, err)
		}
		log.Println(FormatAnalyzeSummary(result))

	case "summarize":
		path, err := NewSynthesizer(cfg).Run()
		if err != nil {
			log.Fatalf("Synthesis failed: %v", err)
		}
		log.Printf("Summary report written to %s", path)

	case "chat":
		if err := RunConsoleChat(cfg, db); err != nil {
			log.Fatalf("Chat error: %v", err)
		}

	case "serve":
		if err := RunWebChat(cfg, db); err != nil {
			log.Fatalf("Web chat error: %v", err)
		}

	case "slack":
		if !cfg.SlackConfigured() {
			log.Fatalf("slack_bot_token and slack_app_token are required for the slack command")
		}
		api := slack.New(
			cfg.SlackBotToken,
			slack.OptionAppLevelToken(cfg.SlackAppToken),
		)
		StartAnalyzeScheduler(cfg, db, api)
		log.Println("Starting Benefits Assistant Slack bot...")
		if err := StartSlackBot(cfg, db, api); err != nil {
			log.Fatalf("Slack bot error: %v", err)
		}

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: benefitsbot <command>

Commands:
  analyze    Run the four-stage feedback analysis pipeline
  summarize  Generate the summary report from persisted results
  chat       Interactive console policy chat
  serve      Web chat front end
  slack      Slack front end and scheduled analysis (long-running)
`)
}
