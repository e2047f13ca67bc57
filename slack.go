package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

// The Slack front end carries the same policy chat as the console and
// web surfaces (one session per Slack user, DM only) plus slash
// commands for running the pipeline and inspecting the audit store.
type slackBot struct {
	cfg       Config
	db        *sql.DB
	api       *slack.Client
	employees map[int64]Employee
	policies  string

	mu       sync.Mutex
	sessions map[string]*ChatSession
}

func StartSlackBot(cfg Config, db *sql.DB, api *slack.Client) error {
	employees, err := LoadEmployees(cfg.EmployeeDataPath)
	if err != nil {
		return err
	}
	policies, err := LoadPolicies(cfg.PoliciesPath)
	if err != nil {
		return err
	}

	bot := &slackBot{
		cfg:       cfg,
		db:        db,
		api:       api,
		employees: employees,
		policies:  policies,
		sessions:  make(map[string]*ChatSession),
	}

	client := socketmode.New(api)

	go func() {
		for evt := range client.Events {
			switch evt.Type {
			case socketmode.EventTypeSlashCommand:
				client.Ack(*evt.Request)
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					continue
				}
				log.Printf("Slash command received: %s from user=%s channel=%s", cmd.Command, cmd.UserID, cmd.ChannelID)
				go bot.handleSlashCommand(cmd)
			case socketmode.EventTypeEventsAPI:
				client.Ack(*evt.Request)
				eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				go bot.handleEventsAPI(eventsAPIEvent)
			}
		}
	}()

	log.Println("Slack bot connected via Socket Mode")
	return client.Run()
}

func (b *slackBot) handleSlashCommand(cmd slack.SlashCommand) {
	switch cmd.Command {
	case "/benefits-analyze":
		b.handleAnalyze(cmd)
	case "/benefits-summary":
		b.handleSummary(cmd)
	case "/benefits-stats":
		b.handleStats(cmd)
	case "/benefits-help":
		b.handleHelp(cmd)
	}
}

func (b *slackBot) handleEventsAPI(event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		b.handleDirectMessage(ev)
	}
}

func (b *slackBot) handleDirectMessage(ev *slackevents.MessageEvent) {
	// Only plain user DMs; skip our own and other bots' messages.
	if ev.ChannelType != "im" || ev.BotID != "" || ev.User == "" || ev.SubType != "" {
		return
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}

	session := b.sessionFor(ev.User)

	if strings.EqualFold(text, "reset") {
		session.Reset()
		b.postDM(ev.Channel, "Session cleared. Please send your employee ID to start over.")
		return
	}

	// An all-digits message switches the employee context; anything
	// else is a policy question.
	if id, err := strconv.ParseInt(text, 10, 64); err == nil {
		if err := session.SetEmployee(id); err != nil {
			b.postDM(ev.Channel, fmt.Sprintf("Sorry, %v. Please try another ID.", err))
			return
		}
		b.postDM(ev.Channel, "What policy can I help with?")
		return
	}

	reply, err := session.Ask(text)
	if err != nil {
		if errors.Is(err, ErrNoEmployeeContext) {
			b.postDM(ev.Channel, "Please send your employee ID first.")
			return
		}
		b.postDM(ev.Channel, fmt.Sprintf("Error generating response: %v", err))
		return
	}
	b.postDM(ev.Channel, reply)
}

func (b *slackBot) sessionFor(userID string) *ChatSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	session, ok := b.sessions[userID]
	if !ok {
		session = NewChatSession(b.cfg, b.employees, b.policies, b.db, "slack", "slack-"+userID)
		b.sessions[userID] = session
	}
	return session
}

func (b *slackBot) handleAnalyze(cmd slack.SlashCommand) {
	b.postEphemeral(cmd, fmt.Sprintf("Starting feedback analysis (limit %d)...", b.cfg.FeedbackLimit))

	result, err := AnalyzeFeedback(b.cfg, b.db)
	if err != nil {
		b.postEphemeral(cmd, fmt.Sprintf("Analysis aborted after %d records: %v", result.Records, err))
		return
	}
	b.postEphemeral(cmd, FormatAnalyzeSummary(result))
}

func (b *slackBot) handleSummary(cmd slack.SlashCommand) {
	path, err := NewSynthesizer(b.cfg).Run()
	if err != nil {
		b.postEphemeral(cmd, fmt.Sprintf("Synthesis failed: %v", err))
		return
	}
	b.postEphemeral(cmd, fmt.Sprintf("Summary report written to %s", path))
}

func (b *slackBot) handleStats(cmd slack.SlashCommand) {
	run, err := LatestRun(b.db)
	if errors.Is(err, sql.ErrNoRows) {
		b.postEphemeral(cmd, "No analysis runs yet. Try `/benefits-analyze`.")
		return
	}
	if err != nil {
		b.postEphemeral(cmd, fmt.Sprintf("Error reading stats: %v", err))
		return
	}

	total, err := CountHistory(b.db)
	if err != nil {
		b.postEphemeral(cmd, fmt.Sprintf("Error reading stats: %v", err))
		return
	}
	counts, err := HistoryCategoryCounts(b.db)
	if err != nil {
		b.postEphemeral(cmd, fmt.Sprintf("Error reading stats: %v", err))
		return
	}

	categories := make([]string, 0, len(counts))
	for cat := range counts {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("*Latest run*: #%d (%s) — %d records, %d tokens\n",
		run.ID, run.StartedAt.Format("Jan 2 15:04"), run.Records, run.InputTokens+run.OutputTokens))
	msg.WriteString(fmt.Sprintf("*Total analyzed*: %d\n*By category*:\n", total))
	for _, cat := range categories {
		msg.WriteString(fmt.Sprintf("• %s: %d\n", cat, counts[cat]))
	}
	b.postEphemeral(cmd, msg.String())
}

func (b *slackBot) handleHelp(cmd slack.SlashCommand) {
	b.postEphemeral(cmd,
		"*Benefits Assistant commands*\n"+
			"• `/benefits-analyze` — Run the feedback analysis pipeline\n"+
			"• `/benefits-summary` — Generate the summary report from the latest results\n"+
			"• `/benefits-stats` — Show analysis history stats\n"+
			"• DM me your employee ID, then ask about any policy. Send `reset` to start over.")
}

func (b *slackBot) postEphemeral(cmd slack.SlashCommand, text string) {
	_, err := b.api.PostEphemeral(cmd.ChannelID, cmd.UserID, slack.MsgOptionText(text, false))
	if err != nil {
		log.Printf("Error posting ephemeral message: %v", err)
	}
}

func (b *slackBot) postDM(channelID, text string) {
	_, _, err := b.api.PostMessage(channelID, slack.MsgOptionText(text, false))
	if err != nil {
		log.Printf("Error posting message: %v", err)
	}
}
