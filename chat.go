package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
)

var ErrEmployeeNotFound = errors.New("employee not found")
var ErrNoEmployeeContext = errors.New("no employee context set")

// ChatSession holds one linear policy conversation. The system prompt
// is not part of the history: it is rebuilt from the current employee
// context and policy blob on every turn, so there is never a second
// system message.
type ChatSession struct {
	cfg       Config
	employees map[int64]Employee
	policies  string
	db        *sql.DB // optional transcript log
	surface   string
	sessionID string

	employee        *Employee
	employeeContext string
	messages        []ChatMessage
	complete        completeFunc
}

func NewChatSession(cfg Config, employees map[int64]Employee, policies string, db *sql.DB, surface, sessionID string) *ChatSession {
	return &ChatSession{
		cfg:       cfg,
		employees: employees,
		policies:  policies,
		db:        db,
		surface:   surface,
		sessionID: sessionID,
		complete:  newCompleter(cfg),
	}
}

// SetEmployee looks the ID up in the employee table and pins the
// profile for the rest of the session. An unknown ID leaves any
// previous context untouched.
func (s *ChatSession) SetEmployee(id int64) error {
	emp, ok := s.employees[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrEmployeeNotFound, id)
	}
	s.employee = &emp
	s.employeeContext = employeeContextString(emp)
	return nil
}

func employeeContextString(e Employee) string {
	return fmt.Sprintf("Employee: %d years old, %d years tenure, %s department, %s",
		e.Age, e.Tenure, e.Department, e.Gender)
}

func (s *ChatSession) HasEmployee() bool {
	return s.employee != nil
}

func (s *ChatSession) Employee() (Employee, bool) {
	if s.employee == nil {
		return Employee{}, false
	}
	return *s.employee, true
}

// Ask runs one conversation turn. Chat calls are not retried: a
// transport failure is surfaced to the caller and the turn is rolled
// back so the history stays a clean user/assistant alternation.
func (s *ChatSession) Ask(input string) (string, error) {
	if s.employee == nil {
		return "", ErrNoEmployeeContext
	}

	system := buildChatSystemPrompt(s.cfg.CompanyName, s.employeeContext, s.policies)
	s.messages = append(s.messages, ChatMessage{Role: "user", Content: input})

	reply, usage, err := s.complete(CompletionRequest{
		Model:       s.cfg.LLMModel,
		System:      system,
		Messages:    s.messages,
		MaxTokens:   s.cfg.ChatMaxTokens,
		Temperature: -1,
	})
	if err != nil {
		s.messages = s.messages[:len(s.messages)-1]
		return "", err
	}
	s.messages = append(s.messages, ChatMessage{Role: "assistant", Content: reply})

	s.logTurn("user", input)
	s.logTurn("assistant", reply)
	log.Printf("chat turn surface=%s session=%s tokens_in=%d tokens_out=%d", s.surface, s.sessionID, usage.InputTokens, usage.OutputTokens)
	return reply, nil
}

// Reset clears both the history and the employee context.
func (s *ChatSession) Reset() {
	s.messages = nil
	s.employee = nil
	s.employeeContext = ""
}

func (s *ChatSession) History() []ChatMessage {
	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *ChatSession) logTurn(role, content string) {
	if s.db == nil {
		return
	}
	if err := InsertChatMessage(s.db, s.sessionID, s.surface, role, content); err != nil {
		log.Printf("chat transcript insert error session=%s: %v", s.sessionID, err)
	}
}
