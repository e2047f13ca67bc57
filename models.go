package main

import "time"

// FeedbackRecord is one row of the employee feedback table. Immutable
// once loaded; the pipeline never writes back to the source table.
type FeedbackRecord struct {
	EmployeeID        int64
	BenefitID         int64
	Comments          string
	SatisfactionScore int
}

// Employee is one row of the employee table, keyed by EmployeeID.
type Employee struct {
	EmployeeID int64
	Age        int
	Tenure     int
	Department string
	Gender     string
}

// ProcessedFeedback is the validated per-record output of all four
// pipeline stages. Field names match the persisted JSON contract.
type ProcessedFeedback struct {
	EmployeeID  int64  `json:"employee_id"`
	BenefitType string `json:"benefit_type"`
	Category    string `json:"category"`
	Sentiment   string `json:"sentiment"`
	Severity    int    `json:"severity"`
	Action      string `json:"action"`
	Department  string `json:"department"`
	Priority    string `json:"priority"`
}

// ChatMessage is one turn of a conversation. Role is "user" or
// "assistant"; the system prompt is carried separately and rebuilt on
// every turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnalysisRun is the stored accounting record for one pipeline invocation.
type AnalysisRun struct {
	ID           int64
	Provider     string
	Model        string
	Records      int
	InputTokens  int64
	OutputTokens int64
	StartedAt    time.Time
	CompletedAt  time.Time
}

// Sentinel values substituted when a stage's output fails validation.
const (
	CategoryUnknown = "Unknown"
	ValueUnknown    = "unknown"
	SeverityUnknown = -1
)

// Fixed allow-lists for the enumerated stage outputs. Every validated
// field is either a member of its list or the unknown sentinel.
var (
	ValidCategories  = []string{"Process Issues", "Coverage Issues", "Benefit Value"}
	ValidSentiments  = []string{"positive", "negative", "neutral"}
	ValidDepartments = []string{"Benefits Administration", "HR Benefits Team", "Vendor Management"}
	ValidPriorities  = []string{"high", "medium", "low"}
)
