package main

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// The sqlite store is the audit side of the system: the JSON results
// file stays the synthesizer's contractual input, while these tables
// keep run accounting, per-record history, and chat transcripts.

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		provider      TEXT NOT NULL,
		model         TEXT DEFAULT '',
		records       INTEGER DEFAULT 0,
		input_tokens  INTEGER DEFAULT 0,
		output_tokens INTEGER DEFAULT 0,
		started_at    DATETIME NOT NULL,
		completed_at  DATETIME
	);

	CREATE TABLE IF NOT EXISTS analysis_history (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id       INTEGER NOT NULL,
		employee_id  INTEGER NOT NULL,
		benefit_type TEXT NOT NULL,
		category     TEXT NOT NULL,
		sentiment    TEXT NOT NULL,
		severity     INTEGER NOT NULL,
		action       TEXT NOT NULL,
		department   TEXT NOT NULL,
		priority     TEXT NOT NULL,
		analyzed_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_ah_run ON analysis_history(run_id);
	CREATE INDEX IF NOT EXISTS idx_ah_category ON analysis_history(category);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		surface    TEXT NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_cm_session ON chat_messages(session_id);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func StartRun(db *sql.DB, provider, model string) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO analysis_runs (provider, model, started_at) VALUES (?, ?, ?)`,
		provider, model, time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func FinishRun(db *sql.DB, runID int64, records int, usage LLMUsage) error {
	_, err := db.Exec(
		`UPDATE analysis_runs SET records = ?, input_tokens = ?, output_tokens = ?, completed_at = ? WHERE id = ?`,
		records, usage.InputTokens, usage.OutputTokens, time.Now().UTC(), runID,
	)
	return err
}

func InsertProcessedFeedback(db *sql.DB, runID int64, pf ProcessedFeedback) error {
	_, err := db.Exec(
		`INSERT INTO analysis_history (run_id, employee_id, benefit_type, category, sentiment, severity, action, department, priority)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, pf.EmployeeID, pf.BenefitType, pf.Category, pf.Sentiment, pf.Severity,
		pf.Action, pf.Department, pf.Priority,
	)
	return err
}

func InsertChatMessage(db *sql.DB, sessionID, surface, role, content string) error {
	_, err := db.Exec(
		`INSERT INTO chat_messages (session_id, surface, role, content) VALUES (?, ?, ?, ?)`,
		sessionID, surface, role, content,
	)
	return err
}

// LatestRun returns the most recently started run, or sql.ErrNoRows.
func LatestRun(db *sql.DB) (AnalysisRun, error) {
	var run AnalysisRun
	var completed sql.NullTime
	err := db.QueryRow(
		`SELECT id, provider, model, records, input_tokens, output_tokens, started_at, completed_at
		 FROM analysis_runs ORDER BY started_at DESC, id DESC LIMIT 1`,
	).Scan(&run.ID, &run.Provider, &run.Model, &run.Records, &run.InputTokens, &run.OutputTokens, &run.StartedAt, &completed)
	if err != nil {
		return AnalysisRun{}, err
	}
	if completed.Valid {
		run.CompletedAt = completed.Time
	}
	return run, nil
}

// HistoryCategoryCounts tallies stored history rows per category.
func HistoryCategoryCounts(db *sql.DB) (map[string]int, error) {
	rows, err := db.Query(`SELECT category, COUNT(*) FROM analysis_history GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

func CountHistory(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM analysis_history`).Scan(&count)
	return count, err
}
