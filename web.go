package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
)

// The web front end serves a small embedded chat page plus a JSON API.
// It holds one session per server process, matching the single-user
// interactive surface it replaces; the mutex serializes handler access
// to it.
type webServer struct {
	cfg     Config
	mu      sync.Mutex
	session *ChatSession
}

func RunWebChat(cfg Config, db *sql.DB) error {
	employees, err := LoadEmployees(cfg.EmployeeDataPath)
	if err != nil {
		return err
	}
	policies, err := LoadPolicies(cfg.PoliciesPath)
	if err != nil {
		return err
	}

	srv := &webServer{
		cfg:     cfg,
		session: NewChatSession(cfg, employees, policies, db, "web", "web"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleIndex)
	mux.HandleFunc("/api/session", srv.handleSession)
	mux.HandleFunc("/api/profile", srv.handleProfile)
	mux.HandleFunc("/api/chat", srv.handleChat)
	mux.HandleFunc("/api/reset", srv.handleReset)

	log.Printf("web chat listening addr=%s", cfg.HTTPAddr)
	return http.ListenAndServe(cfg.HTTPAddr, mux)
}

func (s *webServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(chatPageHTML))
}

// handleSession sets the employee context. An unknown ID is a
// recoverable error: the context stays unset and the client re-prompts.
func (s *webServer) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req struct {
		EmployeeID int64 `json:"employee_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.SetEmployee(req.EmployeeID); err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	emp, _ := s.session.Employee()
	writeJSON(w, http.StatusOK, profilePayload(emp))
}

func (s *webServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	emp, ok := s.session.Employee()
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no employee context set")
		return
	}
	writeJSON(w, http.StatusOK, profilePayload(emp))
}

func (s *webServer) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSONError(w, http.StatusBadRequest, "message is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	reply, err := s.session.Ask(req.Message)
	if err != nil {
		if errors.Is(err, ErrNoEmployeeContext) {
			writeJSONError(w, http.StatusConflict, "please enter your employee ID first")
			return
		}
		// LLM failure is an inline error; the session keeps going.
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *webServer) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Reset()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func profilePayload(emp Employee) map[string]any {
	return map[string]any{
		"employee_id": emp.EmployeeID,
		"age":         emp.Age,
		"tenure":      emp.Tenure,
		"department":  emp.Department,
		"gender":      emp.Gender,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

const chatPageHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>TechLance AI Assistant</title>
<style>
body { font-family: sans-serif; margin: 0; display: flex; height: 100vh; }
#sidebar { width: 220px; background: #f4f4f4; padding: 16px; border-right: 1px solid #ddd; }
#main { flex: 1; display: flex; flex-direction: column; }
#log { flex: 1; overflow-y: auto; padding: 16px; }
.msg { margin: 8px 0; padding: 8px 12px; border-radius: 8px; max-width: 70%; white-space: pre-wrap; }
.user { background: #d0e7ff; margin-left: auto; }
.assistant { background: #eee; }
#bar { display: flex; padding: 12px; border-top: 1px solid #ddd; }
#input { flex: 1; padding: 8px; }
button { margin-left: 8px; padding: 8px 14px; }
</style>
</head>
<body>
<div id="sidebar">
  <h3>Employee Info</h3>
  <div id="profile">Please enter your employee ID.</div>
  <button onclick="resetSession()">Change Employee</button>
</div>
<div id="main">
  <div id="log"></div>
  <div id="bar">
    <input id="input" placeholder="Enter your employee ID, then ask about a policy">
    <button onclick="send()">Send</button>
  </div>
</div>
<script>
let hasProfile = false;

function append(role, text) {
  const div = document.createElement('div');
  div.className = 'msg ' + role;
  div.textContent = text;
  const log = document.getElementById('log');
  log.appendChild(div);
  log.scrollTop = log.scrollHeight;
}

async function send() {
  const input = document.getElementById('input');
  const text = input.value.trim();
  if (!text) return;
  input.value = '';
  append('user', text);

  if (!hasProfile && /^[0-9]+$/.test(text)) {
    const resp = await fetch('/api/session', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({employee_id: parseInt(text, 10)})
    });
    const data = await resp.json();
    if (!resp.ok) {
      append('assistant', data.error + '. Please enter a valid employee ID.');
      return;
    }
    renderProfile(data);
    append('assistant', 'What policy can I help with?');
    return;
  }

  const resp = await fetch('/api/chat', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({message: text})
  });
  const data = await resp.json();
  append('assistant', resp.ok ? data.reply : data.error);
}

function renderProfile(p) {
  hasProfile = true;
  document.getElementById('profile').innerHTML =
    '<b>Age:</b> ' + p.age + '<br>' +
    '<b>Tenure:</b> ' + p.tenure + '<br>' +
    '<b>Department:</b> ' + p.department + '<br>' +
    '<b>Gender:</b> ' + p.gender;
}

async function resetSession() {
  await fetch('/api/reset', {method: 'POST'});
  hasProfile = false;
  document.getElementById('profile').textContent = 'Please enter your employee ID.';
  document.getElementById('log').innerHTML = '';
}

document.getElementById('input').addEventListener('keydown', e => {
  if (e.key === 'Enter') send();
});
</script>
</body>
</html>
`
