package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestWebServer(t *testing.T) *webServer {
	t.Helper()
	cfg := Config{CompanyName: "TechLance", ChatMaxTokens: 300}
	return &webServer{
		cfg:     cfg,
		session: NewChatSession(cfg, testEmployees(), "PTO Policy: 20 days per year.", nil, "web", "web"),
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return payload
}

func TestWebSessionUnknownEmployeeIsRecoverable(t *testing.T) {
	srv := newTestWebServer(t)

	w := postJSON(t, srv.handleSession, "/api/session", `{"employee_id": 999}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown employee, got %d", w.Code)
	}
	if payload := decodeBody(t, w); payload["error"] == "" {
		t.Fatalf("expected error payload, got %v", payload)
	}

	// Context stays unset; the client re-prompts.
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	w2 := httptest.NewRecorder()
	srv.handleProfile(w2, req)
	if w2.Code != http.StatusNotFound {
		t.Fatalf("expected no profile after failed lookup, got %d", w2.Code)
	}

	// A valid ID afterwards works.
	w3 := postJSON(t, srv.handleSession, "/api/session", `{"employee_id": 7}`)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200 for known employee, got %d: %s", w3.Code, w3.Body.String())
	}
	payload := decodeBody(t, w3)
	if payload["department"] != "Engineering" || payload["age"] != float64(34) {
		t.Fatalf("unexpected profile payload: %v", payload)
	}
}

func TestWebChatRequiresContext(t *testing.T) {
	srv := newTestWebServer(t)
	w := postJSON(t, srv.handleChat, "/api/chat", `{"message": "What about PTO?"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 without employee context, got %d", w.Code)
	}
}

func TestWebChatTurn(t *testing.T) {
	srv := newTestWebServer(t)
	srv.session.complete = func(req CompletionRequest) (string, LLMUsage, error) {
		if !strings.Contains(req.System, "Engineering department") {
			t.Fatalf("system prompt missing employee profile:\n%s", req.System)
		}
		return "You accrue 20 days a year.", LLMUsage{}, nil
	}

	if w := postJSON(t, srv.handleSession, "/api/session", `{"employee_id": 7}`); w.Code != http.StatusOK {
		t.Fatalf("session setup failed: %d", w.Code)
	}

	w := postJSON(t, srv.handleChat, "/api/chat", `{"message": "How much PTO do I get?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if payload := decodeBody(t, w); payload["reply"] != "You accrue 20 days a year." {
		t.Fatalf("unexpected reply payload: %v", payload)
	}
}

func TestWebChatLLMFailureKeepsSession(t *testing.T) {
	srv := newTestWebServer(t)
	if w := postJSON(t, srv.handleSession, "/api/session", `{"employee_id": 7}`); w.Code != http.StatusOK {
		t.Fatalf("session setup failed: %d", w.Code)
	}

	srv.session.complete = func(req CompletionRequest) (string, LLMUsage, error) {
		return "", LLMUsage{}, errors.New("upstream timeout")
	}
	w := postJSON(t, srv.handleChat, "/api/chat", `{"message": "hello"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 on LLM failure, got %d", w.Code)
	}

	srv.session.complete = func(req CompletionRequest) (string, LLMUsage, error) {
		return "recovered", LLMUsage{}, nil
	}
	w2 := postJSON(t, srv.handleChat, "/api/chat", `{"message": "hello again"}`)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected session to keep working after failure, got %d", w2.Code)
	}
}

func TestWebReset(t *testing.T) {
	srv := newTestWebServer(t)
	if w := postJSON(t, srv.handleSession, "/api/session", `{"employee_id": 7}`); w.Code != http.StatusOK {
		t.Fatalf("session setup failed: %d", w.Code)
	}

	if w := postJSON(t, srv.handleReset, "/api/reset", ``); w.Code != http.StatusOK {
		t.Fatalf("reset failed: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	w := httptest.NewRecorder()
	srv.handleProfile(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected profile cleared after reset, got %d", w.Code)
	}
}

func TestWebIndex(t *testing.T) {
	srv := newTestWebServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.handleIndex(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Employee Info") {
		t.Fatal("expected chat page markup")
	}

	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	w = httptest.NewRecorder()
	srv.handleIndex(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", w.Code)
	}
}
