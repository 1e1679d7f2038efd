package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/1KHA/daralhikmajudge/internal/app"
	"github.com/1KHA/daralhikmajudge/internal/domain"
	"github.com/1KHA/daralhikmajudge/internal/infra/memory"
)

func newHostTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	sessionService := app.NewSessionService(
		memory.NewSessionStore(),
		memory.NewAnswerStore(),
		memory.NewResultStore(),
		memory.NewJudgeStore(),
		memory.NewBroadcaster(),
	)
	rosterService := app.NewRosterService(
		memory.NewTeamRepository(),
		memory.NewBankRepository(memory.NewStaticBankLoader(map[string]domain.QuestionBank{
			"bank-1": {ID: "bank-1", Name: "Demo", Questions: []domain.Question{
				{ID: "q1", Text: "Clarity", Weight: 10, Choices: []domain.Choice{{Text: "A", Weight: 1}}},
			}},
		}), time.Minute),
	)

	mux := http.NewServeMux()
	NewHostHandler(sessionService, rosterService).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, hostToken string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if hostToken != "" {
		req.Header.Set("X-Host-Token", hostToken)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var fields map[string]json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&fields)
	return resp, fields
}

func createSession(t *testing.T, server *httptest.Server, teams []string) (domain.Session, string) {
	t.Helper()
	resp, fields := doJSON(t, http.MethodPost, server.URL+"/api/sessions", "", map[string]any{"teams": teams})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var sess domain.Session
	if err := json.Unmarshal(fields["session"], &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	var token string
	if err := json.Unmarshal(fields["hostToken"], &token); err != nil {
		t.Fatalf("decode host token: %v", err)
	}
	if token == "" {
		t.Fatalf("expected host token in response")
	}
	return sess, token
}

func TestCreateSessionValidation(t *testing.T) {
	server := newHostTestServer(t)
	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/sessions", "", map[string]any{"teams": []string{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty roster, got %d", resp.StatusCode)
	}
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	server := newHostTestServer(t)
	sess, token := createSession(t, server, []string{"X", "Y"})

	// Wrong token is rejected before any transition.
	resp, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/sessions/%s/advance", server.URL, sess.ID), "bad-token", map[string]any{"direction": "next"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/sessions/%s/advance", server.URL, sess.ID), token, map[string]any{"direction": "next"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("advance failed with %d", resp.StatusCode)
	}

	questions := []map[string]any{
		{"id": "q1", "text": "Clarity", "weight": 10, "choices": []map[string]any{{"text": "A", "weight": 1}}},
	}
	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/sessions/%s/broadcast", server.URL, sess.ID), token, map[string]any{"questions": questions})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("broadcast failed with %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/sessions/%s/broadcast", server.URL, sess.ID), token, map[string]any{"questions": []any{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty broadcast, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/sessions/%s/end", server.URL, sess.ID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end failed with %d", resp.StatusCode)
	}
	// Idempotent: a second end rewrites the same rows.
	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/sessions/%s/end", server.URL, sess.ID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second end failed with %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/sessions/%s/results", server.URL, sess.ID), nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get results: %v", err)
	}
	defer res.Body.Close()
	var results []domain.SessionResult
	if err := json.NewDecoder(res.Body).Decode(&results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected one result per team, got %d", len(results))
	}
}

func TestCurrentSessionEmptyIsNotFound(t *testing.T) {
	server := newHostTestServer(t)
	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/sessions/current", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 with no open session, got %d", resp.StatusCode)
	}
}

func TestTeamCRUDOverHTTP(t *testing.T) {
	server := newHostTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/teams", "", map[string]any{"name": "X", "position": 1})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create team failed with %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/teams", "", map[string]any{"name": "X"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate name, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/teams", "", map[string]any{"name": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d", resp.StatusCode)
	}
}

func TestGetBankOverHTTP(t *testing.T) {
	server := newHostTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/banks/bank-1", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get bank failed with %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/banks/missing", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown bank, got %d", resp.StatusCode)
	}
}
