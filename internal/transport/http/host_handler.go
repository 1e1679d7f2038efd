package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/1KHA/daralhikmajudge/internal/app"
	"github.com/1KHA/daralhikmajudge/internal/domain"
)

// HostHandler exposes the host's JSON API: roster management, question-bank
// lookup and the session state machine. Session mutations require the host
// token minted at session creation, passed via the X-Host-Token header.
type HostHandler struct {
	sessions *app.SessionService
	roster   *app.RosterService
}

func NewHostHandler(sessions *app.SessionService, roster *app.RosterService) *HostHandler {
	return &HostHandler{sessions: sessions, roster: roster}
}

// Register wires the host routes into the mux.
func (h *HostHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/teams", h.createTeam)
	mux.HandleFunc("GET /api/teams", h.listTeams)
	mux.HandleFunc("PUT /api/teams/{id}", h.updateTeam)
	mux.HandleFunc("DELETE /api/teams/{id}", h.deleteTeam)
	mux.HandleFunc("GET /api/banks/{id}", h.getBank)
	mux.HandleFunc("POST /api/sessions", h.createSession)
	mux.HandleFunc("GET /api/sessions/current", h.currentSession)
	mux.HandleFunc("POST /api/sessions/{id}/advance", h.advance)
	mux.HandleFunc("POST /api/sessions/{id}/broadcast", h.broadcast)
	mux.HandleFunc("POST /api/sessions/{id}/end", h.endSession)
	mux.HandleFunc("GET /api/sessions/{id}/leaderboard", h.leaderboard)
	mux.HandleFunc("GET /api/sessions/{id}/results", h.results)
}

func (h *HostHandler) createTeam(w http.ResponseWriter, r *http.Request) {
	var team domain.Team
	if err := json.NewDecoder(r.Body).Decode(&team); err != nil {
		writeError(w, http.StatusBadRequest, "invalid team payload")
		return
	}
	created, err := h.roster.CreateTeam(r.Context(), team)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *HostHandler) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.roster.ListTeams(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if teams == nil {
		teams = []domain.Team{}
	}
	writeJSON(w, http.StatusOK, teams)
}

func (h *HostHandler) updateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	var team domain.Team
	if err := json.NewDecoder(r.Body).Decode(&team); err != nil {
		writeError(w, http.StatusBadRequest, "invalid team payload")
		return
	}
	team.ID = id
	if err := h.roster.UpdateTeam(r.Context(), team); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *HostHandler) deleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	if err := h.roster.DeleteTeam(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HostHandler) getBank(w http.ResponseWriter, r *http.Request) {
	bank, err := h.roster.GetBank(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

type createSessionRequest struct {
	Teams       []string `json:"teams"`
	PointBudget float64  `json:"pointBudget"`
}

// createSessionResponse carries the host token explicitly; the session model
// never serializes it.
type createSessionResponse struct {
	Session   domain.Session `json:"session"`
	HostToken string         `json:"hostToken"`
}

func (h *HostHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid session payload")
		return
	}
	sess, err := h.sessions.CreateSession(r.Context(), req.Teams, req.PointBudget)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{Session: sess, HostToken: sess.HostToken})
}

func (h *HostHandler) currentSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Current(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type advanceRequest struct {
	Direction string `json:"direction"`
}

func (h *HostHandler) advance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid advance payload")
		return
	}
	sess, err := h.sessions.Advance(r.Context(), r.PathValue("id"), hostToken(r), domain.ParseDirection(req.Direction))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type broadcastRequest struct {
	Questions []domain.Question `json:"questions"`
}

func (h *HostHandler) broadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid broadcast payload")
		return
	}
	sess, err := h.sessions.Broadcast(r.Context(), r.PathValue("id"), hostToken(r), req.Questions)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *HostHandler) endSession(w http.ResponseWriter, r *http.Request) {
	results, err := h.sessions.End(r.Context(), r.PathValue("id"), hostToken(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *HostHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.sessions.Leaderboard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *HostHandler) results(w http.ResponseWriter, r *http.Request) {
	results, err := h.sessions.Results(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if results == nil {
		results = []domain.SessionResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func hostToken(r *http.Request) string {
	return r.Header.Get("X-Host-Token")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeDomainError maps domain sentinels onto HTTP statuses: validation
// failures are 400, auth 401, missing rows 404, lost CAS races 409. Anything
// unrecognized is a 500 with the detail kept in the server log.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyTeamList),
		errors.Is(err, domain.ErrEmptyQuestionSet),
		errors.Is(err, domain.ErrNoActiveTeam),
		errors.Is(err, domain.ErrEmptyChoice),
		errors.Is(err, domain.ErrEmptyJudgeName),
		errors.Is(err, domain.ErrEmptyTeamName):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorizedHost):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrJudgeNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrBankNotFound),
		errors.Is(err, domain.ErrTeamNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSessionCompleted),
		errors.Is(err, domain.ErrDuplicateTeam),
		errors.Is(err, domain.ErrVersionConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
