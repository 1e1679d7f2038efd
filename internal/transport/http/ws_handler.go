package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/1KHA/daralhikmajudge/internal/app"
	"github.com/1KHA/daralhikmajudge/internal/domain"
)

// ContinuationStore saves judge continuation entries so a reconnecting client
// can resume with just its token. Optional: a nil store disables resumption.
type ContinuationStore interface {
	Save(ctx context.Context, j domain.Judge) error
	Load(ctx context.Context, token string) (domain.Judge, error)
	Clear(ctx context.Context, token string) error
}

// WSHandler upgrades judge connections and wires them into the session use
// cases. Push delivery via the broadcaster is best-effort; every connection
// also polls the versioned session record so a judge that missed an event
// converges within one poll interval.
type WSHandler struct {
	service       *app.SessionService
	continuations ContinuationStore
	pollInterval  time.Duration
	upgrader      websocket.Upgrader
}

func NewWSHandler(service *app.SessionService, continuations ContinuationStore, pollInterval time.Duration) *WSHandler {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &WSHandler{
		service:       service,
		continuations: continuations,
		pollInterval:  pollInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Choice     string `json:"choice"`
}

type answerAck struct {
	QuestionID string  `json:"questionId"`
	Choice     string  `json:"choice"`
	Points     float64 `json:"points"`
}

type joinedPayload struct {
	Judge domain.Judge      `json:"judge"`
	View  app.SessionView   `json:"view"`
	State domain.RoundState `json:"state"`
}

type questionsPayload struct {
	ActiveTeam string            `json:"activeTeam"`
	Questions  []domain.Question `json:"questions"`
}

type teamPayload struct {
	ActiveTeam string `json:"activeTeam"`
}

type progressPayload struct {
	State domain.RoundState `json:"state"`
}

type statePayload struct {
	View  app.SessionView   `json:"view"`
	State domain.RoundState `json:"state"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS handles one judge connection for its whole lifetime.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	name := r.URL.Query().Get("name")
	token := r.URL.Query().Get("token")

	// A saved continuation lets a client resume with only its token.
	if token != "" && h.continuations != nil {
		if saved, err := h.continuations.Load(r.Context(), token); err == nil {
			if name == "" {
				name = saved.Name
			}
			if sessionID == "" {
				sessionID = saved.SessionID
			}
		}
	}
	if name == "" && token == "" {
		http.Error(w, "missing name or token", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	judge, view, err := h.service.JoinJudge(r.Context(), sessionID, name, token)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	if h.continuations != nil {
		if err := h.continuations.Save(r.Context(), judge); err != nil {
			log.Printf("save continuation for judge %s: %v", judge.Name, err)
		}
	}

	updates, cancel, err := h.service.Subscribe(r.Context(), view.Session.ID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	var progressMu sync.Mutex
	progress := domain.NewRoundProgress(view.Session.Questions)
	for _, a := range view.Answers {
		progress.MarkAnswered(a.QuestionID)
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer goroutine; gorilla connections do not allow concurrent
	// writes. A sessionEnded message is terminal: the writer closes the
	// connection after flushing it, which unblocks the read loop.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
			if msg.Type == "sessionEnded" {
				conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		h.runUpdates(r.Context(), updates, send, closeSignals, judge, view, progress, &progressMu)
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joinedPayload{Judge: judge, View: view, State: progress.State()}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			answer, lb, err := h.service.SubmitAnswer(r.Context(), view.Session.ID, judge.Token, payload.QuestionID, payload.Choice)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			progressMu.Lock()
			state := progress.MarkAnswered(answer.QuestionID)
			progressMu.Unlock()
			send <- outboundMessage[any]{Type: "answerAck", Payload: answerAck{
				QuestionID: answer.QuestionID,
				Choice:     answer.Choice,
				Points:     answer.PointValue(),
			}}
			send <- outboundMessage[any]{Type: "progress", Payload: progressPayload{State: state}}
			send <- outboundMessage[any]{Type: "leaderboard", Payload: lb}
		case "state":
			v, err := h.service.View(r.Context(), view.Session.ID, judge.Token)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			progressMu.Lock()
			progress.Reset(v.Session.Questions)
			for _, a := range v.Answers {
				progress.MarkAnswered(a.QuestionID)
			}
			state := progress.State()
			progressMu.Unlock()
			send <- outboundMessage[any]{Type: "state", Payload: statePayload{View: v, State: state}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// runUpdates forwards broadcast events and runs the poll fallback. Both paths
// feed the same outbound messages, so it makes no difference to the client
// whether state arrived by push or by poll.
func (h *WSHandler) runUpdates(
	ctx context.Context,
	updates <-chan domain.Event,
	send chan<- outboundMessage[any],
	closing <-chan struct{},
	judge domain.Judge,
	view app.SessionView,
	progress *domain.RoundProgress,
	progressMu *sync.Mutex,
) {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()
	lastVersion := view.Session.Version

	for {
		select {
		case ev, ok := <-updates:
			if !ok {
				return
			}
			if ev.Version > lastVersion {
				lastVersion = ev.Version
			}
			switch ev.Type {
			case domain.EventQuestions:
				progressMu.Lock()
				progress.Reset(ev.Questions)
				state := progress.State()
				progressMu.Unlock()
				if !trySend(send, closing, outboundMessage[any]{Type: "questions", Payload: questionsPayload{ActiveTeam: ev.ActiveTeam, Questions: ev.Questions}}) {
					return
				}
				if !trySend(send, closing, outboundMessage[any]{Type: "progress", Payload: progressPayload{State: state}}) {
					return
				}
			case domain.EventTeam:
				if !trySend(send, closing, outboundMessage[any]{Type: "team", Payload: teamPayload{ActiveTeam: ev.ActiveTeam}}) {
					return
				}
			case domain.EventLeaderboard:
				if ev.Leaderboard == nil {
					continue
				}
				if !trySend(send, closing, outboundMessage[any]{Type: "leaderboard", Payload: *ev.Leaderboard}) {
					return
				}
			case domain.EventEnded:
				h.clearContinuation(judge.Token)
				trySend(send, closing, outboundMessage[any]{Type: "sessionEnded", Payload: teamPayload{ActiveTeam: domain.CompletedTeam}})
				return
			}
		case <-ticker.C:
			v, err := h.service.View(ctx, view.Session.ID, judge.Token)
			if errors.Is(err, domain.ErrSessionNotFound) || (err == nil && v.Session.Completed()) {
				h.clearContinuation(judge.Token)
				trySend(send, closing, outboundMessage[any]{Type: "sessionEnded", Payload: teamPayload{ActiveTeam: domain.CompletedTeam}})
				return
			}
			if err != nil {
				log.Printf("poll session %s: %v", view.Session.ID, err)
				continue
			}
			if v.Session.Version == lastVersion {
				continue
			}
			lastVersion = v.Session.Version
			progressMu.Lock()
			progress.Reset(v.Session.Questions)
			for _, a := range v.Answers {
				progress.MarkAnswered(a.QuestionID)
			}
			state := progress.State()
			progressMu.Unlock()
			if !trySend(send, closing, outboundMessage[any]{Type: "state", Payload: statePayload{View: v, State: state}}) {
				return
			}
		case <-closing:
			return
		}
	}
}

func trySend(send chan<- outboundMessage[any], closing <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-closing:
		return false
	}
}

func (h *WSHandler) clearContinuation(token string) {
	if h.continuations == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.continuations.Clear(ctx, token); err != nil {
		log.Printf("clear continuation: %v", err)
	}
}
