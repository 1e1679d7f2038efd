package domain

import (
	"encoding/json"
	"time"
)

// Team is a competing team managed by the host. Sessions and answers refer to
// teams by display name, not by row id, so renaming a team does not relink
// history recorded under the old name.
type Team struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// Choice is one selectable answer option with a relative score weight.
type Choice struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// UnmarshalJSON accepts both the structured form {"text": ..., "weight": ...}
// and the legacy bare-string form, which carries an implicit weight of 1.
func (c *Choice) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		c.Text = text
		c.Weight = 1
		return nil
	}
	type choiceAlias Choice
	var structured choiceAlias
	if err := json.Unmarshal(data, &structured); err != nil {
		return err
	}
	*c = Choice(structured)
	return nil
}

// Question models one judgeable item. Weight scales the normalized choice
// weight into final points and defaults to 1 when zero.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Section string   `json:"section,omitempty"`
	Weight  float64  `json:"weight"`
	Choices []Choice `json:"choices"`
	BankID  string   `json:"bankId,omitempty"`
}

// QuestionBank is a named collection of questions prepared by host tooling.
type QuestionBank struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// Judge identifies one judging client within a single session. The token, not
// the name, carries identity across reconnects; names are only unique within
// one session.
type Judge struct {
	Token     string `json:"token"`
	Name      string `json:"name"`
	SessionID string `json:"sessionId"`
}

// Answer is a judge's current choice for one question, team and session.
// Points is nil for answers recorded before scoring existed; those count as 1
// during aggregation.
type Answer struct {
	SessionID  string   `json:"sessionId"`
	JudgeToken string   `json:"judgeToken"`
	TeamName   string   `json:"teamName"`
	QuestionID string   `json:"questionId"`
	Choice     string   `json:"choice"`
	Points     *float64 `json:"points,omitempty"`
}

// PointValue returns the answer's contribution to its team total.
func (a Answer) PointValue() float64 {
	if a.Points == nil {
		return 1
	}
	return *a.Points
}

// TeamScore is one leaderboard row.
type TeamScore struct {
	TeamName string  `json:"teamName"`
	Total    float64 `json:"total"`
}

// Leaderboard is the derived ranking for a session, recomputable at any time
// from the answer log.
type Leaderboard struct {
	SessionID string      `json:"sessionId"`
	Entries   []TeamScore `json:"entries"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// SessionResult is the finalized total for one (session, team) pair, written
// when the host ends the session. Ending twice overwrites the same rows.
type SessionResult struct {
	SessionID string   `json:"sessionId"`
	TeamName  string   `json:"teamName"`
	Total     float64  `json:"total"`
	Answers   []Answer `json:"answers"`
}

// EventType tags a session event fanned out to judges.
type EventType string

const (
	// EventTeam signals the active team changed.
	EventTeam EventType = "team"
	// EventQuestions signals a new question set was broadcast.
	EventQuestions EventType = "questions"
	// EventLeaderboard carries a recomputed leaderboard.
	EventLeaderboard EventType = "leaderboard"
	// EventEnded signals the session was finalized.
	EventEnded EventType = "ended"
)

// Event is the payload published on a session's topic. Delivery is
// best-effort; judges reconcile against the versioned session record when a
// push is missed.
type Event struct {
	Type        EventType    `json:"type"`
	SessionID   string       `json:"sessionId"`
	Version     int64        `json:"version"`
	ActiveTeam  string       `json:"activeTeam,omitempty"`
	Questions   []Question   `json:"questions,omitempty"`
	Leaderboard *Leaderboard `json:"leaderboard,omitempty"`
}
