package domain

import "time"

// CompletedTeam is the sentinel stored in ActiveTeam when a session has been
// finalized. No further transitions are valid once it is set.
const CompletedTeam = "__completed__"

// Direction selects which way the host advances the active team.
type Direction int

const (
	Next Direction = iota
	Prev
)

// ParseDirection maps the wire values "next" and "prev"; anything else
// defaults to Next.
func ParseDirection(raw string) Direction {
	if raw == "prev" {
		return Prev
	}
	return Next
}

// Session is the single versioned record coordinating one judging round.
// Every host transition bumps Version; stores apply updates with a
// compare-and-swap on it so concurrent writers cannot silently clobber each
// other. Questions holds embedded copies of the currently broadcast set, not
// references, so later bank edits do not change a round in flight.
type Session struct {
	ID          string     `json:"id"`
	HostToken   string     `json:"-"`
	Teams       []string   `json:"teams"`
	TeamIndex   int        `json:"teamIndex"`
	ActiveTeam  string     `json:"activeTeam"`
	Questions   []Question `json:"questions,omitempty"`
	PointBudget float64    `json:"pointBudget,omitempty"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewSession validates the roster and builds the initial record with the
// first team active.
func NewSession(id, hostToken string, teams []string, pointBudget float64, now time.Time) (Session, error) {
	if len(teams) == 0 {
		return Session{}, ErrEmptyTeamList
	}
	return Session{
		ID:          id,
		HostToken:   hostToken,
		Teams:       append([]string(nil), teams...),
		TeamIndex:   0,
		ActiveTeam:  teams[0],
		PointBudget: pointBudget,
		Version:     1,
		CreatedAt:   now,
	}, nil
}

// Completed reports whether the session has been finalized.
func (s *Session) Completed() bool {
	return s.ActiveTeam == CompletedTeam
}

// Advance moves the active team pointer circularly. A no-op on an empty
// roster, rejected once the session is completed.
func (s *Session) Advance(dir Direction) error {
	if s.Completed() {
		return ErrSessionCompleted
	}
	n := len(s.Teams)
	if n == 0 {
		return nil
	}
	switch dir {
	case Prev:
		s.TeamIndex = (s.TeamIndex - 1 + n) % n
	default:
		s.TeamIndex = (s.TeamIndex + 1) % n
	}
	s.ActiveTeam = s.Teams[s.TeamIndex]
	return nil
}

// SetBroadcast stores a new question set for the active team. The set must be
// non-empty and the session must still be live with a team selected.
func (s *Session) SetBroadcast(questions []Question) error {
	if s.Completed() {
		return ErrSessionCompleted
	}
	if len(questions) == 0 {
		return ErrEmptyQuestionSet
	}
	if s.ActiveTeam == "" {
		return ErrNoActiveTeam
	}
	s.Questions = append([]Question(nil), questions...)
	return nil
}

// Complete marks the session finalized.
func (s *Session) Complete() {
	s.ActiveTeam = CompletedTeam
}
