package domain

import "errors"

var (
	// ErrEmptyTeamList is returned when a session is created without teams.
	ErrEmptyTeamList = errors.New("team list is empty")
	// ErrEmptyQuestionSet is returned when a broadcast carries no questions.
	ErrEmptyQuestionSet = errors.New("question set is empty")
	// ErrNoActiveTeam is returned when a broadcast happens without an active team.
	ErrNoActiveTeam = errors.New("no active team")
	// ErrSessionNotFound is returned when no session matches the given id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCompleted rejects transitions on a finalized session.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrUnauthorizedHost is returned when the host token does not match.
	ErrUnauthorizedHost = errors.New("host token mismatch")
	// ErrVersionConflict signals a lost compare-and-swap race on the session record.
	ErrVersionConflict = errors.New("session version conflict")
	// ErrJudgeNotFound is returned for an unknown judge token.
	ErrJudgeNotFound = errors.New("judge not found")
	// ErrEmptyJudgeName is returned when a judge joins without a name.
	ErrEmptyJudgeName = errors.New("judge name is empty")
	// ErrQuestionNotFound indicates an answer targeted a question outside the current broadcast.
	ErrQuestionNotFound = errors.New("question not in current broadcast")
	// ErrEmptyChoice is returned when an answer carries no selected choice.
	ErrEmptyChoice = errors.New("no choice selected")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrTeamNotFound is returned when a team row is missing.
	ErrTeamNotFound = errors.New("team not found")
	// ErrDuplicateTeam is returned when a team name is already taken.
	ErrDuplicateTeam = errors.New("team name already exists")
	// ErrEmptyTeamName is returned when a team is created without a name.
	ErrEmptyTeamName = errors.New("team name is empty")
)
