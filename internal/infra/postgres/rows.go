package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

type sessionRow struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID          string          `bun:"id,pk"`
	HostToken   string          `bun:"host_token,notnull"`
	Teams       []string        `bun:"teams,array"`
	TeamIndex   int             `bun:"team_index,notnull"`
	ActiveTeam  string          `bun:"active_team,notnull"`
	Questions   json.RawMessage `bun:"questions,type:jsonb,nullzero"`
	PointBudget float64         `bun:"point_budget"`
	Version     int64           `bun:"version,notnull"`
	CreatedAt   time.Time       `bun:"created_at,notnull"`
}

func sessionToRow(s domain.Session) (sessionRow, error) {
	row := sessionRow{
		ID:          s.ID,
		HostToken:   s.HostToken,
		Teams:       s.Teams,
		TeamIndex:   s.TeamIndex,
		ActiveTeam:  s.ActiveTeam,
		PointBudget: s.PointBudget,
		Version:     s.Version,
		CreatedAt:   s.CreatedAt,
	}
	if len(s.Questions) > 0 {
		payload, err := json.Marshal(s.Questions)
		if err != nil {
			return sessionRow{}, fmt.Errorf("marshal questions: %w", err)
		}
		row.Questions = payload
	}
	return row, nil
}

func (r sessionRow) toDomain() (domain.Session, error) {
	s := domain.Session{
		ID:          r.ID,
		HostToken:   r.HostToken,
		Teams:       r.Teams,
		TeamIndex:   r.TeamIndex,
		ActiveTeam:  r.ActiveTeam,
		PointBudget: r.PointBudget,
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
	}
	if len(r.Questions) > 0 {
		if err := json.Unmarshal(r.Questions, &s.Questions); err != nil {
			return domain.Session{}, fmt.Errorf("unmarshal questions: %w", err)
		}
	}
	return s, nil
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID         int64    `bun:"id,pk,autoincrement"`
	SessionID  string   `bun:"session_id,notnull"`
	JudgeToken string   `bun:"judge_token,notnull"`
	TeamName   string   `bun:"team_name,notnull"`
	QuestionID string   `bun:"question_id,notnull"`
	Choice     string   `bun:"choice,notnull"`
	Points     *float64 `bun:"points"`
}

func answerToRow(a domain.Answer) answerRow {
	return answerRow{
		SessionID:  a.SessionID,
		JudgeToken: a.JudgeToken,
		TeamName:   a.TeamName,
		QuestionID: a.QuestionID,
		Choice:     a.Choice,
		Points:     a.Points,
	}
}

func (r answerRow) toDomain() domain.Answer {
	return domain.Answer{
		SessionID:  r.SessionID,
		JudgeToken: r.JudgeToken,
		TeamName:   r.TeamName,
		QuestionID: r.QuestionID,
		Choice:     r.Choice,
		Points:     r.Points,
	}
}

type resultRow struct {
	bun.BaseModel `bun:"table:session_results,alias:sr"`

	SessionID string          `bun:"session_id,pk"`
	TeamName  string          `bun:"team_name,pk"`
	Total     float64         `bun:"total,notnull"`
	Answers   json.RawMessage `bun:"answers,type:jsonb,nullzero"`
}

func resultToRow(r domain.SessionResult) (resultRow, error) {
	row := resultRow{
		SessionID: r.SessionID,
		TeamName:  r.TeamName,
		Total:     r.Total,
	}
	if len(r.Answers) > 0 {
		payload, err := json.Marshal(r.Answers)
		if err != nil {
			return resultRow{}, fmt.Errorf("marshal result answers: %w", err)
		}
		row.Answers = payload
	}
	return row, nil
}

func (r resultRow) toDomain() (domain.SessionResult, error) {
	result := domain.SessionResult{
		SessionID: r.SessionID,
		TeamName:  r.TeamName,
		Total:     r.Total,
	}
	if len(r.Answers) > 0 {
		if err := json.Unmarshal(r.Answers, &result.Answers); err != nil {
			return domain.SessionResult{}, fmt.Errorf("unmarshal result answers: %w", err)
		}
	}
	return result, nil
}

type judgeRow struct {
	bun.BaseModel `bun:"table:judges,alias:j"`

	Token     string `bun:"token,pk"`
	Name      string `bun:"name,notnull"`
	SessionID string `bun:"session_id,notnull"`
}

type teamRow struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Name     string `bun:"name,notnull"`
	Position int    `bun:"position"`
}
