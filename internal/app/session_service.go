package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

// SessionStore persists the versioned session record. Update applies a
// compare-and-swap: the stored version must be exactly one less than the
// version being written, otherwise ErrVersionConflict is returned.
type SessionStore interface {
	Create(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	// Latest returns the most recently created session that is not completed.
	Latest(ctx context.Context) (domain.Session, error)
	Update(ctx context.Context, s domain.Session) error
	Delete(ctx context.Context, id string) error
}

// AnswerStore keeps exactly one current answer per
// (session, judge, question, team); Upsert replaces atomically.
type AnswerStore interface {
	Upsert(ctx context.Context, a domain.Answer) error
	BySession(ctx context.Context, sessionID string) ([]domain.Answer, error)
	ByJudgeTeam(ctx context.Context, sessionID, judgeToken, teamName string) ([]domain.Answer, error)
}

// ResultStore persists finalized per-team totals, overwriting on
// (session, team) so ending a session twice is harmless.
type ResultStore interface {
	Upsert(ctx context.Context, r domain.SessionResult) error
	BySession(ctx context.Context, sessionID string) ([]domain.SessionResult, error)
}

// JudgeStore resolves judges by token (identity) or by (name, session)
// (first join / rejoin without a saved token).
type JudgeStore interface {
	Put(ctx context.Context, j domain.Judge) error
	ByToken(ctx context.Context, token string) (domain.Judge, error)
	ByNameSession(ctx context.Context, name, sessionID string) (domain.Judge, error)
}

// Broadcaster fans session events out to subscribed judges. Delivery is
// best-effort: publish failures are logged, never surfaced, because judges
// also poll the session record.
type Broadcaster interface {
	Publish(ctx context.Context, sessionID string, ev domain.Event) error
	Subscribe(ctx context.Context, sessionID string) (<-chan domain.Event, func(), error)
}

// SessionView is the full state a judge needs to (re)render: the session
// record, the judge's own answers for the active team, and the leaderboard.
// It is what the recovery path returns when a push was missed.
type SessionView struct {
	Session     domain.Session     `json:"session"`
	Answers     []domain.Answer    `json:"answers"`
	Leaderboard domain.Leaderboard `json:"leaderboard"`
}

// SessionService drives the session state machine and the answer flow.
type SessionService struct {
	sessions    SessionStore
	answers     AnswerStore
	results     ResultStore
	judges      JudgeStore
	broadcaster Broadcaster
	now         func() time.Time
}

func NewSessionService(sessions SessionStore, answers AnswerStore, results ResultStore, judges JudgeStore, broadcaster Broadcaster) *SessionService {
	return &SessionService{
		sessions:    sessions,
		answers:     answers,
		results:     results,
		judges:      judges,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// WithClock overrides the clock for deterministic tests.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

const casRetries = 3

// CreateSession starts a new judging round with the given roster. The first
// team is active; the returned record includes the generated host token.
func (s *SessionService) CreateSession(ctx context.Context, teams []string, pointBudget float64) (domain.Session, error) {
	sess, err := domain.NewSession(uuid.NewString(), uuid.NewString(), teams, pointBudget, s.now())
	if err != nil {
		return domain.Session{}, err
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// Advance moves the active team pointer and notifies judges.
func (s *SessionService) Advance(ctx context.Context, sessionID, hostToken string, dir domain.Direction) (domain.Session, error) {
	sess, err := s.updateSession(ctx, sessionID, hostToken, func(sess *domain.Session) error {
		return sess.Advance(dir)
	})
	if err != nil {
		return domain.Session{}, err
	}
	s.publish(ctx, sess.ID, domain.Event{
		Type:       domain.EventTeam,
		SessionID:  sess.ID,
		Version:    sess.Version,
		ActiveTeam: sess.ActiveTeam,
	})
	return sess, nil
}

// Broadcast stores the question set for the active team and pushes it to
// judges. The persisted record is authoritative: a judge that misses the push
// picks the set up on its next poll.
func (s *SessionService) Broadcast(ctx context.Context, sessionID, hostToken string, questions []domain.Question) (domain.Session, error) {
	sess, err := s.updateSession(ctx, sessionID, hostToken, func(sess *domain.Session) error {
		return sess.SetBroadcast(questions)
	})
	if err != nil {
		return domain.Session{}, err
	}
	s.publish(ctx, sess.ID, domain.Event{
		Type:       domain.EventQuestions,
		SessionID:  sess.ID,
		Version:    sess.Version,
		ActiveTeam: sess.ActiveTeam,
		Questions:  sess.Questions,
	})
	return sess, nil
}

// End finalizes the session: per-team totals are computed from the full
// answer log and upserted as SessionResult rows (roster teams with no answers
// get a zero row), then the record is marked completed. Ending twice rewrites
// the same rows.
func (s *SessionService) End(ctx context.Context, sessionID, hostToken string) ([]domain.SessionResult, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if hostToken != sess.HostToken {
		return nil, domain.ErrUnauthorizedHost
	}

	answers, err := s.answers.BySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	results := finalResults(sess, answers)
	for _, r := range results {
		if err := s.results.Upsert(ctx, r); err != nil {
			return nil, err
		}
	}

	if !sess.Completed() {
		if _, err := s.updateSession(ctx, sessionID, hostToken, func(sess *domain.Session) error {
			sess.Complete()
			return nil
		}); err != nil {
			return nil, err
		}
	}
	s.publish(ctx, sessionID, domain.Event{
		Type:       domain.EventEnded,
		SessionID:  sessionID,
		Version:    sess.Version + 1,
		ActiveTeam: domain.CompletedTeam,
	})
	return results, nil
}

// finalResults orders teams by leaderboard rank, then appends roster teams
// that never received an answer with a zero total.
func finalResults(sess domain.Session, answers []domain.Answer) []domain.SessionResult {
	byTeam := make(map[string][]domain.Answer)
	for _, a := range answers {
		byTeam[a.TeamName] = append(byTeam[a.TeamName], a)
	}

	results := make([]domain.SessionResult, 0, len(sess.Teams))
	ranked := make(map[string]bool)
	for _, entry := range domain.Aggregate(answers) {
		results = append(results, domain.SessionResult{
			SessionID: sess.ID,
			TeamName:  entry.TeamName,
			Total:     entry.Total,
			Answers:   byTeam[entry.TeamName],
		})
		ranked[entry.TeamName] = true
	}
	for _, team := range sess.Teams {
		if !ranked[team] {
			results = append(results, domain.SessionResult{SessionID: sess.ID, TeamName: team})
		}
	}
	return results
}

// JoinJudge attaches a judge to a session. An empty sessionID attaches to the
// most recently created open session. A saved token resolves the same judge
// row across reconnects; otherwise the (name, session) pair is looked up and
// a new judge is minted on first join.
func (s *SessionService) JoinJudge(ctx context.Context, sessionID, name, token string) (domain.Judge, SessionView, error) {
	var sess domain.Session
	var err error
	if sessionID == "" {
		sess, err = s.sessions.Latest(ctx)
	} else {
		sess, err = s.sessions.Get(ctx, sessionID)
	}
	if err != nil {
		return domain.Judge{}, SessionView{}, err
	}

	judge, err := s.resolveJudge(ctx, sess.ID, name, token)
	if err != nil {
		return domain.Judge{}, SessionView{}, err
	}
	view, err := s.View(ctx, sess.ID, judge.Token)
	if err != nil {
		return domain.Judge{}, SessionView{}, err
	}
	return judge, view, nil
}

func (s *SessionService) resolveJudge(ctx context.Context, sessionID, name, token string) (domain.Judge, error) {
	if token != "" {
		judge, err := s.judges.ByToken(ctx, token)
		if err == nil && judge.SessionID == sessionID {
			return judge, nil
		}
		if err != nil && !errors.Is(err, domain.ErrJudgeNotFound) {
			return domain.Judge{}, err
		}
		// Stale token from an earlier session; fall through to a fresh join.
	}
	if name == "" {
		return domain.Judge{}, domain.ErrEmptyJudgeName
	}
	judge, err := s.judges.ByNameSession(ctx, name, sessionID)
	if err == nil {
		return judge, nil
	}
	if !errors.Is(err, domain.ErrJudgeNotFound) {
		return domain.Judge{}, err
	}
	judge = domain.Judge{Token: uuid.NewString(), Name: name, SessionID: sessionID}
	if err := s.judges.Put(ctx, judge); err != nil {
		return domain.Judge{}, err
	}
	return judge, nil
}

// SubmitAnswer scores the chosen answer against the broadcast question and
// records it for the active team. Resubmitting replaces the previous answer
// atomically, so the judge contributes exactly one value per question.
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionID, judgeToken, questionID, choice string) (domain.Answer, domain.Leaderboard, error) {
	if choice == "" {
		return domain.Answer{}, domain.Leaderboard{}, domain.ErrEmptyChoice
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Answer{}, domain.Leaderboard{}, err
	}
	if sess.Completed() {
		return domain.Answer{}, domain.Leaderboard{}, domain.ErrSessionCompleted
	}
	judge, err := s.judges.ByToken(ctx, judgeToken)
	if err != nil {
		return domain.Answer{}, domain.Leaderboard{}, err
	}
	if judge.SessionID != sess.ID {
		return domain.Answer{}, domain.Leaderboard{}, domain.ErrJudgeNotFound
	}

	var question *domain.Question
	for i := range sess.Questions {
		if sess.Questions[i].ID == questionID {
			question = &sess.Questions[i]
			break
		}
	}
	if question == nil {
		return domain.Answer{}, domain.Leaderboard{}, domain.ErrQuestionNotFound
	}

	points := domain.Score(*question, choice)
	answer := domain.Answer{
		SessionID:  sess.ID,
		JudgeToken: judge.Token,
		TeamName:   sess.ActiveTeam,
		QuestionID: questionID,
		Choice:     choice,
		Points:     &points,
	}
	if err := s.answers.Upsert(ctx, answer); err != nil {
		return domain.Answer{}, domain.Leaderboard{}, err
	}

	lb, err := s.Leaderboard(ctx, sess.ID)
	if err != nil {
		return domain.Answer{}, domain.Leaderboard{}, err
	}
	s.publish(ctx, sess.ID, domain.Event{
		Type:        domain.EventLeaderboard,
		SessionID:   sess.ID,
		Version:     sess.Version,
		Leaderboard: &lb,
	})
	return answer, lb, nil
}

// View is the recovery query: everything a judge needs to rebuild its screen
// after a missed push or a reconnect.
func (s *SessionService) View(ctx context.Context, sessionID, judgeToken string) (SessionView, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	view := SessionView{Session: sess}
	if judgeToken != "" && !sess.Completed() {
		answers, err := s.answers.ByJudgeTeam(ctx, sessionID, judgeToken, sess.ActiveTeam)
		if err != nil {
			return SessionView{}, err
		}
		view.Answers = answers
	}
	lb, err := s.Leaderboard(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	view.Leaderboard = lb
	return view, nil
}

// Leaderboard recomputes the ranking from the full answer log.
func (s *SessionService) Leaderboard(ctx context.Context, sessionID string) (domain.Leaderboard, error) {
	answers, err := s.answers.BySession(ctx, sessionID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{
		SessionID: sessionID,
		Entries:   domain.Aggregate(answers),
		UpdatedAt: s.now(),
	}, nil
}

// Current returns the most recently created open session.
func (s *SessionService) Current(ctx context.Context) (domain.Session, error) {
	return s.sessions.Latest(ctx)
}

// Results returns the finalized rows written by End.
func (s *SessionService) Results(ctx context.Context, sessionID string) ([]domain.SessionResult, error) {
	return s.results.BySession(ctx, sessionID)
}

// Subscribe exposes the broadcaster to the transport layer.
func (s *SessionService) Subscribe(ctx context.Context, sessionID string) (<-chan domain.Event, func(), error) {
	return s.broadcaster.Subscribe(ctx, sessionID)
}

// updateSession applies a host mutation with a bounded compare-and-swap retry.
func (s *SessionService) updateSession(ctx context.Context, sessionID, hostToken string, mutate func(*domain.Session) error) (domain.Session, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		sess, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			return domain.Session{}, err
		}
		if hostToken != sess.HostToken {
			return domain.Session{}, domain.ErrUnauthorizedHost
		}
		if err := mutate(&sess); err != nil {
			return domain.Session{}, err
		}
		sess.Version++
		err = s.sessions.Update(ctx, sess)
		if errors.Is(err, domain.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return domain.Session{}, err
		}
		return sess, nil
	}
	return domain.Session{}, domain.ErrVersionConflict
}

func (s *SessionService) publish(ctx context.Context, sessionID string, ev domain.Event) {
	if err := s.broadcaster.Publish(ctx, sessionID, ev); err != nil {
		log.Printf("publish %s event for session %s: %v", ev.Type, sessionID, err)
	}
}
