package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/1KHA/daralhikmajudge/internal/app"
	"github.com/1KHA/daralhikmajudge/internal/domain"
	"github.com/1KHA/daralhikmajudge/internal/infra/memory"
)

func newTestService() *app.SessionService {
	return app.NewSessionService(
		memory.NewSessionStore(),
		memory.NewAnswerStore(),
		memory.NewResultStore(),
		memory.NewJudgeStore(),
		memory.NewBroadcaster(),
	)
}

func testQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:     "q1",
			Text:   "Clarity",
			Weight: 10,
			Choices: []domain.Choice{
				{Text: "A", Weight: 1},
				{Text: "B", Weight: 3},
			},
		},
	}
}

func TestCreateSessionRequiresTeams(t *testing.T) {
	service := newTestService()
	if _, err := service.CreateSession(context.Background(), nil, 0); !errors.Is(err, domain.ErrEmptyTeamList) {
		t.Fatalf("expected ErrEmptyTeamList, got %v", err)
	}
}

func TestAdvanceRequiresHostToken(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	sess, err := service.CreateSession(ctx, []string{"X", "Y"}, 0)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := service.Advance(ctx, sess.ID, "wrong-token", domain.Next); !errors.Is(err, domain.ErrUnauthorizedHost) {
		t.Fatalf("expected ErrUnauthorizedHost, got %v", err)
	}

	advanced, err := service.Advance(ctx, sess.ID, sess.HostToken, domain.Next)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if advanced.ActiveTeam != "Y" {
		t.Fatalf("expected Y active, got %s", advanced.ActiveTeam)
	}
	if advanced.Version != sess.Version+1 {
		t.Fatalf("expected version bump, got %d", advanced.Version)
	}
}

func TestSubmitAnswerScoresAndRecords(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	sess, _ := service.CreateSession(ctx, []string{"X", "Y"}, 0)
	if _, err := service.Broadcast(ctx, sess.ID, sess.HostToken, testQuestions()); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	judge, _, err := service.JoinJudge(ctx, sess.ID, "Alice", "")
	if err != nil {
		t.Fatalf("join judge: %v", err)
	}

	answer, lb, err := service.SubmitAnswer(ctx, sess.ID, judge.Token, "q1", "B")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if answer.PointValue() != 10 {
		t.Fatalf("expected 10 points for top choice, got %v", answer.PointValue())
	}
	if answer.TeamName != "X" {
		t.Fatalf("expected answer recorded for active team X, got %s", answer.TeamName)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].Total != 10 {
		t.Fatalf("expected leaderboard total 10, got %+v", lb.Entries)
	}
}

func TestSubmitAnswerReplacementDoesNotDoubleCount(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	sess, _ := service.CreateSession(ctx, []string{"X"}, 0)
	_, _ = service.Broadcast(ctx, sess.ID, sess.HostToken, testQuestions())
	judge, _, _ := service.JoinJudge(ctx, sess.ID, "Alice", "")

	if _, _, err := service.SubmitAnswer(ctx, sess.ID, judge.Token, "q1", "B"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, lb, err := service.SubmitAnswer(ctx, sess.ID, judge.Token, "q1", "A")
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if len(lb.Entries) != 1 {
		t.Fatalf("expected one team entry, got %+v", lb.Entries)
	}
	if lb.Entries[0].Total != 3.33 {
		t.Fatalf("expected replacement total 3.33, got %v", lb.Entries[0].Total)
	}
}

func TestSubmitAnswerValidations(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	sess, _ := service.CreateSession(ctx, []string{"X"}, 0)
	_, _ = service.Broadcast(ctx, sess.ID, sess.HostToken, testQuestions())
	judge, _, _ := service.JoinJudge(ctx, sess.ID, "Alice", "")

	if _, _, err := service.SubmitAnswer(ctx, sess.ID, judge.Token, "q1", ""); !errors.Is(err, domain.ErrEmptyChoice) {
		t.Fatalf("expected ErrEmptyChoice, got %v", err)
	}
	if _, _, err := service.SubmitAnswer(ctx, sess.ID, judge.Token, "q-missing", "A"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
	if _, _, err := service.SubmitAnswer(ctx, sess.ID, "unknown-token", "q1", "A"); !errors.Is(err, domain.ErrJudgeNotFound) {
		t.Fatalf("expected ErrJudgeNotFound, got %v", err)
	}
}

func TestEndSessionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	sess, _ := service.CreateSession(ctx, []string{"X", "Y"}, 0)
	_, _ = service.Broadcast(ctx, sess.ID, sess.HostToken, testQuestions())
	judge, _, _ := service.JoinJudge(ctx, sess.ID, "Alice", "")
	_, _, _ = service.SubmitAnswer(ctx, sess.ID, judge.Token, "q1", "B")

	first, err := service.End(ctx, sess.ID, sess.HostToken)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	second, err := service.End(ctx, sess.ID, sess.HostToken)
	if err != nil {
		t.Fatalf("second end: %v", err)
	}

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected one result per roster team, got %d then %d", len(first), len(second))
	}
	stored, err := service.Results(ctx, sess.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored rows after double end, got %d", len(stored))
	}
	for i := range first {
		if first[i].TeamName != second[i].TeamName || first[i].Total != second[i].Total {
			t.Fatalf("ends disagree: %+v vs %+v", first[i], second[i])
		}
	}
	if first[0].TeamName != "X" || first[0].Total != 10 {
		t.Fatalf("expected X leading with 10, got %+v", first[0])
	}
	if first[1].TeamName != "Y" || first[1].Total != 0 {
		t.Fatalf("expected zero row for unanswered team Y, got %+v", first[1])
	}
}

func TestJoinJudgeRejoinsByToken(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	sess, _ := service.CreateSession(ctx, []string{"X"}, 0)
	judge, _, err := service.JoinJudge(ctx, sess.ID, "Alice", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	rejoined, _, err := service.JoinJudge(ctx, sess.ID, "", judge.Token)
	if err != nil {
		t.Fatalf("rejoin by token: %v", err)
	}
	if rejoined.Token != judge.Token {
		t.Fatalf("expected same judge on token rejoin")
	}

	sameName, _, err := service.JoinJudge(ctx, sess.ID, "Alice", "")
	if err != nil {
		t.Fatalf("rejoin by name: %v", err)
	}
	if sameName.Token != judge.Token {
		t.Fatalf("expected (name, session) to resolve the existing judge")
	}
}

func TestJoinJudgeAttachesToLatestSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	if _, _, err := service.JoinJudge(ctx, "", "Alice", ""); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound with no sessions, got %v", err)
	}

	sess, _ := service.CreateSession(ctx, []string{"X"}, 0)
	judge, view, err := service.JoinJudge(ctx, "", "Alice", "")
	if err != nil {
		t.Fatalf("join latest: %v", err)
	}
	if judge.SessionID != sess.ID || view.Session.ID != sess.ID {
		t.Fatalf("expected attach to latest session %s, got %s", sess.ID, judge.SessionID)
	}
}

func TestViewRecoversJudgeAnswers(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	sess, _ := service.CreateSession(ctx, []string{"X"}, 0)
	_, _ = service.Broadcast(ctx, sess.ID, sess.HostToken, testQuestions())
	judge, _, _ := service.JoinJudge(ctx, sess.ID, "Alice", "")
	_, _, _ = service.SubmitAnswer(ctx, sess.ID, judge.Token, "q1", "B")

	view, err := service.View(ctx, sess.ID, judge.Token)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Session.Questions) != 1 {
		t.Fatalf("expected broadcast questions in view")
	}
	if len(view.Answers) != 1 || view.Answers[0].Choice != "B" {
		t.Fatalf("expected prior answer in view, got %+v", view.Answers)
	}
	if len(view.Leaderboard.Entries) != 1 {
		t.Fatalf("expected leaderboard in view")
	}
}

func TestSubscribeReceivesBroadcast(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	sess, _ := service.CreateSession(ctx, []string{"X"}, 0)
	ch, cancel, err := service.Subscribe(ctx, sess.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if _, err := service.Broadcast(ctx, sess.ID, sess.HostToken, testQuestions()); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	ev := <-ch
	if ev.Type != domain.EventQuestions || len(ev.Questions) != 1 {
		t.Fatalf("expected questions event, got %+v", ev)
	}
	if ev.ActiveTeam != "X" {
		t.Fatalf("expected broadcast tagged with active team, got %s", ev.ActiveTeam)
	}
}
