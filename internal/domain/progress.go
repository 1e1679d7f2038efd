package domain

// RoundState is a judge's local view of the current round.
type RoundState string

const (
	// Judging means at least one broadcast question is still unanswered.
	Judging RoundState = "judging"
	// Waiting means every broadcast question has a recorded answer.
	Waiting RoundState = "waiting"
)

// RoundProgress tracks which of the currently broadcast questions a judge has
// answered. A new broadcast always resets it, putting the judge back into
// Judging regardless of what was answered in the previous round.
type RoundProgress struct {
	questionIDs []string
	answered    map[string]bool
}

func NewRoundProgress(questions []Question) *RoundProgress {
	p := &RoundProgress{}
	p.Reset(questions)
	return p
}

// Reset replaces the tracked question set and clears all answered marks.
func (p *RoundProgress) Reset(questions []Question) {
	p.questionIDs = make([]string, 0, len(questions))
	p.answered = make(map[string]bool, len(questions))
	for _, q := range questions {
		p.questionIDs = append(p.questionIDs, q.ID)
	}
}

// MarkAnswered records an answer for a question and returns the new state.
// Questions outside the current round are ignored.
func (p *RoundProgress) MarkAnswered(questionID string) RoundState {
	for _, id := range p.questionIDs {
		if id == questionID {
			p.answered[questionID] = true
			break
		}
	}
	return p.State()
}

// State is Waiting only when the round has questions and all are answered.
func (p *RoundProgress) State() RoundState {
	if len(p.questionIDs) == 0 {
		return Judging
	}
	for _, id := range p.questionIDs {
		if !p.answered[id] {
			return Judging
		}
	}
	return Waiting
}
