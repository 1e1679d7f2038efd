package memory

import (
	"context"
	"testing"
	"time"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

func TestBankRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		BankLoader: NewStaticBankLoader(map[string]domain.QuestionBank{
			"bank-1": sampleBank(),
		}),
	}
	repo := NewBankRepository(loader, time.Minute)

	if _, err := repo.GetBank(context.Background(), "bank-1"); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetBank(context.Background(), "bank-1"); err != nil {
		t.Fatalf("get bank 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

type countingLoader struct {
	BankLoader
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	l.calls++
	return l.BankLoader.LoadBank(ctx, bankID)
}

func sampleBank() domain.QuestionBank {
	return domain.QuestionBank{
		ID:   "bank-1",
		Name: "Demo",
		Questions: []domain.Question{
			{
				ID:     "q1",
				Text:   "Clarity",
				Weight: 10,
				Choices: []domain.Choice{
					{Text: "Good", Weight: 2},
					{Text: "Excellent", Weight: 3},
				},
			},
		},
	}
}
