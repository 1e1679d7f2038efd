package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/1KHA/daralhikmajudge/internal/domain"
	"github.com/1KHA/daralhikmajudge/internal/infra/memory"
)

// BankRepository caches question-bank JSON in Redis and falls back to a
// loader on cache miss. Banks are stored as: SET judging:bank:{bankID} {json}
type BankRepository struct {
	client *redis.Client
	loader memory.BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewBankRepository(client *redis.Client, loader memory.BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	if bank, ok := r.fromCache(ctx, bankID); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := r.fromCache(ctx, bankID); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.QuestionBank{}, err
		}

		if payload, err := json.Marshal(bank); err == nil {
			_ = r.client.Set(ctx, r.key(bankID), payload, r.ttlWithJitter()).Err()
		}
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

func (r *BankRepository) fromCache(ctx context.Context, bankID string) (domain.QuestionBank, bool) {
	payload, err := r.client.Get(ctx, r.key(bankID)).Bytes()
	if errors.Is(err, redis.Nil) || err != nil {
		return domain.QuestionBank{}, false
	}
	var bank domain.QuestionBank
	if err := json.Unmarshal(payload, &bank); err != nil {
		return domain.QuestionBank{}, false
	}
	return bank, true
}

func (r *BankRepository) key(bankID string) string {
	return "judging:bank:" + bankID
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
