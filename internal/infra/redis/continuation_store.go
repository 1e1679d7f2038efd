package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

// ContinuationStore keeps judge continuation entries (token → judge) so a
// reconnecting client can be matched to its judge row without retyping a
// name. It is a convenience cache only; losing an entry forces a clean
// re-join and never corrupts recorded answers.
type ContinuationStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewContinuationStore(client *redis.Client, ttl time.Duration) *ContinuationStore {
	return &ContinuationStore{client: client, ttl: ttl}
}

func (s *ContinuationStore) Save(ctx context.Context, j domain.Judge) error {
	payload, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(j.Token), payload, s.ttl).Err()
}

func (s *ContinuationStore) Load(ctx context.Context, token string) (domain.Judge, error) {
	payload, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Judge{}, domain.ErrJudgeNotFound
	}
	if err != nil {
		return domain.Judge{}, err
	}
	var j domain.Judge
	if err := json.Unmarshal(payload, &j); err != nil {
		return domain.Judge{}, err
	}
	return j, nil
}

func (s *ContinuationStore) Clear(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

func (s *ContinuationStore) key(token string) string {
	return "judging:judge:" + token
}
