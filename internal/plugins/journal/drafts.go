package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kindmind/kindmind/internal/apperror"
)

const draftKeyPrefix = "draft:"

// DraftStore holds in-flight conversations. One draft per account; saving
// overwrites. Drafts expire on their own, which is how abandoned
// conversations disappear.
type DraftStore interface {
	Get(ctx context.Context, accountID string) (*Draft, error)
	Save(ctx context.Context, draft *Draft) error
	Delete(ctx context.Context, accountID string) error
}

type redisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftStore creates a Redis-backed draft store. Each save resets the
// TTL, so only truly abandoned drafts expire.
func NewDraftStore(client *redis.Client, ttl time.Duration) DraftStore {
	return &redisDraftStore{client: client, ttl: ttl}
}

func (s *redisDraftStore) Get(ctx context.Context, accountID string) (*Draft, error) {
	data, err := s.client.Get(ctx, draftKeyPrefix+accountID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperror.NewNotFound("no active conversation")
		}
		return nil, fmt.Errorf("fetching draft: %w", err)
	}

	var draft Draft
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		return nil, fmt.Errorf("decoding draft: %w", err)
	}
	return &draft, nil
}

func (s *redisDraftStore) Save(ctx context.Context, draft *Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKeyPrefix+draft.AccountID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing draft: %w", err)
	}
	return nil
}

func (s *redisDraftStore) Delete(ctx context.Context, accountID string) error {
	if err := s.client.Del(ctx, draftKeyPrefix+accountID).Err(); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}
