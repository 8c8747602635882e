package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-application-form/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "form:session:"

type formSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFormSessionRepository stores sessions as JSON strings. Every save resets
// the expiry to ttl; ttl <= 0 stores without expiry.
func NewFormSessionRepository(client *redis.Client, ttl time.Duration) domain.FormSessionRepository {
	return &formSessionRepository{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return keyPrefix + id
}

func (r *formSessionRepository) Create(ctx context.Context, state *domain.FormState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode form session %s: %w", state.ID, err)
	}

	ok, err := r.client.SetNX(ctx, sessionKey(state.ID), data, r.expiry()).Result()
	if err != nil {
		return fmt.Errorf("create form session %s: %w", state.ID, err)
	}
	if !ok {
		return fmt.Errorf("form session %s already exists", state.ID)
	}
	return nil
}

func (r *formSessionRepository) Get(ctx context.Context, id string) (*domain.FormState, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get form session %s: %w", id, err)
	}

	var state domain.FormState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode form session %s: %w", id, err)
	}
	return &state, nil
}

func (r *formSessionRepository) Save(ctx context.Context, state *domain.FormState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode form session %s: %w", state.ID, err)
	}

	// SET XX only overwrites live keys, so an expired session is not revived
	ok, err := r.client.SetXX(ctx, sessionKey(state.ID), data, r.expiry()).Result()
	if err != nil {
		return fmt.Errorf("save form session %s: %w", state.ID, err)
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *formSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete form session %s: %w", id, err)
	}
	return nil
}

func (r *formSessionRepository) expiry() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	return r.ttl
}
