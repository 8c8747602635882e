package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go-application-form/internal/domain"
)

type sessionEntry struct {
	data      []byte
	expiresAt time.Time
}

// FormSessionRepository keeps sessions as encoded snapshots so callers never
// share maps or slices with the store.
type FormSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewFormSessionRepository creates an in-memory session store. Sessions expire
// ttl after their last save; ttl <= 0 keeps them until deleted.
func NewFormSessionRepository(ttl time.Duration) *FormSessionRepository {
	return &FormSessionRepository{
		sessions: make(map[string]sessionEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *FormSessionRepository) Create(ctx context.Context, state *domain.FormState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.live(state.ID); ok {
		return fmt.Errorf("form session %s already exists", state.ID)
	}
	return r.put(state)
}

func (r *FormSessionRepository) Get(ctx context.Context, id string) (*domain.FormState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.live(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	var state domain.FormState
	if err := json.Unmarshal(entry.data, &state); err != nil {
		return nil, fmt.Errorf("decode form session %s: %w", id, err)
	}
	return &state, nil
}

func (r *FormSessionRepository) Save(ctx context.Context, state *domain.FormState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.live(state.ID); !ok {
		return domain.ErrSessionNotFound
	}
	return r.put(state)
}

func (r *FormSessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (r *FormSessionRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id := range r.sessions {
		if _, ok := r.live(id); !ok {
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps every interval until ctx is done.
func (r *FormSessionRepository) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

// live returns the entry if it exists and has not expired; expired entries are
// deleted on the way. Callers hold r.mu.
func (r *FormSessionRepository) live(id string) (sessionEntry, bool) {
	entry, ok := r.sessions[id]
	if !ok {
		return sessionEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !r.now().Before(entry.expiresAt) {
		delete(r.sessions, id)
		return sessionEntry{}, false
	}
	return entry, true
}

func (r *FormSessionRepository) put(state *domain.FormState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode form session %s: %w", state.ID, err)
	}
	entry := sessionEntry{data: data}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.sessions[state.ID] = entry
	return nil
}
