package conversation

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Registry owns the live state of every chat.
//
// Apply serializes read-modify-write per chat, so two actions for the same
// chat never overwrite each other. Different chats proceed independently.
// Nothing is persisted: a restart starts every chat Idle.
type Registry struct {
	mu    sync.Mutex
	chats map[int64]*chatEntry
}

type chatEntry struct {
	lock  *semaphore.Weighted
	state State
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{chats: make(map[int64]*chatEntry)}
}

func (r *Registry) entry(chatID int64) *chatEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.chats[chatID]
	if !ok {
		e = &chatEntry{lock: semaphore.NewWeighted(1), state: Idle{}}
		r.chats[chatID] = e
	}
	return e
}

// Apply runs fn on the chat's current state and stores the state it returns.
// When fn fails the state is left unchanged. Waiting for the chat honours ctx.
func (r *Registry) Apply(ctx context.Context, chatID int64, fn func(State) (State, error)) error {
	e := r.entry(chatID)
	if err := e.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.lock.Release(1)

	r.mu.Lock()
	current := e.state
	r.mu.Unlock()

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		next = Idle{}
	}

	r.mu.Lock()
	e.state = next
	r.mu.Unlock()
	return nil
}

// Get returns the last committed state of the chat.
func (r *Registry) Get(chatID int64) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.chats[chatID]; ok {
		return e.state
	}
	return Idle{}
}

// Len returns the number of chats seen.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chats)
}
