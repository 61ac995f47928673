package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryStartsIdle(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, Idle{}, r.Get(42))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryApplyKeepsStateOnError(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	require.NoError(t, r.Apply(ctx, 1, func(State) (State, error) {
		return ParsedWithError{OriginalText: "x"}, nil
	}))
	err := r.Apply(ctx, 1, func(State) (State, error) {
		return Idle{}, errors.New("store down")
	})
	require.Error(t, err)
	assert.Equal(t, ParsedWithError{OriginalText: "x"}, r.Get(1))
}

func TestRegistrySerializesPerChat(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Apply(ctx, 1, func(s State) (State, error) {
				text := ""
				if p, ok := s.(ParsedWithError); ok {
					text = p.OriginalText
				}
				time.Sleep(time.Millisecond)
				return ParsedWithError{OriginalText: text + "x"}, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, ok := r.Get(1).(ParsedWithError)
	require.True(t, ok)
	assert.Len(t, s.OriginalText, workers)
}

func TestRegistryChatsAreIndependent(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = r.Apply(ctx, 1, func(s State) (State, error) {
			close(entered)
			<-release
			return s, nil
		})
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		_ = r.Apply(ctx, 2, func(State) (State, error) { return Idle{}, nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("chat 2 was blocked by chat 1")
	}
	close(release)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryApplyHonoursContext(t *testing.T) {
	r := NewRegistry()

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = r.Apply(context.Background(), 1, func(s State) (State, error) {
			close(entered)
			<-release
			return s, nil
		})
	}()
	<-entered
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := r.Apply(ctx, 1, func(s State) (State, error) { return s, nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
