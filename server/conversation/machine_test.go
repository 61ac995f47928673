package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hrygo/remindme/internal/errors"
	"github.com/hrygo/remindme/plugin/notification"
	"github.com/hrygo/remindme/store"
)

type fakeInterpreter struct {
	mu    sync.Mutex
	n     notification.Notification
	err   error
	texts []string
}

func (f *fakeInterpreter) Interpret(_ context.Context, _ time.Time, text string) (notification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.n, f.err
}

type fakeStore struct {
	mu       sync.Mutex
	created  []*store.FiringRecord
	consumed []int64
	nextID   int64
	err      error
}

func (f *fakeStore) CreateFiringRecords(_ context.Context, records []*store.FiringRecord) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		f.nextID++
		ids = append(ids, f.nextID)
		f.created = append(f.created, r)
	}
	return ids, nil
}

func (f *fakeStore) ConsumeFiringRecords(_ context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.consumed = append(f.consumed, ids...)
	return nil
}

var testNow = time.Date(2023, 1, 26, 14, 40, 0, 0, time.UTC)

func newTestMachine(interp *fakeInterpreter, st *fakeStore) *Machine {
	m := NewMachine(interp, st, time.UTC)
	m.SetClock(func() time.Time { return testNow })
	return m
}

func absoluteTwice() notification.Absolute {
	return notification.Absolute{
		Message: "check mail",
		Instants: []time.Time{
			time.Date(2023, 1, 27, 12, 0, 0, 0, time.UTC),
			time.Date(2023, 1, 27, 15, 0, 0, 0, time.UTC),
		},
	}
}

func TestTransitionTable(t *testing.T) {
	parsed := Parsed{OriginalText: "tomorrow at 12 and 15 check mail", Notification: absoluteTwice()}
	broken := ParsedWithError{OriginalText: "gibberish"}

	tests := []struct {
		name     string
		state    State
		action   Action
		kind     OutcomeKind
		feedback string
		next     State
	}{
		{"idle accept", Idle{}, Accept{}, OutcomeNone, "", Idle{}},
		{"idle repeat", Idle{}, Repeat{}, OutcomeNone, "", Idle{}},
		{"idle cancel", Idle{}, Cancel{}, OutcomeCanceled, FeedbackCanceled, Idle{}},
		{"parsed cancel", parsed, Cancel{}, OutcomeCanceled, FeedbackCanceled, Idle{}},
		{"broken cancel", broken, Cancel{}, OutcomeCanceled, FeedbackCanceled, Idle{}},
		{"broken accept", broken, Accept{}, OutcomeRejected, FeedbackAcceptRejected, broken},
		{"idle unrecognized", Idle{}, Unrecognized{Raw: "x"}, OutcomeNone, "", Idle{}},
		{"parsed unrecognized", parsed, Unrecognized{Raw: "x"}, OutcomeNone, "", parsed},
		{"broken unrecognized", broken, Unrecognized{Raw: "x"}, OutcomeNone, "", broken},
		{"idle delete", Idle{}, Delete{IDs: []int64{1}}, OutcomeDeleted, FeedbackDeleted, Idle{}},
		{"parsed delete", parsed, Delete{IDs: []int64{1}}, OutcomeDeleted, FeedbackDeleted, parsed},
		{"broken delete", broken, Delete{IDs: []int64{1}}, OutcomeDeleted, FeedbackDeleted, broken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &fakeStore{}
			m := newTestMachine(&fakeInterpreter{}, st)

			out, err := m.Transition(context.Background(), 7, tt.state, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, out.Kind)
			assert.Equal(t, tt.feedback, out.Feedback)
			assert.Equal(t, tt.next, out.State)
			assert.Empty(t, st.created)
		})
	}
}

func TestTransitionTextParses(t *testing.T) {
	interp := &fakeInterpreter{n: absoluteTwice()}
	m := newTestMachine(interp, &fakeStore{})

	for _, state := range []State{Idle{}, Parsed{OriginalText: "old"}, ParsedWithError{OriginalText: "old"}} {
		out, err := m.Transition(context.Background(), 7, state, Text{Text: "check mail"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeParsed, out.Kind)
		assert.Empty(t, out.Feedback)
		assert.Equal(t, Parsed{OriginalText: "check mail", Notification: absoluteTwice()}, out.State)
		assert.NoError(t, out.ParseError)
	}
}

func TestTransitionTextInterpretFailure(t *testing.T) {
	interp := &fakeInterpreter{err: apperrors.InterpretFailure("bad json", nil)}
	m := newTestMachine(interp, &fakeStore{})

	out, err := m.Transition(context.Background(), 7, Idle{}, Text{Text: "gibberish"})
	require.NoError(t, err)
	assert.Equal(t, ParsedWithError{OriginalText: "gibberish"}, out.State)
	assert.Error(t, out.ParseError)
	assert.Nil(t, out.Notification)
}

func TestTransitionInterpreterUnavailable(t *testing.T) {
	cause := apperrors.InterpreterUnavailable("timeout", errors.New("deadline"))
	interp := &fakeInterpreter{err: cause}
	m := newTestMachine(interp, &fakeStore{})

	t.Run("text parses with error", func(t *testing.T) {
		out, err := m.Transition(context.Background(), 7, Idle{}, Text{Text: "check mail"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeParsed, out.Kind)
		assert.Equal(t, ParsedWithError{OriginalText: "check mail"}, out.State)
		require.Error(t, out.ParseError)
		assert.True(t, apperrors.IsCode(out.ParseError, apperrors.ErrCodeInterpreterUnavailable))
	})

	t.Run("repeat aborts", func(t *testing.T) {
		_, err := m.Transition(context.Background(), 7, ParsedWithError{OriginalText: "x"}, Repeat{})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInterpreterUnavailable))
	})
}

func TestTransitionRepeatUsesOriginalText(t *testing.T) {
	interp := &fakeInterpreter{n: absoluteTwice()}
	m := newTestMachine(interp, &fakeStore{})

	out, err := m.Transition(context.Background(), 7, ParsedWithError{OriginalText: "first try"}, Repeat{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRepeated, out.Kind)
	assert.Equal(t, FeedbackRepeated, out.Feedback)
	assert.Equal(t, Parsed{OriginalText: "first try", Notification: absoluteTwice()}, out.State)
	assert.Equal(t, []string{"first try"}, interp.texts)

	interp.err = apperrors.InterpretFailure("still bad", nil)
	out, err = m.Transition(context.Background(), 7, out.State, Repeat{})
	require.NoError(t, err)
	assert.Equal(t, FeedbackRepeatFailed, out.Feedback)
	assert.Equal(t, ParsedWithError{OriginalText: "first try"}, out.State)
}

func TestTransitionAcceptStoresRecords(t *testing.T) {
	st := &fakeStore{}
	m := newTestMachine(&fakeInterpreter{}, st)

	out, err := m.Transition(context.Background(), 7, Parsed{OriginalText: "x", Notification: absoluteTwice()}, Accept{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.Equal(t, FeedbackAccepted, out.Feedback)
	assert.Equal(t, Idle{}, out.State)
	assert.Equal(t, []int64{1, 2}, out.IDs)

	require.Len(t, st.created, 2)
	for _, r := range st.created {
		assert.Equal(t, int64(7), r.OwnerID)
		assert.Equal(t, "check mail", r.Text)
		assert.Equal(t, store.FiringKindAbsolute, r.Kind)
	}
}

func TestTransitionAcceptRecurrentWithoutDays(t *testing.T) {
	st := &fakeStore{}
	m := newTestMachine(&fakeInterpreter{}, st)

	n := notification.Recurrent{
		Message:    "stretch",
		TimesOfDay: []notification.TimeOfDay{{Hour: 9, Minute: 0}},
	}
	out, err := m.Transition(context.Background(), 7, Parsed{OriginalText: "x", Notification: n}, Accept{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.Equal(t, Idle{}, out.State)
	assert.Empty(t, out.IDs)
	assert.Empty(t, st.created)
}

func TestTransitionStoreFailureKeepsState(t *testing.T) {
	st := &fakeStore{err: errors.New("disk full")}
	m := newTestMachine(&fakeInterpreter{}, st)

	_, err := m.Transition(context.Background(), 7, Parsed{OriginalText: "x", Notification: absoluteTwice()}, Accept{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStoreUnavailable))

	_, err = m.Transition(context.Background(), 7, Idle{}, Delete{IDs: []int64{3}})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStoreUnavailable))
}

func TestTransitionInvalidRecordIsNotRetryable(t *testing.T) {
	st := &fakeStore{err: apperrors.InvalidArgument("firing record violates the kind invariant")}
	m := newTestMachine(&fakeInterpreter{}, st)

	_, err := m.Transition(context.Background(), 7, Parsed{OriginalText: "x", Notification: absoluteTwice()}, Accept{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))
	assert.False(t, apperrors.IsRetryable(err))
}

func TestTransitionNilStateIsIdle(t *testing.T) {
	m := newTestMachine(&fakeInterpreter{}, &fakeStore{})

	out, err := m.Transition(context.Background(), 7, nil, Accept{})
	require.NoError(t, err)
	assert.Equal(t, Idle{}, out.State)
}
