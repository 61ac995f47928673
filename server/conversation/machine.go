package conversation

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/hrygo/remindme/internal/errors"
	"github.com/hrygo/remindme/internal/observability"
	"github.com/hrygo/remindme/plugin/ai/interpreter"
	"github.com/hrygo/remindme/plugin/notification"
	"github.com/hrygo/remindme/store"
)

// Feedback shown to the user after a button press.
const (
	FeedbackAccepted       = "Notification accepted"
	FeedbackAcceptRejected = "Impossible to accept notification with errors"
	FeedbackRepeated       = "Request was repeated"
	FeedbackRepeatFailed   = "Error while parsing command"
	FeedbackCanceled       = "Canceled"
	FeedbackDeleted        = "Notification deleted"
)

// OutcomeKind tells the presenter what happened.
type OutcomeKind string

const (
	OutcomeNone     OutcomeKind = "none"
	OutcomeParsed   OutcomeKind = "parsed"
	OutcomeRepeated OutcomeKind = "repeated"
	OutcomeAccepted OutcomeKind = "accepted"
	OutcomeRejected OutcomeKind = "rejected"
	OutcomeCanceled OutcomeKind = "canceled"
	OutcomeDeleted  OutcomeKind = "deleted"
)

// Outcome is the result of one transition.
type Outcome struct {
	Kind OutcomeKind
	// Feedback is empty when nothing should be shown.
	Feedback string
	State    State
	// IDs are the records created by Accept or consumed by Delete.
	IDs []int64
	// Notification is the parse result of Text and Repeat, or the accepted notification.
	Notification notification.Notification
	// ParseError is the interpret failure of Text and Repeat.
	ParseError error
}

// RecordStore is the part of the record store the machine mutates.
type RecordStore interface {
	CreateFiringRecords(ctx context.Context, records []*store.FiringRecord) ([]int64, error)
	ConsumeFiringRecords(ctx context.Context, ids []int64) error
}

// Machine computes transitions. It holds no per-chat state.
type Machine struct {
	interpreter interpreter.Interpreter
	store       RecordStore
	location    *time.Location
	now         func() time.Time
	logger      *slog.Logger
}

// NewMachine creates a state machine. Expansion uses the civil timezone loc.
func NewMachine(interp interpreter.Interpreter, store RecordStore, loc *time.Location) *Machine {
	if loc == nil {
		loc = time.UTC
	}
	return &Machine{
		interpreter: interp,
		store:       store,
		location:    loc,
		now:         time.Now,
		logger:      slog.Default(),
	}
}

// SetClock overrides the time source.
func (m *Machine) SetClock(now func() time.Time) {
	m.now = now
}

// SetLogger sets a custom logger.
func (m *Machine) SetLogger(logger *slog.Logger) {
	m.logger = logger
}

// Transition applies action to state for chatID. Every pair is defined.
//
// An error means an Accept, Repeat or Delete was aborted because a collaborator
// was unavailable; the caller must keep the current state. Text never aborts:
// any interpreter error becomes ParsedWithError so the user can press Repeat.
func (m *Machine) Transition(ctx context.Context, chatID int64, state State, action Action) (Outcome, error) {
	if state == nil {
		state = Idle{}
	}

	switch a := action.(type) {
	case Text:
		return m.interpret(ctx, a.Text, OutcomeParsed, "", "")

	case Cancel:
		return Outcome{Kind: OutcomeCanceled, Feedback: FeedbackCanceled, State: Idle{}}, nil

	case Delete:
		if err := m.store.ConsumeFiringRecords(ctx, a.IDs); err != nil {
			return Outcome{}, wrapStore(err, "failed to delete records")
		}
		return Outcome{Kind: OutcomeDeleted, Feedback: FeedbackDeleted, State: state, IDs: a.IDs}, nil

	case Accept:
		switch s := state.(type) {
		case Parsed:
			return m.accept(ctx, chatID, s)
		case ParsedWithError:
			return Outcome{Kind: OutcomeRejected, Feedback: FeedbackAcceptRejected, State: s}, nil
		default:
			return Outcome{Kind: OutcomeNone, State: state}, nil
		}

	case Repeat:
		switch s := state.(type) {
		case Parsed:
			return m.interpret(ctx, s.OriginalText, OutcomeRepeated, FeedbackRepeated, FeedbackRepeatFailed)
		case ParsedWithError:
			return m.interpret(ctx, s.OriginalText, OutcomeRepeated, FeedbackRepeated, FeedbackRepeatFailed)
		default:
			return Outcome{Kind: OutcomeNone, State: state}, nil
		}

	default:
		// Unrecognized and anything else.
		return Outcome{Kind: OutcomeNone, State: state}, nil
	}
}

func (m *Machine) interpret(ctx context.Context, text string, kind OutcomeKind, okFeedback, errFeedback string) (Outcome, error) {
	n, err := m.interpreter.Interpret(ctx, m.now(), text)
	if err != nil {
		if !apperrors.IsCode(err, apperrors.ErrCodeInterpretFailure) {
			if kind == OutcomeRepeated {
				return Outcome{}, err
			}
			observability.LoggerFrom(ctx, m.logger).Warn("interpreter unavailable", "error", err)
		}
		return Outcome{
			Kind:       kind,
			Feedback:   errFeedback,
			State:      ParsedWithError{OriginalText: text},
			ParseError: err,
		}, nil
	}
	return Outcome{
		Kind:         kind,
		Feedback:     okFeedback,
		State:        Parsed{OriginalText: text, Notification: n},
		Notification: n,
	}, nil
}

func (m *Machine) accept(ctx context.Context, chatID int64, s Parsed) (Outcome, error) {
	report := notification.ExpandWithReport(s.Notification, m.now(), m.location)
	if report.DroppedPairs > 0 {
		observability.LoggerFrom(ctx, m.logger).Warn("dropped invalid times of day",
			"chat_id", chatID,
			"dropped", report.DroppedPairs,
			"kept", len(report.Firings),
		)
	}

	records := notification.Records(chatID, s.Notification.Text(), report.Firings)
	ids, err := m.store.CreateFiringRecords(ctx, records)
	if err != nil {
		return Outcome{}, wrapStore(err, "failed to store records")
	}

	return Outcome{
		Kind:         OutcomeAccepted,
		Feedback:     FeedbackAccepted,
		State:        Idle{},
		IDs:          ids,
		Notification: s.Notification,
	}, nil
}

// wrapStore marks store errors unavailable unless the store already classified them.
func wrapStore(err error, msg string) error {
	if apperrors.IsCode(err, apperrors.ErrCodeStoreUnavailable) || apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument) {
		return err
	}
	return apperrors.StoreUnavailable(msg, err)
}
