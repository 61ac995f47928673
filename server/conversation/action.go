package conversation

import (
	"strconv"
	"strings"

	apperrors "github.com/hrygo/remindme/internal/errors"
)

// Callback data sent by the inline keyboard buttons.
const (
	CallbackAccept = "accept"
	CallbackRepeat = "repeat"
	CallbackCancel = "cancel"
)

// Action is a closed sum type of user actions.
type Action interface {
	Name() string

	sealedAction()
}

// Text is a new free-text request.
type Text struct {
	Text string
}

// Accept stores the pending notification.
type Accept struct{}

// Repeat re-interprets the pending text.
type Repeat struct{}

// Cancel discards the pending parse.
type Cancel struct{}

// Delete consumes previously stored records.
type Delete struct {
	IDs []int64
}

// Unrecognized is a malformed payload. It is a no-op.
type Unrecognized struct {
	Raw string
}

func (Text) Name() string         { return "text" }
func (Accept) Name() string       { return "accept" }
func (Repeat) Name() string       { return "repeat" }
func (Cancel) Name() string       { return "cancel" }
func (Delete) Name() string       { return "delete" }
func (Unrecognized) Name() string { return "unrecognized" }

func (Text) sealedAction()         {}
func (Accept) sealedAction()       {}
func (Repeat) sealedAction()       {}
func (Cancel) sealedAction()       {}
func (Delete) sealedAction()       {}
func (Unrecognized) sealedAction() {}

// ParseCallback decodes button callback data: accept, repeat, cancel, or a
// comma separated list of ids and id runs ("12,14-16") for Delete. Malformed data yields Unrecognized
// together with an InvalidAction error for logging.
func ParseCallback(data string) (Action, error) {
	switch data {
	case CallbackAccept:
		return Accept{}, nil
	case CallbackRepeat:
		return Repeat{}, nil
	case CallbackCancel:
		return Cancel{}, nil
	}

	if data == "" {
		return Unrecognized{Raw: data}, apperrors.InvalidAction("empty callback data")
	}
	ids := make([]int64, 0)
	for _, part := range strings.Split(data, ",") {
		first, last, err := parseIDRun(part)
		if err != nil || len(ids)+int(last-first) >= maxDeleteIDs {
			return Unrecognized{Raw: data}, apperrors.InvalidAction("malformed callback data").
				WithContext("data", data)
		}
		for id := first; id <= last; id++ {
			ids = append(ids, id)
		}
	}
	return Delete{IDs: ids}, nil
}

// maxDeleteIDs bounds how many ids one callback may expand to.
const maxDeleteIDs = 1000

// parseIDRun parses "12" or the inclusive run "12-20".
func parseIDRun(part string) (int64, int64, error) {
	lo, hi, isRun := strings.Cut(part, "-")
	first, err := strconv.ParseInt(lo, 10, 64)
	if err != nil || first <= 0 {
		return 0, 0, strconv.ErrSyntax
	}
	if !isRun {
		return first, first, nil
	}
	last, err := strconv.ParseInt(hi, 10, 64)
	if err != nil || last < first {
		return 0, 0, strconv.ErrSyntax
	}
	return first, last, nil
}

// CallbackData encodes a button action. Text and Unrecognized have no encoding.
func CallbackData(a Action) string {
	switch v := a.(type) {
	case Accept:
		return CallbackAccept
	case Repeat:
		return CallbackRepeat
	case Cancel:
		return CallbackCancel
	case Delete:
		return encodeIDs(v.IDs)
	default:
		return ""
	}
}

// encodeIDs writes ids comma separated, collapsing ascending consecutive runs
// into "first-last" so the payload fits Telegram's 64 byte callback limit.
func encodeIDs(ids []int64) string {
	var b strings.Builder
	for i := 0; i < len(ids); {
		j := i
		for j+1 < len(ids) && ids[j+1] == ids[j]+1 {
			j++
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(ids[i], 10))
		if j > i {
			b.WriteByte('-')
			b.WriteString(strconv.FormatInt(ids[j], 10))
		}
		i = j + 1
	}
	return b.String()
}
