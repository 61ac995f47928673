package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hrygo/remindme/internal/errors"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data string
		want Action
	}{
		{"accept", Accept{}},
		{"repeat", Repeat{}},
		{"cancel", Cancel{}},
		{"12", Delete{IDs: []int64{12}}},
		{"12,13", Delete{IDs: []int64{12, 13}}},
		{"3,7-9", Delete{IDs: []int64{3, 7, 8, 9}}},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := ParseCallback(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCallbackMalformed(t *testing.T) {
	for _, data := range []string{"", "ACCEPT", "1,,2", "a,b", "-3", "0", "9-3", "1-5000"} {
		t.Run(data, func(t *testing.T) {
			got, err := ParseCallback(data)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidAction))
			assert.Equal(t, Unrecognized{Raw: data}, got)
		})
	}
}

func TestCallbackData(t *testing.T) {
	assert.Equal(t, "accept", CallbackData(Accept{}))
	assert.Equal(t, "repeat", CallbackData(Repeat{}))
	assert.Equal(t, "cancel", CallbackData(Cancel{}))
	assert.Equal(t, "", CallbackData(Text{Text: "hi"}))
	assert.Equal(t, "", CallbackData(Unrecognized{}))
	assert.Equal(t, "5", CallbackData(Delete{IDs: []int64{5}}))
	assert.Equal(t, "1-3,7,9-10", CallbackData(Delete{IDs: []int64{1, 2, 3, 7, 9, 10}}))
}

func TestCallbackDataRoundTrip(t *testing.T) {
	ids := make([]int64, 0, 60)
	for i := int64(1000); i < 1060; i++ {
		ids = append(ids, i)
	}
	data := CallbackData(Delete{IDs: ids})
	assert.LessOrEqual(t, len(data), 64)

	got, err := ParseCallback(data)
	require.NoError(t, err)
	assert.Equal(t, Delete{IDs: ids}, got)
}
