package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecurringScheduleRoundTripsThroughDriver(t *testing.T) {
	in := RecurringSchedule{{DayOfWeek: 1, StartHour: 8, EndHour: 10, StartDate: "2025-01-06"}}
	value, err := in.Value()
	require.NoError(t, err)

	var out RecurringSchedule
	require.NoError(t, out.Scan([]byte(value.(string))))
	assert.Equal(t, in, out)
}

func TestRecurringScheduleNilIsEmptyArray(t *testing.T) {
	value, err := RecurringSchedule(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", value)

	var out RecurringSchedule
	require.NoError(t, out.Scan(nil))
	assert.Empty(t, out)
}

func TestLessonCommentsScanRejectsUnknownSource(t *testing.T) {
	var c LessonComments
	assert.Error(t, c.Scan(42))
}

func TestLessonDurationDefault(t *testing.T) {
	assert.Equal(t, 60, Lesson{}.DurationMinutes())
	assert.Equal(t, 90, Lesson{Duration: 90}.DurationMinutes())
	assert.False(t, RecurringScheduleSlot{StartHour: 10, EndHour: 8}.Valid())
}
