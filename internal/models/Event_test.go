package models

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventType(t *testing.T) {
	for _, s := range []string{"timer", "alarm", "reminder"} {
		typ, ok := ParseEventType(s)
		require.True(t, ok, s)
		assert.Equal(t, EventType(s), typ)
	}

	_, ok := ParseEventType("Timer")
	assert.False(t, ok)
	_, ok = ParseEventType("")
	assert.False(t, ok)
}

func TestEvent_Expired(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	ev := Event{EndTime: now.UnixMilli()}

	assert.True(t, ev.Expired(now), "endTime equal to now counts as expired")
	assert.False(t, ev.Expired(now.Add(-time.Millisecond)))
	assert.True(t, ev.Expired(now.Add(time.Millisecond)))
}

func TestEvent_EndAt(t *testing.T) {
	ev := Event{EndTime: 1751646605000}
	assert.Equal(t, time.Date(2025, time.July, 4, 16, 30, 5, 0, time.UTC), ev.EndAt())
}

func TestEvent_Mention(t *testing.T) {
	ev := Event{UserID: "1"}
	assert.Equal(t, "1", ev.Mention())
	ev.Ping = "2"
	assert.Equal(t, "2", ev.Mention())
}

func TestEvent_Normalized(t *testing.T) {
	full := Event{ID: "x", TimeString: "1h", Title: "t", Desc: "d", Ping: "p"}

	timer := full
	timer.Type = EventTimer
	got := timer.Normalized()
	assert.Equal(t, "1h", got.TimeString)
	assert.Empty(t, got.Title)
	assert.Empty(t, got.Desc)

	alarm := full
	alarm.Type = EventAlarm
	got = alarm.Normalized()
	assert.Empty(t, got.TimeString)
	assert.Empty(t, got.Title)
	assert.Equal(t, "p", got.Ping)

	reminder := full
	reminder.Type = EventReminder
	got = reminder.Normalized()
	assert.Empty(t, got.TimeString)
	assert.Equal(t, "t", got.Title)
	assert.Equal(t, "d", got.Desc)

	assert.Equal(t, "1h", full.TimeString, "Normalized must not touch the receiver")
}

func TestEvent_JSONKeepsLargeEndTime(t *testing.T) {
	ev := Event{ID: "x", Type: EventAlarm, EndTime: 1<<53 + 1}

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","type":"alarm","endTime":9007199254740993}`, string(data))

	var back Event
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ev, back)
}
