package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timekeeper/internal/models"
)

const channel = "200000000000000001"

func future() int64 { return msFromNow(time.Hour) }

func TestImport_RejectsNonArray(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	for _, payload := range []string{`{"type":"alarm"}`, `not json`, `null`, ``} {
		_, err := s.imports.Import(ctx, alice, []byte(payload))
		assert.ErrorIs(t, err, ErrImportFormat, payload)
	}
}

func TestImport_RejectsEmptyArray(t *testing.T) {
	s := newServices(t)

	_, err := s.imports.Import(context.Background(), alice, []byte(`[]`))
	assert.ErrorIs(t, err, ErrImportEmpty)
}

func TestImport_QuotaExceededWritesNothing(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	records := make([]string, 12)
	for i := range records {
		records[i] = fmt.Sprintf(`{"userId":%q,"type":"alarm","endTime":%d}`, alice, future())
	}
	_, err := s.imports.Import(ctx, alice, []byte("["+strings.Join(records, ",")+"]"))

	var qe *models.QuotaError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, 10, qe.Remaining)
	assert.Equal(t, 12, qe.Requested)

	all, err := s.events.ListEvents(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImport_SkipsLongTitleKeepsSibling(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	payload := fmt.Sprintf(`[
		{"userId":%q,"type":"reminder","title":%q,"endTime":%d},
		{"userId":%q,"type":"reminder","title":"ok","endTime":%d}
	]`, alice, strings.Repeat("x", 101), future(), alice, future())

	res, err := s.imports.Import(ctx, alice, []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Accepted: 1, Total: 2}, res)
	assert.Equal(t, 1, s.metrics.Accepted)
	assert.Equal(t, 1, s.metrics.Skipped)
}

func TestImport_TitleLengthCountsRunes(t *testing.T) {
	s := newServices(t)

	payload := fmt.Sprintf(`[{"userId":%q,"type":"reminder","title":%q,"endTime":%d}]`,
		alice, strings.Repeat("é", 100), future())

	res, err := s.imports.Import(context.Background(), alice, []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Accepted)
}

func TestImport_RecordRules(t *testing.T) {
	end := future()
	cases := []struct {
		name   string
		record string
		ok     bool
	}{
		{"alarm by user", fmt.Sprintf(`{"userId":%q,"type":"alarm","endTime":%d}`, alice, end), true},
		{"alarm by channel", fmt.Sprintf(`{"channelId":%q,"type":"alarm","endTime":%d}`, channel, end), true},
		{"numeric ids", fmt.Sprintf(`{"channelId":%s,"type":"alarm","endTime":%d}`, channel, end), true},
		{"string end time", fmt.Sprintf(`{"userId":%q,"type":"alarm","endTime":"%d"}`, alice, end), true},
		{"no owner", fmt.Sprintf(`{"type":"alarm","endTime":%d}`, end), false},
		{"null owners", fmt.Sprintf(`{"userId":null,"channelId":null,"type":"alarm","endTime":%d}`, end), false},
		{"short id", fmt.Sprintf(`{"userId":"12345","type":"alarm","endTime":%d}`, end), false},
		{"long id", fmt.Sprintf(`{"userId":"%s","type":"alarm","endTime":%d}`, strings.Repeat("1", 26), end), false},
		{"bad channel beside good user", fmt.Sprintf(`{"userId":%q,"channelId":"abc","type":"alarm","endTime":%d}`, alice, end), false},
		{"past end time", fmt.Sprintf(`{"userId":%q,"type":"alarm","endTime":%d}`, alice, msFromNow(-time.Second)), false},
		{"end time now", fmt.Sprintf(`{"userId":%q,"type":"alarm","endTime":%d}`, alice, testNow.UnixMilli()), false},
		{"missing end time", fmt.Sprintf(`{"userId":%q,"type":"alarm"}`, alice), false},
		{"text end time", fmt.Sprintf(`{"userId":%q,"type":"alarm","endTime":"soon"}`, alice), false},
		{"fractional end time", fmt.Sprintf(`{"userId":%q,"type":"alarm","endTime":%d.5}`, alice, end), false},
		{"unknown type", fmt.Sprintf(`{"userId":%q,"type":"meeting","endTime":%d}`, alice, end), false},
		{"missing type", fmt.Sprintf(`{"userId":%q,"endTime":%d}`, alice, end), false},
		{"timer with label", fmt.Sprintf(`{"userId":%q,"type":"timer","timeString":"10m","endTime":%d}`, alice, end), true},
		{"timer without label", fmt.Sprintf(`{"userId":%q,"type":"timer","endTime":%d}`, alice, end), false},
		{"reminder without title", fmt.Sprintf(`{"userId":%q,"type":"reminder","endTime":%d}`, alice, end), false},
		{"reminder numeric title", fmt.Sprintf(`{"userId":%q,"type":"reminder","title":5,"endTime":%d}`, alice, end), false},
		{"reminder long desc", fmt.Sprintf(`{"userId":%q,"type":"reminder","title":"t","desc":%q,"endTime":%d}`, alice, strings.Repeat("d", 751), end), false},
		{"reminder numeric desc", fmt.Sprintf(`{"userId":%q,"type":"reminder","title":"t","desc":7,"endTime":%d}`, alice, end), false},
		{"reminder max desc", fmt.Sprintf(`{"userId":%q,"type":"reminder","title":"t","desc":%q,"endTime":%d}`, alice, strings.Repeat("d", 750), end), true},
		{"not an object", `"alarm"`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newServices(t)
			res, err := s.imports.Import(context.Background(), alice, []byte("["+tc.record+"]"))
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, 1, res.Accepted)
			} else {
				assert.ErrorIs(t, err, ErrImportNoneValid)
				assert.Equal(t, ImportResult{Accepted: 0, Total: 1}, res)
			}
		})
	}
}

func TestImport_ReassignsOwnerAndDropsIrrelevantFields(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	payload := fmt.Sprintf(`[{
		"id":"forged","userId":%q,"channelId":%q,"type":"alarm","endTime":%d,
		"title":"ignored","desc":"ignored","timeString":"ignored","ping":"role"
	}]`, bob, channel, future())

	_, err := s.imports.Import(ctx, alice, []byte(payload))
	require.NoError(t, err)

	events, err := s.events.ListEvents(ctx, alice)
	require.NoError(t, err)
	require.Len(t, events, 1)
	ev := events[0]
	assert.NotEqual(t, "forged", ev.ID)
	assert.Len(t, ev.ID, 26)
	assert.Equal(t, alice, ev.UserID)
	assert.Equal(t, channel, ev.ChannelID)
	assert.Equal(t, "role", ev.Ping)
	assert.Empty(t, ev.Title)
	assert.Empty(t, ev.Desc)
	assert.Empty(t, ev.TimeString)

	others, _ := s.events.ListEvents(ctx, bob)
	assert.Empty(t, others)
}

func TestImport_KeepsLargeEndTimeExact(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	const end int64 = 9007199254740993
	payload := fmt.Sprintf(`[{"userId":%q,"type":"alarm","endTime":%d}]`, alice, end)
	_, err := s.imports.Import(ctx, alice, []byte(payload))
	require.NoError(t, err)

	events, err := s.events.ListEvents(ctx, alice)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, end, events[0].EndTime)
}

func TestImport_ExportRoundTrip(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	for _, ev := range []models.Event{
		{ID: "t", UserID: alice, ChannelID: channel, Type: models.EventTimer, TimeString: "25m", EndTime: msFromNow(25 * time.Minute)},
		{ID: "r", UserID: alice, Type: models.EventReminder, Title: "dentist", Desc: "bring card", Ping: "999999999999999999", EndTime: msFromNow(48 * time.Hour)},
		{ID: "a", UserID: alice, Type: models.EventAlarm, EndTime: msFromNow(3 * time.Hour)},
	} {
		require.NoError(t, s.events.InsertEvent(ctx, ev))
	}

	file, err := s.exports.ExportUser(ctx, alice, FormatJSON)
	require.NoError(t, err)

	before, err := s.events.ListEvents(ctx, alice)
	require.NoError(t, err)
	for _, ev := range before {
		_, err := s.events.DeleteEvent(ctx, ev.ID)
		require.NoError(t, err)
	}

	res, err := s.imports.Import(ctx, alice, file.Data)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Accepted: 3, Total: 3}, res)

	after, err := s.events.ListEvents(ctx, alice)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		want, got := before[i], after[i]
		want.ID, got.ID = "", ""
		assert.Equal(t, want, got)
	}
}
