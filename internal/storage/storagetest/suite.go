// Package storagetest is a conformance suite every storage.Store backend runs.
package storagetest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timekeeper/internal/models"
	"timekeeper/internal/storage"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) storage.Store

const (
	userA = "100000000000000001"
	userB = "100000000000000002"
)

func Run(t *testing.T, open Factory) {
	tests := map[string]func(t *testing.T, s storage.Store){
		"events round trip":       testEventRoundTrip,
		"events duplicate id":     testEventDuplicate,
		"events delete":           testEventDelete,
		"events time filters":     testEventFilters,
		"events large end time":   testLargeEndTime,
		"users missing":           testUserMissing,
		"users timezone upsert":   testTimezone,
		"users premium variants":  testPremium,
		"presets order and dupes": testPresets,
		"presets concurrent tag":  testPresetsConcurrent,
		"users restore":           testRestoreUser,
		"users list":              testListUsers,
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func testEventRoundTrip(t *testing.T, s storage.Store) {
	ctx := context.Background()
	ev := models.Event{
		ID: "e1", ChannelID: "c1", UserID: userA, Type: models.EventReminder,
		EndTime: 1751646605000, Title: "pay rent", Desc: "before noon", Ping: userB,
	}
	require.NoError(t, s.InsertEvent(ctx, ev))

	got, err := s.GetEvent(ctx, "e1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ev, *got)

	got, err = s.GetEvent(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testEventDuplicate(t *testing.T, s storage.Store) {
	ctx := context.Background()
	ev := models.Event{ID: "dup", UserID: userA, Type: models.EventAlarm, EndTime: 1}
	require.NoError(t, s.InsertEvent(ctx, ev))
	assert.ErrorIs(t, s.InsertEvent(ctx, ev), storage.ErrDuplicate)
}

func testEventDelete(t *testing.T, s storage.Store) {
	ctx := context.Background()
	require.NoError(t, s.InsertEvent(ctx, models.Event{ID: "d", Type: models.EventAlarm, EndTime: 1}))

	ok, err := s.DeleteEvent(ctx, "d")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DeleteEvent(ctx, "d")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testEventFilters(t *testing.T, s storage.Store) {
	ctx := context.Background()
	for _, ev := range []models.Event{
		{ID: "a-past", UserID: userA, Type: models.EventAlarm, EndTime: 100},
		{ID: "a-edge", UserID: userA, Type: models.EventAlarm, EndTime: 200},
		{ID: "a-late", UserID: userA, Type: models.EventAlarm, EndTime: 400},
		{ID: "a-soon", UserID: userA, Type: models.EventAlarm, EndTime: 300},
		{ID: "b-late", UserID: userB, Type: models.EventAlarm, EndTime: 500},
	} {
		require.NoError(t, s.InsertEvent(ctx, ev))
	}

	live, err := s.ListUserEventsAfter(ctx, userA, 200)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-soon", "a-late"}, ids(live))

	ended, err := s.ListEventsEndingBy(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-past", "a-edge"}, ids(ended))

	n, err := s.CountUserEventsAfter(ctx, userA, 200)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	all, err := s.ListEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-edge", "a-late", "a-past", "a-soon", "b-late"}, ids(all))
}

func testLargeEndTime(t *testing.T, s storage.Store) {
	ctx := context.Background()
	const end = int64(1)<<53 + 1
	require.NoError(t, s.InsertEvent(ctx, models.Event{ID: "big", Type: models.EventTimer, EndTime: end, TimeString: "forever"}))

	got, err := s.GetEvent(ctx, "big")
	require.NoError(t, err)
	assert.Equal(t, end, got.EndTime)
}

func testUserMissing(t *testing.T, s storage.Store) {
	u, err := s.GetUser(context.Background(), userA)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func testTimezone(t *testing.T, s storage.Store) {
	ctx := context.Background()
	require.NoError(t, s.SetTimezone(ctx, userA, "Europe/Berlin"))
	require.NoError(t, s.SetPremium(ctx, userA, models.GrantedPremium("o-1")))
	require.NoError(t, s.SetTimezone(ctx, userA, "Asia/Tokyo"))

	u, err := s.GetUser(ctx, userA)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Asia/Tokyo", u.Timezone)
	assert.Equal(t, models.GrantedPremium("o-1"), u.Premium, "timezone upsert keeps premium")
	assert.Empty(t, u.Presets)
	assert.NotNil(t, u.Presets)
}

func testPremium(t *testing.T, s storage.Store) {
	ctx := context.Background()
	for _, p := range []models.PremiumStatus{
		models.GrantedPremium("admin_override"),
		models.AdminOverride(),
		models.NoPremium(),
	} {
		require.NoError(t, s.SetPremium(ctx, userA, p))
		u, err := s.GetUser(ctx, userA)
		require.NoError(t, err)
		assert.Equal(t, p, u.Premium)
	}
}

func testPresets(t *testing.T, s storage.Store) {
	ctx := context.Background()
	for _, tag := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, s.InsertPreset(ctx, userA, preset(tag, `{"title":"x","endTime":9007199254740993}`)))
	}
	assert.ErrorIs(t, s.InsertPreset(ctx, userA, preset("alpha", `{}`)), storage.ErrDuplicate)
	require.NoError(t, s.InsertPreset(ctx, userB, preset("alpha", `{}`)), "tags are per user")

	u, err := s.GetUser(ctx, userA)
	require.NoError(t, err)
	require.Len(t, u.Presets, 3)
	assert.Equal(t, "zeta", u.Presets[0].Tag)
	assert.Equal(t, "alpha", u.Presets[1].Tag)
	assert.Equal(t, "mid", u.Presets[2].Tag)
	assert.Equal(t, json.Number("9007199254740993"), u.Presets[0].Fields["endTime"])

	ok, err := s.DeletePreset(ctx, userA, "alpha")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.DeletePreset(ctx, userA, "alpha")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.InsertPreset(ctx, userA, preset("alpha", `{}`)))
	u, err = s.GetUser(ctx, userA)
	require.NoError(t, err)
	assert.Equal(t, "alpha", u.Presets[2].Tag, "re-inserted preset goes last")
}

func testPresetsConcurrent(t *testing.T, s storage.Store) {
	ctx := context.Background()
	const n = 8

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		dups int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.InsertPreset(ctx, userA, preset("race", `{}`))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				oks++
			case errors.Is(err, storage.ErrDuplicate):
				dups++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, oks)
	assert.Equal(t, n-1, dups)
}

func testRestoreUser(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := models.User{
		ID:       userA,
		Timezone: "UTC",
		Premium:  models.AdminOverride(),
		Presets:  []models.Preset{preset("one", `{"title":"1"}`), preset("two", `{}`)},
	}

	ok, err := s.RestoreUser(ctx, user)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.RestoreUser(ctx, models.User{ID: userA, Timezone: "Asia/Tokyo"})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetUser(ctx, userA)
	require.NoError(t, err)
	assert.Equal(t, "UTC", got.Timezone)
	assert.Equal(t, models.AdminOverride(), got.Premium)
	require.Len(t, got.Presets, 2)
	assert.Equal(t, "one", got.Presets[0].Tag)
	assert.Equal(t, "1", got.Presets[0].Fields["title"])
}

func testListUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	require.NoError(t, s.SetTimezone(ctx, userB, "UTC"))
	require.NoError(t, s.InsertPreset(ctx, userA, preset("p", `{}`)))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, userA, users[0].ID)
	assert.Len(t, users[0].Presets, 1)
	assert.Equal(t, userB, users[1].ID)
	assert.NotNil(t, users[1].Presets)
}

func preset(tag, fields string) models.Preset {
	dec := json.NewDecoder(strings.NewReader(fields))
	dec.UseNumber()

	p := models.Preset{Tag: tag, Fields: map[string]any{}}
	if err := dec.Decode(&p.Fields); err != nil {
		panic(err)
	}
	return p
}

func ids(events []models.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}
