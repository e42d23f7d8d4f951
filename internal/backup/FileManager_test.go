package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timekeeper/internal/models"
	"timekeeper/internal/storage"
	"timekeeper/internal/storage/sqlite"
	"timekeeper/internal/testutil"
)

const (
	userA = "100000000000000001"
	userB = "100000000000000002"
)

func newStore(t *testing.T) storage.Store {
	t.Helper()
	st, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "tk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seed(t *testing.T, st storage.Store) {
	t.Helper()
	ctx := context.Background()
	future := time.Now().Add(time.Hour).UnixMilli()

	require.NoError(t, st.SetTimezone(ctx, userA, "Europe/Berlin"))
	require.NoError(t, st.SetPremium(ctx, userA, models.GrantedPremium("order-1")))
	require.NoError(t, st.InsertPreset(ctx, userA, models.Preset{Tag: "work", Fields: map[string]any{"title": "focus"}}))
	require.NoError(t, st.SetPremium(ctx, userB, models.AdminOverride()))

	require.NoError(t, st.InsertEvent(ctx, models.Event{ID: "01A", UserID: userA, Type: models.EventAlarm, EndTime: future}))
	require.NoError(t, st.InsertEvent(ctx, models.Event{ID: "01B", ChannelID: userB, Type: models.EventReminder, Title: "sync", EndTime: 9007199254740993}))
}

func TestFileManager_SaveToFile_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "backup.zst")
	st := newStore(t)
	seed(t, st)

	fm := NewFileManager(&testutil.MockCompressor{}, st, &testutil.MockLogger{})
	require.NoError(t, fm.SaveToFile(context.Background(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Len(t, snap.Users, 2)
	assert.Len(t, snap.Events, 2)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileManager_LoadFromFile_FileNotExist(t *testing.T) {
	fm := NewFileManager(&testutil.MockCompressor{}, newStore(t), &testutil.MockLogger{})

	stats, err := fm.LoadFromFile(context.Background(), "/nonexistent/path/file.zst")
	assert.NoError(t, err)
	assert.Equal(t, RestoreStats{}, stats)
}

func TestFileManager_LoadFromFile_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.zst")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0644))

	fm := NewFileManager(&testutil.MockCompressor{}, newStore(t), &testutil.MockLogger{})
	_, err := fm.LoadFromFile(context.Background(), path)
	assert.Error(t, err)
}

func TestFileManager_LoadFromFile_UnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v9.zst")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":9,"users":[],"events":[]}`), 0644))

	fm := NewFileManager(&testutil.MockCompressor{}, newStore(t), &testutil.MockLogger{})
	_, err := fm.LoadFromFile(context.Background(), path)
	assert.ErrorContains(t, err, "unsupported snapshot version")
}

func TestFileManager_CompressError(t *testing.T) {
	comp := &testutil.MockCompressor{
		CompressFn: func(b []byte) ([]byte, error) {
			return nil, errors.New("compress failed")
		},
	}
	fm := NewFileManager(comp, newStore(t), &testutil.MockLogger{})

	err := fm.SaveToFile(context.Background(), filepath.Join(t.TempDir(), "err.zst"))
	assert.ErrorContains(t, err, "compress failed")
}

func TestFileManager_DecompressError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dec.zst")
	require.NoError(t, os.WriteFile(path, []byte("some data"), 0644))

	comp := &testutil.MockCompressor{
		DecompressFn: func(b []byte) ([]byte, error) {
			return nil, errors.New("decompress failed")
		},
	}
	fm := NewFileManager(comp, newStore(t), &testutil.MockLogger{})

	_, err := fm.LoadFromFile(context.Background(), path)
	assert.ErrorContains(t, err, "decompress failed")
}

func TestFileManager_Roundtrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roundtrip.zst")
	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	defer comp.Close()

	src := newStore(t)
	seed(t, src)
	require.NoError(t, NewFileManager(comp, src, &testutil.MockLogger{}).SaveToFile(ctx, path))

	dst := newStore(t)
	stats, err := NewFileManager(comp, dst, &testutil.MockLogger{}).LoadFromFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, RestoreStats{Users: 2, Events: 2}, stats)

	a, err := dst.GetUser(ctx, userA)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "Europe/Berlin", a.Timezone)
	assert.Equal(t, "order-1", a.Premium.OrderID())
	require.Len(t, a.Presets, 1)
	assert.Equal(t, "focus", a.Presets[0].Fields["title"])

	b, err := dst.GetUser(ctx, userB)
	require.NoError(t, err)
	assert.Equal(t, models.PremiumAdminOverride, b.Premium.Kind())

	ev, err := dst.GetEvent(ctx, "01B")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, int64(9007199254740993), ev.EndTime)
}

func TestFileManager_LoadSkipsExisting(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dupes.zst")

	st := newStore(t)
	seed(t, st)
	logger := &testutil.MockLogger{}
	fm := NewFileManager(&testutil.MockCompressor{}, st, logger)
	require.NoError(t, fm.SaveToFile(ctx, path))

	require.NoError(t, st.SetTimezone(ctx, userA, "Asia/Tokyo"))

	stats, err := fm.LoadFromFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, RestoreStats{SkippedUsers: 2, SkippedEvents: 2}, stats)
	assert.Equal(t, 1, logger.Count("warn"))

	a, _ := st.GetUser(ctx, userA)
	assert.Equal(t, "Asia/Tokyo", a.Timezone)
}
