package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"timekeeper/internal/storage"
	"timekeeper/internal/storage/sqlite"
	"timekeeper/internal/structures"
	"timekeeper/internal/testutil"
)

// testNow is a fixed instant all service tests measure expiry against.
var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() Clock {
	return func() time.Time { return testNow }
}

func msFromNow(d time.Duration) int64 {
	return testNow.Add(d).UnixMilli()
}

func testConfig() *structures.Config {
	return &structures.Config{
		FlowCache: structures.FlowCacheConfig{Size: 1, TTL: 5 * time.Minute},
		Quota:     structures.QuotaConfig{FreeEvents: 10, PremiumEvents: 100},
	}
}

func newStore(t *testing.T) storage.Store {
	t.Helper()
	st, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "tk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

type serviceSet struct {
	store   storage.Store
	events  EventServiceInterface
	users   UserServiceInterface
	quota   QuotaServiceInterface
	imports ImportServiceInterface
	exports ExportServiceInterface
	metrics *testutil.MockMetrics
}

func newServices(t *testing.T) *serviceSet {
	t.Helper()
	st := newStore(t)
	clock := fixedClock()
	events := NewEventService(st, clock)
	users := NewUserService(st)
	quota := NewQuotaService(testConfig(), events, users)
	metrics := testutil.NewMockMetrics()
	return &serviceSet{
		store:   st,
		events:  events,
		users:   users,
		quota:   quota,
		imports: NewImportService(events, quota, metrics, &testutil.MockLogger{}, clock),
		exports: NewExportService(events, clock),
		metrics: metrics,
	}
}
