package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"timekeeper/internal/models"
	"timekeeper/internal/providers"
	"timekeeper/internal/services"
	"timekeeper/internal/storage"
	"timekeeper/internal/storage/sqlite"
	"timekeeper/internal/structures"
	"timekeeper/internal/testutil"
)

const (
	alice = "100000000000000001"
	bob   = "100000000000000002"
)

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

// stack is every controller wired over a temp SQLite store.
type stack struct {
	store   storage.Store
	logger  *testutil.MockLogger
	cache   *testutil.MockFlowCache
	events  *EventController
	users   *UserController
	convert *ConvertController
	admin   *AdminController
}

func newStack(t *testing.T) *stack {
	t.Helper()
	st, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "tk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	conf := &structures.Config{
		FlowCache: structures.FlowCacheConfig{Size: 1, TTL: providers.DefaultFlowTTL},
		Quota:     structures.QuotaConfig{FreeEvents: 3, PremiumEvents: 30},
	}
	clock := services.Clock(func() time.Time { return testNow })
	logger := &testutil.MockLogger{}
	cache := testutil.NewMockFlowCache()

	events := services.NewEventService(st, clock)
	users := services.NewUserService(st)
	quota := services.NewQuotaService(conf, events, users)

	return &stack{
		store:   st,
		logger:  logger,
		cache:   cache,
		events:  NewEventController(logger, events, services.NewImportService(events, quota, testutil.NewMockMetrics(), logger, clock), services.NewExportService(events, clock)),
		users:   NewUserController(logger, users),
		convert: NewConvertController(logger, services.NewConvertService(conf, users, cache)),
		admin:   NewAdminController(logger, services.NewStatsService(users, events)),
	}
}

func (s *stack) insert(t *testing.T, ev models.Event) {
	t.Helper()
	require.NoError(t, s.store.InsertEvent(context.Background(), ev))
}

func do(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rr)["error"].(string)
}
