package services

import (
	"context"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"timekeeper/internal/models"
	"timekeeper/internal/providers"
	"timekeeper/internal/structures"
)

const (
	dateLayout = "01-02-2006"
	timeLayout = "15:04"
)

// Converted is a date/time pair re-anchored in the user's zone.
type Converted struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type flowState struct {
	TZ string `json:"tz"`
}

type ConvertServiceInterface interface {
	// Start records sourceZone under a fresh flow key for the follow-up step.
	Start(ctx context.Context, userID, sourceZone string) (string, error)
	// Submit converts date and clock from the flow's source zone into the
	// user's zone. The flow key is consumed on success.
	Submit(ctx context.Context, userID, flowKey, date, clock string) (Converted, error)
}

type ConvertService struct {
	users UserServiceInterface
	cache providers.FlowCacheInterface
	ttl   time.Duration
}

func NewConvertService(conf *structures.Config, users UserServiceInterface, cache providers.FlowCacheInterface) ConvertServiceInterface {
	ttl := conf.FlowCache.TTL
	if ttl <= 0 {
		ttl = providers.DefaultFlowTTL
	}
	return &ConvertService{users: users, cache: cache, ttl: ttl}
}

func (cs *ConvertService) userZone(ctx context.Context, userID string) (*time.Location, error) {
	user, err := cs.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Timezone == "" {
		return nil, models.ErrNoTimezone
	}
	loc, err := LoadZone(user.Timezone)
	if err != nil {
		return nil, models.ErrNoTimezone
	}
	return loc, nil
}

func (cs *ConvertService) Start(ctx context.Context, userID, sourceZone string) (string, error) {
	if _, err := cs.userZone(ctx, userID); err != nil {
		return "", err
	}
	if _, err := LoadZone(sourceZone); err != nil {
		return "", err
	}

	payload, err := json.Marshal(flowState{TZ: sourceZone})
	if err != nil {
		return "", err
	}
	key := uuid.NewString()
	if err := cs.cache.Set(key, payload, cs.ttl); err != nil {
		return "", err
	}
	return key, nil
}

func (cs *ConvertService) Submit(ctx context.Context, userID, flowKey, date, clock string) (Converted, error) {
	if flowKey == "" || !cs.cache.Is(flowKey) {
		return Converted{}, models.ErrFlowExpired
	}
	target, err := cs.userZone(ctx, userID)
	if err != nil {
		return Converted{}, err
	}

	raw, ok := cs.cache.Get(flowKey)
	if !ok {
		return Converted{}, models.ErrFlowExpired
	}
	var st flowState
	if err := json.Unmarshal(raw, &st); err != nil {
		return Converted{}, models.ErrFlowExpired
	}
	source, err := LoadZone(st.TZ)
	if err != nil {
		return Converted{}, models.ErrFlowExpired
	}

	instant, err := ParseCivil(date, clock, source)
	if err != nil {
		return Converted{}, err
	}

	// First reader to clear the key wins.
	if !cs.cache.Clear(flowKey) {
		return Converted{}, models.ErrFlowExpired
	}

	local := instant.In(target)
	return Converted{Date: local.Format(dateLayout), Time: local.Format(timeLayout)}, nil
}

// ParseCivil reads MM-DD-YYYY and HH:MM (24-hour) as wall time in loc.
// Dates that do not exist on the calendar, like 02-30, are rejected.
func ParseCivil(date, clock string, loc *time.Location) (time.Time, error) {
	d := strings.Split(strings.TrimSpace(date), "-")
	c := strings.Split(strings.TrimSpace(clock), ":")
	if len(d) != 3 || len(c) != 2 {
		return time.Time{}, models.ErrInvalidDateTime
	}

	month, ok1 := digits(d[0], 1, 2)
	day, ok2 := digits(d[1], 1, 2)
	year, ok3 := digits(d[2], 4, 4)
	hour, ok4 := digits(c[0], 1, 2)
	minute, ok5 := digits(c[1], 2, 2)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return time.Time{}, models.ErrInvalidDateTime
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, models.ErrInvalidDateTime
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	// time.Date normalizes overflow, so a changed day means it never existed.
	// Hour is not checked: wall times inside a DST gap resolve forward.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, models.ErrInvalidDateTime
	}
	return t, nil
}

func digits(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
