package services

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"timekeeper/internal/models"
	"timekeeper/internal/providers"
)

var platformID = regexp.MustCompile(`^\d{15,25}$`)

var (
	ErrImportFormat    = models.NewValidationError("the uploaded file doesn't follow the expected format")
	ErrImportEmpty     = models.NewValidationError("the uploaded file doesn't contain any events")
	ErrImportNoneValid = models.NewValidationError("there were no valid events in the file to import")
)

// ImportResult counts a batch. Total is the number of records in the file.
type ImportResult struct {
	Accepted int `json:"accepted"`
	Total    int `json:"total"`
}

type ImportServiceInterface interface {
	Import(ctx context.Context, userID string, payload []byte) (ImportResult, error)
}

type ImportService struct {
	events  EventServiceInterface
	quota   QuotaServiceInterface
	metrics providers.MetricsProviderInterface
	logger  providers.Logger
	clock   Clock
}

func NewImportService(
	events EventServiceInterface,
	quota QuotaServiceInterface,
	metrics providers.MetricsProviderInterface,
	logger providers.Logger,
	clock Clock,
) ImportServiceInterface {
	return &ImportService{
		events:  events,
		quota:   quota,
		metrics: metrics,
		logger:  logger,
		clock:   clock,
	}
}

// Import validates each record of payload on its own and stores the ones
// that pass, owned by userID. The batch is refused up front when it is
// larger than the user's remaining quota.
func (is *ImportService) Import(ctx context.Context, userID string, payload []byte) (ImportResult, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(payload, &records); err != nil {
		return ImportResult{}, ErrImportFormat
	}
	if records == nil {
		return ImportResult{}, ErrImportFormat
	}
	if len(records) == 0 {
		return ImportResult{}, ErrImportEmpty
	}

	res := ImportResult{Total: len(records)}

	remaining, err := is.quota.RemainingQuota(ctx, userID)
	if err != nil {
		return res, err
	}
	if len(records) > remaining {
		return res, &models.QuotaError{Remaining: remaining, Requested: len(records)}
	}

	now := is.clock().UnixMilli()
	for i, raw := range records {
		ev, ok := decodeCandidate(raw, now)
		if !ok {
			continue
		}
		ev.ID = NewEventID()
		ev.UserID = userID
		if err := is.events.InsertEvent(ctx, ev); err != nil {
			return res, fmt.Errorf("import record %d: %w", i, err)
		}
		res.Accepted++
	}

	is.metrics.AddImported(res.Accepted, res.Total-res.Accepted)
	is.logger.Debugf(providers.TypePost, "import for %s: %d of %d accepted", userID, res.Accepted, res.Total)

	if res.Accepted == 0 {
		return res, ErrImportNoneValid
	}
	return res, nil
}

// decodeCandidate applies the acceptance rules to one raw record and
// returns the event with only the fields its type allows.
func decodeCandidate(raw json.RawMessage, nowMs int64) (models.Event, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var rec map[string]any
	if err := dec.Decode(&rec); err != nil || rec == nil {
		return models.Event{}, false
	}

	channelID, ok := idField(rec, "channelId")
	if !ok {
		return models.Event{}, false
	}
	ownerID, ok := idField(rec, "userId")
	if !ok || (channelID == "" && ownerID == "") {
		return models.Event{}, false
	}

	endTime, ok := millisField(rec["endTime"])
	if !ok || endTime <= nowMs {
		return models.Event{}, false
	}

	typ, _ := rec["type"].(string)
	eventType, ok := models.ParseEventType(typ)
	if !ok {
		return models.Event{}, false
	}

	ev := models.Event{
		ChannelID: channelID,
		Type:      eventType,
		EndTime:   endTime,
	}
	if ping, ok := rec["ping"].(string); ok {
		ev.Ping = ping
	}

	switch eventType {
	case models.EventTimer:
		ts, ok := rec["timeString"].(string)
		if !ok || ts == "" {
			return models.Event{}, false
		}
		ev.TimeString = ts
	case models.EventAlarm:
	case models.EventReminder:
		title, ok := rec["title"].(string)
		if !ok || title == "" || utf8.RuneCountInString(title) > models.MaxTitleLength {
			return models.Event{}, false
		}
		ev.Title = title
		if d, present := rec["desc"]; present && d != nil {
			desc, ok := d.(string)
			if !ok || utf8.RuneCountInString(desc) > models.MaxDescLength {
				return models.Event{}, false
			}
			ev.Desc = desc
		}
	}
	return ev.Normalized(), true
}

// idField reads an optional platform id. Absent, null and empty values are
// treated as not set; anything else must have the platform id shape.
func idField(rec map[string]any, name string) (string, bool) {
	var s string
	switch v := rec[name].(type) {
	case nil:
		return "", true
	case string:
		s = v
	case json.Number:
		s = v.String()
	default:
		return "", false
	}
	if s == "" {
		return "", true
	}
	return s, platformID.MatchString(s)
}

// millisField accepts a JSON number or a numeric string holding an integral
// millisecond count.
func millisField(v any) (int64, bool) {
	var s string
	switch n := v.(type) {
	case json.Number:
		s = n.String()
	case string:
		s = n
	default:
		return 0, false
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}
