package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	json "github.com/goccy/go-json"

	"timekeeper/internal/models"
)

const (
	FormatJSON     = "json"
	FormatCalendar = "ics"

	untitledEvent = "Untitled Event"
	noDescription = "No description provided."
	productID     = "-//timekeeper//events//EN"
)

var (
	ErrMalformedInterval = errors.New("export: malformed event interval")
	ErrNoUpcomingEvents  = models.NewStateError("you don't have any upcoming events available for export")
	ErrUnknownFormat     = models.NewValidationError("format must be json or ics")
)

// ExportRecord is the structured export shape. It is also what Import reads
// back, so field names and order must stay stable.
type ExportRecord struct {
	ChannelID  *string          `json:"channelId"`
	UserID     *string          `json:"userId"`
	Title      string           `json:"title,omitempty"`
	Desc       string           `json:"desc,omitempty"`
	EndTime    int64            `json:"endTime"`
	TimeString string           `json:"timeString,omitempty"`
	Ping       *string          `json:"ping"`
	Type       models.EventType `json:"type"`
}

// ExportFile is an encoded payload ready for download.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type ExportServiceInterface interface {
	EncodeJSON(events []models.Event) ([]byte, error)
	EncodeCalendar(events []models.Event) ([]byte, error)
	EncodeEvent(ev models.Event) ([]byte, error)
	ExportUser(ctx context.Context, userID, format string) (*ExportFile, error)
	ExportEvent(ctx context.Context, id string) (*ExportFile, error)
}

type ExportService struct {
	events EventServiceInterface
	clock  Clock
}

func NewExportService(events EventServiceInterface, clock Clock) ExportServiceInterface {
	return &ExportService{events: events, clock: clock}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toRecord(ev models.Event) ExportRecord {
	ev = ev.Normalized()
	return ExportRecord{
		ChannelID:  optional(ev.ChannelID),
		UserID:     optional(ev.UserID),
		Title:      ev.Title,
		Desc:       ev.Desc,
		EndTime:    ev.EndTime,
		TimeString: ev.TimeString,
		Ping:       optional(ev.Ping),
		Type:       ev.Type,
	}
}

func (es *ExportService) EncodeJSON(events []models.Event) ([]byte, error) {
	records := make([]ExportRecord, 0, len(events))
	for _, ev := range events {
		records = append(records, toRecord(ev))
	}
	return json.MarshalIndent(records, "", "  ")
}

func (es *ExportService) EncodeCalendar(events []models.Event) ([]byte, error) {
	if len(events) == 0 {
		return nil, ErrMalformedInterval
	}
	if len(events) == 1 {
		return es.EncodeEvent(events[0])
	}

	cal := newCalendar()
	stamp := es.clock().UTC()
	for _, ev := range events {
		if err := addVEvent(cal, ev, stamp); err != nil {
			return nil, err
		}
	}
	return []byte(cal.Serialize()), nil
}

func (es *ExportService) EncodeEvent(ev models.Event) ([]byte, error) {
	cal := newCalendar()
	if err := addVEvent(cal, ev, es.clock().UTC()); err != nil {
		return nil, err
	}
	return []byte(cal.Serialize()), nil
}

func newCalendar() *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	return cal
}

// addVEvent appends ev as a single-instant VEVENT. Start equals end since
// events carry no distinct start.
func addVEvent(cal *ics.Calendar, ev models.Event, stamp time.Time) error {
	if ev.EndTime <= 0 {
		return fmt.Errorf("%w: end time %d", ErrMalformedInterval, ev.EndTime)
	}
	end := ev.EndAt()
	start := end

	title := ev.Title
	if title == "" {
		title = untitledEvent
	}
	desc := ev.Desc
	if desc == "" {
		desc = noDescription
	}

	uid := ev.ID
	if uid == "" {
		uid = NewEventID()
	}

	vevent := cal.AddEvent(uid + "@timekeeper")
	vevent.SetCreatedTime(stamp)
	vevent.SetDtStampTime(stamp)
	vevent.SetModifiedAt(stamp)
	vevent.SetStartAt(start)
	vevent.SetEndAt(end)
	vevent.SetSummary(title)
	vevent.SetDescription(desc)
	vevent.SetStatus(ics.ObjectStatusConfirmed)
	return nil
}

// CivilUTC splits a millisecond instant into UTC
// [year, month, day, hour, minute, second], month starting at 1.
func CivilUTC(ms int64) [6]int {
	t := time.UnixMilli(ms).UTC()
	return [6]int{t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second()}
}

func (es *ExportService) ExportUser(ctx context.Context, userID, format string) (*ExportFile, error) {
	if format != FormatJSON && format != FormatCalendar {
		return nil, ErrUnknownFormat
	}
	if userID == "" {
		return nil, ErrNoUpcomingEvents
	}

	events, err := es.events.ListEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNoUpcomingEvents
	}

	if format == FormatJSON {
		data, err := es.EncodeJSON(events)
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return &ExportFile{Name: "events.json", ContentType: "application/json", Data: data}, nil
	}

	data, err := es.EncodeCalendar(events)
	if err != nil {
		return nil, err
	}
	return &ExportFile{Name: "events.ics", ContentType: "text/calendar", Data: data}, nil
}

func (es *ExportService) ExportEvent(ctx context.Context, id string) (*ExportFile, error) {
	ev, err := es.events.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, models.ErrEventNotFound
	}

	data, err := es.EncodeEvent(*ev)
	if err != nil {
		return nil, err
	}
	return &ExportFile{Name: "event.ics", ContentType: "text/calendar", Data: data}, nil
}
