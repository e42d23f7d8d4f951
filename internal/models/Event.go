package models

import (
	"time"
)

type EventType string

const (
	EventTimer    EventType = "timer"
	EventAlarm    EventType = "alarm"
	EventReminder EventType = "reminder"
)

const (
	MaxTitleLength = 100
	MaxDescLength  = 750
)

var eventTypes = [...]EventType{EventTimer, EventAlarm, EventReminder}

func ParseEventType(s string) (EventType, bool) {
	for _, t := range eventTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Event is a scheduled timer, alarm or reminder. EndTime is kept as int64
// milliseconds end to end so large epochs never pass through a float.
type Event struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channelId,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	Type       EventType `json:"type"`
	EndTime    int64     `json:"endTime"`
	TimeString string    `json:"timeString,omitempty"`
	Title      string    `json:"title,omitempty"`
	Desc       string    `json:"desc,omitempty"`
	Ping       string    `json:"ping,omitempty"`
}

func (e *Event) EndAt() time.Time {
	return time.UnixMilli(e.EndTime).UTC()
}

func (e *Event) Expired(now time.Time) bool {
	return e.EndTime <= now.UnixMilli()
}

// Mention returns the delivery mention target, the owner when no override is set.
func (e *Event) Mention() string {
	if e.Ping != "" {
		return e.Ping
	}
	return e.UserID
}

// Normalized returns a copy carrying only the fields its variant allows.
func (e Event) Normalized() Event {
	switch e.Type {
	case EventTimer:
		e.Title, e.Desc = "", ""
	case EventAlarm:
		e.TimeString, e.Title, e.Desc = "", "", ""
	case EventReminder:
		e.TimeString = ""
	}
	return e
}
