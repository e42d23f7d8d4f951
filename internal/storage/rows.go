package storage

import (
	"bytes"
	"database/sql"

	json "github.com/goccy/go-json"

	"timekeeper/internal/models"
)

// EventColumns is the column order ScanEvent expects.
const EventColumns = `id, channel_id, user_id, type, end_time, time_string, title, description, ping`

// RowScanner is satisfied by *sql.Row, *sql.Rows and pgx rows.
type RowScanner interface {
	Scan(dest ...any) error
}

func ScanEvent(row RowScanner) (models.Event, error) {
	var (
		ev                            models.Event
		typ                           string
		channelID, userID, timeString sql.NullString
		title, desc, ping             sql.NullString
	)
	if err := row.Scan(&ev.ID, &channelID, &userID, &typ, &ev.EndTime, &timeString, &title, &desc, &ping); err != nil {
		return models.Event{}, err
	}
	ev.Type = models.EventType(typ)
	ev.ChannelID = channelID.String
	ev.UserID = userID.String
	ev.TimeString = timeString.String
	ev.Title = title.String
	ev.Desc = desc.String
	ev.Ping = ping.String
	return ev, nil
}

// EventArgs returns ev's values in EventColumns order.
func EventArgs(ev models.Event) []any {
	return []any{
		ev.ID,
		NullString(ev.ChannelID),
		NullString(ev.UserID),
		string(ev.Type),
		ev.EndTime,
		NullString(ev.TimeString),
		NullString(ev.Title),
		NullString(ev.Desc),
		NullString(ev.Ping),
	}
}

func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// PremiumArgs splits a status into its kind and nullable order id columns.
func PremiumArgs(p models.PremiumStatus) (int64, sql.NullString) {
	return int64(p.Kind()), NullString(p.OrderID())
}

func EncodePresetFields(p models.Preset) ([]byte, error) {
	if p.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Fields)
}

func DecodePreset(tag string, data []byte) (models.Preset, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	fields := map[string]any{}
	if err := dec.Decode(&fields); err != nil {
		return models.Preset{}, err
	}
	return models.Preset{Tag: tag, Fields: fields}, nil
}
