package models

import (
	"bytes"
	"errors"

	json "github.com/goccy/go-json"
)

type User struct {
	ID       string        `json:"id"`
	Timezone string        `json:"timezone,omitempty"`
	Presets  []Preset      `json:"presets"`
	Premium  PremiumStatus `json:"premium"`
}

func (u *User) IsPremium() bool {
	return u != nil && u.Premium.Active()
}

// FindPreset returns the first preset carrying tag.
func (u *User) FindPreset(tag string) (*Preset, bool) {
	if u == nil {
		return nil, false
	}
	for i := range u.Presets {
		if u.Presets[i].Tag == tag {
			p := u.Presets[i]
			return &p, true
		}
	}
	return nil, false
}

// Preset is a saved event template. On the wire it is a flat object: the tag
// sits beside whatever fields were saved with it.
type Preset struct {
	Tag    string
	Fields map[string]any
}

var errPresetTag = errors.New("preset tag must be a non-empty string")

func (p Preset) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+1)
	for k, v := range p.Fields {
		out[k] = v
	}
	out["tag"] = p.Tag
	return json.Marshal(out)
}

func (p *Preset) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	tag, ok := raw["tag"].(string)
	if !ok || tag == "" {
		return errPresetTag
	}
	delete(raw, "tag")
	p.Tag = tag
	p.Fields = raw
	return nil
}
