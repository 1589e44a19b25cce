package state

import (
	"maps"
	"math"
	"time"

	"omvsetup/constants"
)

// Entry is one persisted configuration record plus its options.
type Entry struct {
	ID        string                 `json:"entry_id"`
	Title     string                 `json:"title"`
	Data      map[string]interface{} `json:"data"`
	Options   map[string]interface{} `json:"options"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`

	// PasswordSealed is set on disk only, when Data holds a Seal token.
	PasswordSealed bool `json:"password_sealed,omitempty"`
}

// DisplayName returns the display name stored in the entry data.
func (e Entry) DisplayName() string {
	name, _ := e.Data[constants.ConfName].(string)
	return name
}

// EffectiveOptions merges the stored options on top of the defaults.
func (e Entry) EffectiveOptions() map[string]interface{} {
	opts := DefaultOptions()
	for k, v := range e.Options {
		opts[k] = v
	}
	return opts
}

// Redacted returns a copy safe to expose outside the process.
func (e Entry) Redacted() Entry {
	c := e.clone()
	if _, ok := c.Data[constants.ConfPassword]; ok {
		c.Data[constants.ConfPassword] = "**REDACTED**"
	}
	return c
}

func (e Entry) clone() Entry {
	c := e
	c.Data = maps.Clone(e.Data)
	c.Options = maps.Clone(e.Options)
	if c.Data == nil {
		c.Data = map[string]interface{}{}
	}
	if c.Options == nil {
		c.Options = map[string]interface{}{}
	}
	return c
}

// DefaultOptions returns a fresh map with the default option values.
func DefaultOptions() map[string]interface{} {
	return map[string]interface{}{
		constants.ConfScanInterval: constants.DefaultScanInterval,
		constants.ConfSmartDisable: constants.DefaultSmartDisable,
	}
}

// normalizeNumbers turns integral JSON numbers back into ints.
func normalizeNumbers(m map[string]interface{}) {
	for k, v := range m {
		if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < math.MaxInt32 {
			m[k] = int(f)
		}
	}
}
