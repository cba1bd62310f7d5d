package hasura

import (
	"strings"
	"time"
)

// timestamp decodes both timestamptz values and zone-less timestamp columns,
// which the engine renders without an offset. Zone-less values are UTC.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}

	var firstErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
