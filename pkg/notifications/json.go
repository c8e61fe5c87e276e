package notifications

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var _ json.Marshaler = &Data{}

// errMarshalFailed indicates a failure to marshal notification data to JSON.
var errMarshalFailed = errors.New("failed to marshal notification data")

// jsonMap is a type alias for a JSON-compatible map.
type jsonMap = map[string]any

// MarshalJSON implements json.Marshaler for Data.
//
// Returns:
//   - []byte: JSON-encoded data.
//   - error: Non-nil if marshaling fails, nil on success.
func (d Data) MarshalJSON() ([]byte, error) {
	entries := make([]jsonMap, len(d.Entries))
	for i, entry := range d.Entries {
		entries[i] = jsonMap{
			"level":   entry.Level,
			"message": entry.Message,
			"data":    entry.Data,
			"time":    entry.Time,
		}
	}

	data := jsonMap{
		"title":    d.Title,
		"host":     d.Host,
		"session":  d.Session,
		"status":   d.Status(),
		"failed":   d.Failed,
		"duration": d.Duration.String(),
		"entries":  entries,
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		logrus.WithError(err).
			WithField("notify", "no").
			Error("Failed to marshal notification data to JSON")

		return nil, fmt.Errorf("%w: %w", errMarshalFailed, err)
	}

	return bytes, nil
}
