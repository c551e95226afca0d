// Package feed adapts the live telemetry transport: it decodes line-delimited
// JSON messages and fans the readings out to subscribers.
package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roman-kulish/crane-telemetry/internal/telemetry"
)

// ErrMalformedPayload is returned when a message cannot be decoded into readings
var ErrMalformedPayload = errors.New("malformed telemetry payload")

// Decode parses a single message into readings. Messages are either a plain
// tag map or an envelope carrying the tag map in its "data" field.
func Decode(payload []byte) (telemetry.Readings, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty message", ErrMalformedPayload)
	}

	var message map[string]json.RawMessage
	if err := json.Unmarshal(payload, &message); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	if data, ok := message["data"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err == nil && inner != nil {
			message = inner
		}
	}

	readings := make(telemetry.Readings, len(message))
	for tag, raw := range message {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: tag '%s': %w", ErrMalformedPayload, tag, err)
		}

		switch v.(type) {
		case float64, bool:
			readings[tag] = v
		}
	}

	return readings, nil
}
