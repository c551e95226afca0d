// Package history reconstructs ordered telemetry frames from stored samples
// and retrieves them for playback.
package history

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/roman-kulish/crane-telemetry/internal/telemetry"
)

// Sample is a single raw tag reading as returned by the history source
type Sample struct {
	Tag       string    `json:"tag"`       // Tag name
	Value     any       `json:"value"`     // Number or boolean
	Timestamp time.Time `json:"timestamp"` // When the reading was taken
}

// Frame is the set of readings sharing one exact timestamp
type Frame struct {
	Timestamp time.Time          `json:"timestamp"`
	Readings  telemetry.Readings `json:"readings"`
}

// BuildFrames groups samples by exact timestamp into frames ordered by
// ascending timestamp. The result does not depend on the input order: when a
// tag repeats within one timestamp the greatest value wins. Empty input
// yields an empty slice.
func BuildFrames(samples []Sample) []Frame {
	if len(samples) == 0 {
		return []Frame{}
	}

	sorted := slices.Clone(samples)
	slices.SortStableFunc(sorted, compareSamples)

	frames := make([]Frame, 0, len(sorted)/len(telemetry.Tags())+1)

	var current *Frame
	var currentKey int64
	for _, s := range sorted {
		key := s.Timestamp.UnixNano()
		if current == nil || key != currentKey {
			frames = append(frames, Frame{
				Timestamp: time.Unix(0, key).UTC(),
				Readings:  make(telemetry.Readings),
			})
			current = &frames[len(frames)-1]
			currentKey = key
		}
		current.Readings[s.Tag] = s.Value
	}

	return frames
}

func compareSamples(a, b Sample) int {
	if c := cmp.Compare(a.Timestamp.UnixNano(), b.Timestamp.UnixNano()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Tag, b.Tag); c != 0 {
		return c
	}
	return compareValues(a.Value, b.Value)
}

// compareValues imposes a total order on loosely typed values:
// booleans before numbers before anything else.
func compareValues(a, b any) int {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch ra {
	case 0:
		ab, _ := a.(bool)
		bb, _ := b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}

	case 1:
		af, _ := telemetry.Float(a)
		bf, _ := telemetry.Float(b)
		return cmp.Compare(af, bf)

	default:
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func valueRank(v any) int {
	if _, ok := v.(bool); ok {
		return 0
	}
	if _, ok := v.(string); !ok {
		if _, ok := telemetry.Float(v); ok {
			return 1
		}
	}
	return 2
}
