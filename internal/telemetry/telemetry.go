package telemetry

import (
	"time"
)

// Provider returns the most recent telemetry
type Provider interface {
	Get() *Telemetry
}

// Telemetry is the typed view of a readings bag. Fields are nil when the
// corresponding tag was absent or could not be coerced.
type Telemetry struct {
	Timestamp         time.Time `json:"timestamp"`                   // Timestamp of the last applied readings
	SlewAngle         *float64  `json:"slewAngle,omitempty"`         // Slewing angle in degrees
	BoomRadius        *float64  `json:"boomRadius,omitempty"`        // Boom working radius in meters
	HookHeight        *float64  `json:"hookHeight,omitempty"`        // Hook height above ground in meters
	NetLoad           *float64  `json:"netLoad,omitempty"`           // Net load in tonnes
	LoadAttached      *bool     `json:"loadAttached,omitempty"`      // Set when the load tag is reported as a flag
	HoistSpeed        *float64  `json:"hoistSpeed,omitempty"`        // Raw hoist speed, unscaled
	TwinliftConnected *bool     `json:"twinliftConnected,omitempty"` // Twinlift spreader connected
	SpreaderConnected *bool     `json:"spreaderConnected,omitempty"` // Single spreader connected
	ContainerLocked   *bool     `json:"containerLocked,omitempty"`   // Twistlocks closed on a container
	MotorGrabMode     *bool     `json:"motorGrabMode,omitempty"`     // Motor grab operating mode active
	GrabLeverClose    *bool     `json:"grabLeverClose,omitempty"`    // Grab close lever engaged
	GrabLeverOpen     *bool     `json:"grabLeverOpen,omitempty"`     // Grab open lever engaged
}

// Parse maps the recognised tags of the readings onto a typed Telemetry.
// Unknown tags and values that cannot be coerced are skipped.
func Parse(r Readings) *Telemetry {
	var t Telemetry

	t.SlewAngle = floatField(r, TagSlewAngle)
	t.BoomRadius = floatField(r, TagBoomRadius)
	t.HookHeight = floatField(r, TagHookHeight)
	t.HoistSpeed = floatField(r, TagHoistSpeed)

	if v, ok := r[TagNetLoad]; ok {
		if b, isBool := v.(bool); isBool {
			t.LoadAttached = &b
		} else if f, ok := Float(v); ok {
			t.NetLoad = &f
		}
	}

	t.TwinliftConnected = boolField(r, TagTwinliftConnected)
	t.SpreaderConnected = boolField(r, TagSpreaderConnected)
	t.ContainerLocked = boolField(r, TagContainerLocked)
	t.MotorGrabMode = boolField(r, TagMotorGrabMode)
	t.GrabLeverClose = boolField(r, TagMotorGrabLeverClose)
	t.GrabLeverOpen = boolField(r, TagMotorGrabLeverOpen)

	return &t
}

// Merge overwrites the fields of t with the non-nil fields of u
func (t *Telemetry) Merge(u *Telemetry) {
	mergeField(&t.SlewAngle, u.SlewAngle)
	mergeField(&t.BoomRadius, u.BoomRadius)
	mergeField(&t.HookHeight, u.HookHeight)
	mergeField(&t.NetLoad, u.NetLoad)
	mergeField(&t.LoadAttached, u.LoadAttached)
	mergeField(&t.HoistSpeed, u.HoistSpeed)
	mergeField(&t.TwinliftConnected, u.TwinliftConnected)
	mergeField(&t.SpreaderConnected, u.SpreaderConnected)
	mergeField(&t.ContainerLocked, u.ContainerLocked)
	mergeField(&t.MotorGrabMode, u.MotorGrabMode)
	mergeField(&t.GrabLeverClose, u.GrabLeverClose)
	mergeField(&t.GrabLeverOpen, u.GrabLeverOpen)

	if !u.Timestamp.IsZero() {
		t.Timestamp = u.Timestamp
	}
}

func floatField(r Readings, tag string) *float64 {
	v, ok := r[tag]
	if !ok {
		return nil
	}
	if f, ok := Float(v); ok {
		return &f
	}
	return nil
}

func boolField(r Readings, tag string) *bool {
	v, ok := r[tag]
	if !ok {
		return nil
	}
	if b, ok := Bool(v); ok {
		return &b
	}
	return nil
}

func mergeField[T float64 | bool](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
