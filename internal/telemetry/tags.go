package telemetry

// Recognised tag names, as published by the crane PLC gateway
const (
	TagSlewAngle           = "SlewAngle"
	TagBoomRadius          = "BoomRadius"
	TagHookHeight          = "HookHeight"
	TagNetLoad             = "NetLoad"
	TagHoistSpeed          = "HoistSpeed"
	TagTwinliftConnected   = "TwinliftConnected"
	TagSpreaderConnected   = "SpreaderConnected"
	TagContainerLocked     = "ContainerLocked"
	TagMotorGrabMode       = "MotorGrabMode"
	TagMotorGrabLeverClose = "MotorGrabLeverClose"
	TagMotorGrabLeverOpen  = "MotorGrabLeverOpen"
)

var tags = []string{
	TagSlewAngle,
	TagBoomRadius,
	TagHookHeight,
	TagNetLoad,
	TagHoistSpeed,
	TagTwinliftConnected,
	TagSpreaderConnected,
	TagContainerLocked,
	TagMotorGrabMode,
	TagMotorGrabLeverClose,
	TagMotorGrabLeverOpen,
}

// Tags returns the recognised tag names. The returned slice is a copy.
func Tags() []string {
	return append([]string(nil), tags...)
}

// IsKnownTag returns true if the tag is consumed by the normalizer
func IsKnownTag(tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
