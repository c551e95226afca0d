package kinematics

// Accessory is the attachment currently hung from the hoist. Exactly one
// variant holds at any time.
type Accessory uint8

const (
	Hook Accessory = iota
	Spreader
	Twinlift
	Grab
)

var accessoryNames = map[Accessory]string{
	Hook:     "hook",
	Spreader: "spreader",
	Twinlift: "twinlift",
	Grab:     "grab",
}

func (a Accessory) String() string {
	if name, ok := accessoryNames[a]; ok {
		return name
	}
	return "unknown"
}

// Classify resolves the independent connection flags into a single accessory
// using the fixed priority Twinlift > Spreader > Grab > Hook.
func Classify(twinlift, spreader, grab bool) Accessory {
	switch {
	case twinlift:
		return Twinlift
	case spreader:
		return Spreader
	case grab:
		return Grab
	default:
		return Hook
	}
}
