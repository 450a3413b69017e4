package aol

// Policy selects when appended frames are fsynced to disk (§4.6).
type Policy int

const (
	// Always fsyncs after every appended frame.
	Always Policy = iota
	// EverySecond relies on a background task to fsync once per second;
	// writes themselves only reach the OS page cache.
	EverySecond
	// No never explicitly fsyncs.
	No
)

func (p Policy) String() string {
	switch p {
	case Always:
		return "always"
	case EverySecond:
		return "everysec"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// ParsePolicy maps a config/flag string onto a Policy. Unrecognized values
// default to EverySecond, the same default Redis itself ships with.
func ParsePolicy(s string) Policy {
	switch s {
	case "always":
		return Always
	case "no":
		return No
	default:
		return EverySecond
	}
}
