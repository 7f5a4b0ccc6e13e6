package board

import "fmt"

// Result is the outcome of a single shot.
type Result uint8

const (
	Missed Result = iota
	Hit
	Killed
)

func (r Result) String() string {
	switch r {
	case Missed:
		return "miss"
	case Hit:
		return "hit"
	case Killed:
		return "killed"
	default:
		return fmt.Sprintf("result(%d)", uint8(r))
	}
}

func (r Result) MarshalText() ([]byte, error) {
	switch r {
	case Missed, Hit, Killed:
		return []byte(r.String()), nil
	default:
		return nil, fmt.Errorf("unknown shot result %d", uint8(r))
	}
}

func (r *Result) UnmarshalText(text []byte) error {
	switch string(text) {
	case "miss":
		*r = Missed
	case "hit":
		*r = Hit
	case "killed":
		*r = Killed
	default:
		return fmt.Errorf("unknown shot result %q", text)
	}
	return nil
}
