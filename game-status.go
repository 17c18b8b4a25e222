package roadrage

import "fmt"

// GameStatus is the race state machine of a room:
// Waiting -> Countdown -> Racing. Finished is declared for clients but nothing
// transitions into it yet.
type GameStatus int8

const (
	Waiting GameStatus = iota
	Countdown
	Racing
	Finished
)

func (s GameStatus) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Countdown:
		return "countdown"
	case Racing:
		return "racing"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

func (s GameStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *GameStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "waiting":
		*s = Waiting
	case "countdown":
		*s = Countdown
	case "racing":
		*s = Racing
	case "finished":
		*s = Finished
	default:
		return fmt.Errorf("unknown game status %q", text)
	}
	return nil
}
