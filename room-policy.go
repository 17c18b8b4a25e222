package roadrage

import "fmt"

// RoomPolicy decides what happens to a room once its last member leaves.
type RoomPolicy int8

const (
	// PersistRooms keeps empty rooms around so the next join repopulates them.
	PersistRooms RoomPolicy = iota
	// ReapEmptyRooms removes rooms that have stayed empty for a full cleanup
	// period. The public room is never reaped.
	ReapEmptyRooms
)

func (p RoomPolicy) String() string {
	switch p {
	case PersistRooms:
		return "persist"
	case ReapEmptyRooms:
		return "reap"
	default:
		return "unknown"
	}
}

func ParseRoomPolicy(s string) (RoomPolicy, error) {
	switch s {
	case "", "persist":
		return PersistRooms, nil
	case "reap":
		return ReapEmptyRooms, nil
	default:
		return PersistRooms, fmt.Errorf("unknown room policy %q", s)
	}
}
