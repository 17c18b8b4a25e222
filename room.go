package roadrage

import (
	"container/list"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

const PublicRoomID = "public"

// GameState is the per-room race state.
type GameState struct {
	Status    GameStatus
	Track     string
	Countdown time.Duration
}

func (gs GameState) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status    GameStatus `json:"status"`
		Track     string     `json:"track"`
		Countdown float64    `json:"countdown"`
	}{gs.Status, gs.Track, gs.Countdown.Seconds()})
}

func (gs *GameState) UnmarshalJSON(b []byte) error {
	var raw struct {
		Status    GameStatus `json:"status"`
		Track     string     `json:"track"`
		Countdown float64    `json:"countdown"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	gs.Status = raw.Status
	gs.Track = raw.Track
	gs.Countdown = time.Duration(raw.Countdown * float64(time.Second))
	return nil
}

// Room is a named group of players sharing one race. Every mutation of its
// membership or game state, and every broadcast that follows one, happens
// under mu. That is what keeps broadcasts in mutation order.
//
// Methods ending in "Locked" expect the caller to hold mu.
type Room struct {
	ID   string
	Name string

	mu      sync.Mutex
	order   *list.List // of *Player, arrival order
	members map[PlayerID]*list.Element
	state   GameState

	// seats held by joins that are still leaving their old room
	reserved int

	cancelCountdown CancelFunc
	emptySince      time.Time
	closed          bool

	Slogger *slog.Logger
}

// RoomSummary is the listing view of a room.
type RoomSummary struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Players int        `json:"players"`
	Status  GameStatus `json:"status"`
}

// RoomSnapshot is the full view of a room.
type RoomSnapshot struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	HostID    PlayerID      `json:"host_id,omitempty"`
	Players   []PlayerState `json:"players"`
	GameState GameState     `json:"game_state"`
}

func newRoom(id, name string, state GameState, slogger *slog.Logger) *Room {
	if slogger == nil {
		slogger = slog.Default()
	}
	return &Room{
		ID:         id,
		Name:       name,
		order:      list.New(),
		members:    make(map[PlayerID]*list.Element),
		state:      state,
		emptySince: time.Now(),
		Slogger:    slogger.With("room", id),
	}
}

func (room *Room) addLocked(p *Player) bool {
	if _, ok := room.members[p.ID]; ok {
		return false
	}
	room.members[p.ID] = room.order.PushBack(p)
	room.emptySince = time.Time{}
	return true
}

func (room *Room) removeLocked(id PlayerID) bool {
	el, ok := room.members[id]
	if !ok {
		return false
	}
	room.order.Remove(el)
	delete(room.members, id)
	if room.order.Len() == 0 {
		room.emptySince = time.Now()
	}
	return true
}

func (room *Room) hasLocked(id PlayerID) bool {
	_, ok := room.members[id]
	return ok
}

// hostLocked is the earliest-joined member still present.
func (room *Room) hostLocked() (PlayerID, bool) {
	front := room.order.Front()
	if front == nil {
		return "", false
	}
	return front.Value.(*Player).ID, true
}

func (room *Room) isHostLocked(id PlayerID) bool {
	host, ok := room.hostLocked()
	return ok && host == id
}

func (room *Room) membersLocked() []*Player {
	out := make([]*Player, 0, room.order.Len())
	for el := room.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*Player))
	}
	return out
}

func (room *Room) statesLocked() []PlayerState {
	out := make([]PlayerState, 0, room.order.Len())
	for el := room.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*Player).State())
	}
	return out
}

func (room *Room) broadcastLocked(message []byte) {
	for el := room.order.Front(); el != nil; el = el.Next() {
		el.Value.(*Player).send(message)
	}
}

func (room *Room) broadcastExceptLocked(message []byte, except PlayerID) {
	for el := room.order.Front(); el != nil; el = el.Next() {
		p := el.Value.(*Player)
		if p.ID == except {
			continue
		}
		p.send(message)
	}
}

func (room *Room) stopCountdownLocked() {
	if room.cancelCountdown != nil {
		room.cancelCountdown()
		room.cancelCountdown = nil
	}
}

// IsHost reports whether id is the room's earliest-joined member.
func (room *Room) IsHost(id PlayerID) bool {
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.isHostLocked(id)
}

func (room *Room) Host() (PlayerID, bool) {
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.hostLocked()
}

// Members lists member IDs in arrival order.
func (room *Room) Members() []PlayerID {
	room.mu.Lock()
	defer room.mu.Unlock()
	out := make([]PlayerID, 0, room.order.Len())
	for el := room.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*Player).ID)
	}
	return out
}

func (room *Room) Has(id PlayerID) bool {
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.hasLocked(id)
}

func (room *Room) State() GameState {
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.state
}

func (room *Room) Len() int {
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.order.Len()
}

func (room *Room) Summary() RoomSummary {
	room.mu.Lock()
	defer room.mu.Unlock()
	return RoomSummary{
		ID:      room.ID,
		Name:    room.Name,
		Players: room.order.Len(),
		Status:  room.state.Status,
	}
}

func (room *Room) Snapshot() RoomSnapshot {
	room.mu.Lock()
	defer room.mu.Unlock()
	host, _ := room.hostLocked()
	return RoomSnapshot{
		ID:        room.ID,
		Name:      room.Name,
		HostID:    host,
		Players:   room.statesLocked(),
		GameState: room.state,
	}
}
