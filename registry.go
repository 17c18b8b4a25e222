package roadrage

import (
	"sync"

	"github.com/google/uuid"
)

// Registry is the directory of every connected player.
type Registry struct {
	mu          sync.RWMutex
	players     map[PlayerID]*Player
	newID       func() PlayerID
	defaultBike string
}

func NewRegistry(defaultBike string, newID func() PlayerID) *Registry {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Registry{
		players:     make(map[PlayerID]*Player),
		newID:       newID,
		defaultBike: defaultBike,
	}
}

// Connect allocates a fresh player and returns its ID. An empty name becomes
// Player_<first five characters of the ID>.
func (reg *Registry) Connect(name string) PlayerID {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var id PlayerID
	for {
		id = reg.newID()
		if _, exists := reg.players[id]; !exists && id != "" {
			break
		}
	}
	if name == "" {
		name = "Player_" + id[:min(5, len(id))]
	}
	reg.players[id] = newPlayer(id, name, reg.defaultBike)
	return id
}

func (reg *Registry) Get(id PlayerID) (*Player, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	p, ok := reg.players[id]
	return p, ok
}

// Remove deletes the record and reports what was removed. It does not touch
// room membership; Coordinator.Disconnect does that first.
func (reg *Registry) Remove(id PlayerID) (*Player, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	p, ok := reg.players[id]
	if ok {
		delete(reg.players, id)
	}
	return p, ok
}

// UpdateFields applies the present fields of u. Unknown IDs are ignored so a
// late update can never bring a disconnected player back.
func (reg *Registry) UpdateFields(id PlayerID, u MotionUpdate) bool {
	p, ok := reg.Get(id)
	if !ok {
		return false
	}
	p.applyMotion(u)
	return true
}

// Directory returns a snapshot of every connected player keyed by ID.
func (reg *Registry) Directory() map[PlayerID]PlayerState {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make(map[PlayerID]PlayerState, len(reg.players))
	for id, p := range reg.players {
		out[id] = p.State()
	}
	return out
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.players)
}

func (reg *Registry) connections() []SocketSessioner {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	conns := make([]SocketSessioner, 0, len(reg.players))
	for _, p := range reg.players {
		p.mu.RLock()
		if p.conn != nil {
			conns = append(conns, p.conn)
		}
		p.mu.RUnlock()
	}
	return conns
}
