package roadrage

import (
	"sync"

	"github.com/chilledoj/roadrage/physics"
)

type PlayerID = string

// Player is the one authoritative record for a connected client. The registry
// and the player's room hold the same pointer, so there is never a second copy
// to keep in sync.
type Player struct {
	ID PlayerID

	mu       sync.RWMutex
	name     string
	room     string
	position physics.Vec3
	rotation physics.Vec3
	speed    float64
	bike     string
	ready    bool
	health   float64

	// race progress, reset when a race starts
	nextCheckpoint int
	obstacle       int

	conn SocketSessioner
}

// PlayerState is the wire view of a player.
type PlayerState struct {
	ID       PlayerID     `json:"id"`
	Name     string       `json:"name"`
	Room     string       `json:"room,omitempty"`
	Position physics.Vec3 `json:"position"`
	Rotation physics.Vec3 `json:"rotation"`
	Speed    float64      `json:"speed"`
	Bike     string       `json:"bike"`
	Ready    bool         `json:"ready"`
	Health   float64      `json:"health"`
}

// MotionUpdate is a partial kinematic update. Nil fields are left alone.
type MotionUpdate struct {
	Position *physics.Vec3 `json:"position,omitempty"`
	Rotation *physics.Vec3 `json:"rotation,omitempty"`
	Speed    *float64      `json:"speed,omitempty"`
}

func newPlayer(id PlayerID, name, bikeType string) *Player {
	bike, spec := physics.LookupBike(bikeType)
	return &Player{
		ID:       id,
		name:     name,
		bike:     bike,
		health:   spec.Durability,
		obstacle: -1,
	}
}

func (p *Player) State() PlayerState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PlayerState{
		ID:       p.ID,
		Name:     p.name,
		Room:     p.room,
		Position: p.position,
		Rotation: p.rotation,
		Speed:    p.speed,
		Bike:     p.bike,
		Ready:    p.ready,
		Health:   p.health,
	}
}

func (p *Player) RoomID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.room
}

func (p *Player) setRoom(roomID string) {
	p.mu.Lock()
	p.room = roomID
	p.mu.Unlock()
}

func (p *Player) applyMotion(u MotionUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u.Position != nil {
		p.position = *u.Position
	}
	if u.Rotation != nil {
		p.rotation = *u.Rotation
	}
	if u.Speed != nil {
		p.speed = *u.Speed
	}
}

func (p *Player) setReady(ready bool) {
	p.mu.Lock()
	p.ready = ready
	p.mu.Unlock()
}

// selectBike swaps the bike and restores full health for it.
func (p *Player) selectBike(bikeType string) (string, float64) {
	bike, spec := physics.LookupBike(bikeType)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bike = bike
	p.health = spec.Durability
	return p.bike, p.health
}

// takeHit resolves a combat action against this player's bike.
func (p *Player) takeHit(kind string) physics.CombatResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := physics.NewBike(p.bike)
	b.Health = p.health
	b.Speed = p.speed
	res := b.HandleCombatAction(kind)
	p.health = b.Health
	p.speed = b.Speed
	return res
}

func (p *Player) resetProgress() {
	p.mu.Lock()
	p.nextCheckpoint = 0
	p.obstacle = -1
	p.mu.Unlock()
}

func (p *Player) setConn(conn SocketSessioner) {
	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()
}

// send delivers to the player's connection, dropping the message if none is attached.
func (p *Player) send(message []byte) {
	p.mu.RLock()
	conn := p.conn
	p.mu.RUnlock()
	if conn == nil {
		return
	}
	conn.Send(message)
}
