package roadrage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chilledoj/roadrage/physics"
)

const (
	defaultCountdown     = time.Second * 3
	defaultCleanupPeriod = time.Second * 30
	privateRoomIDLength  = 8
)

var (
	ErrNotHost    = errors.New("only the host can do that")
	ErrNotWaiting = errors.New("game is not waiting for players")
	ErrRoomFull   = errors.New("room is full")
)

type Options struct {
	Countdown         time.Duration
	DefaultTrack      string
	DefaultBike       string
	MaxPlayersPerRoom int

	RoomPolicy    RoomPolicy
	CleanupPeriod time.Duration

	Scheduler   Scheduler
	NewPlayerID func() PlayerID
	NewRoomID   func() string

	Slogger *slog.Logger
}

// Coordinator turns client events into registry and room mutations and the
// broadcasts that follow them. Rooms are independent: the room directory lock
// only guards the map, and all work on a room happens under that room's own
// lock.
type Coordinator struct {
	opts Options

	players *Registry

	roomsMu sync.RWMutex
	rooms   map[string]*Room

	ctx    context.Context
	cancel context.CancelFunc

	Slogger *slog.Logger
}

func NewCoordinator(parentCtx context.Context, options Options) *Coordinator {
	if options.Countdown <= 0 {
		options.Countdown = defaultCountdown
	}
	if options.CleanupPeriod <= 0 {
		options.CleanupPeriod = defaultCleanupPeriod
	}
	if !physics.KnownTrack(options.DefaultTrack) {
		options.DefaultTrack = physics.DefaultTrackID
	}
	if options.DefaultBike == "" {
		options.DefaultBike = physics.DefaultBikeType
	}
	if options.Scheduler == nil {
		options.Scheduler = TimerScheduler{}
	}
	if options.NewRoomID == nil {
		options.NewRoomID = func() string {
			return uuid.NewString()[:privateRoomIDLength]
		}
	}

	ctx, cancel := context.WithCancel(parentCtx)
	c := &Coordinator{
		opts:    options,
		players: NewRegistry(options.DefaultBike, options.NewPlayerID),
		rooms:   make(map[string]*Room),
		ctx:     ctx,
		cancel:  cancel,
	}
	if options.Slogger != nil {
		c.Slogger = options.Slogger
	} else {
		c.Slogger = slog.Default()
	}
	c.rooms[PublicRoomID] = c.newRoom(PublicRoomID, "Public Room")
	return c
}

func (c *Coordinator) Players() *Registry {
	return c.players
}

// Start runs the housekeeping loop until the coordinator is stopped.
func (c *Coordinator) Start() {
	sl := c.Slogger.With("func", "coordinator.Start")
	sl.Debug("starting", "policy", c.opts.RoomPolicy, "cleanupPeriod", c.opts.CleanupPeriod)
	ticker := time.NewTicker(c.opts.CleanupPeriod)
	defer func() {
		ticker.Stop()
		sl.Info("stopped")
	}()
	for {
		select {
		case <-ticker.C:
			c.CleanUpRooms()
		case <-c.ctx.Done():
			return
		}
	}
}

// Stop cancels pending countdowns and closes every connection.
func (c *Coordinator) Stop() {
	sl := c.Slogger.With("func", "coordinator.Stop")
	sl.Debug("stopping", "status", "started")
	c.cancel()

	c.roomsMu.RLock()
	for _, room := range c.rooms {
		room.mu.Lock()
		room.stopCountdownLocked()
		room.mu.Unlock()
	}
	c.roomsMu.RUnlock()

	for _, conn := range c.players.connections() {
		conn.Close()
	}
	sl.Debug("stopped", "status", "completed")
}

func (c *Coordinator) newRoom(id, name string) *Room {
	return newRoom(id, name, GameState{
		Status:    Waiting,
		Track:     c.opts.DefaultTrack,
		Countdown: c.opts.Countdown,
	}, c.Slogger)
}

func (c *Coordinator) Room(id string) (*Room, bool) {
	c.roomsMu.RLock()
	defer c.roomsMu.RUnlock()
	room, ok := c.rooms[id]
	return room, ok
}

func (c *Coordinator) getOrCreateRoom(id string) *Room {
	if room, ok := c.Room(id); ok {
		return room
	}
	c.roomsMu.Lock()
	defer c.roomsMu.Unlock()
	if room, ok := c.rooms[id]; ok {
		return room
	}
	room := c.newRoom(id, "Room "+id)
	c.rooms[id] = room
	c.Slogger.Info("room created", "room", id)
	return room
}

// Rooms lists a summary of every room.
func (c *Coordinator) Rooms() []RoomSummary {
	c.roomsMu.RLock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, room := range c.rooms {
		rooms = append(rooms, room)
	}
	c.roomsMu.RUnlock()

	out := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Summary())
	}
	return out
}

// IsHost reports whether playerID is the host of roomID.
func (c *Coordinator) IsHost(roomID string, playerID PlayerID) bool {
	room, ok := c.Room(roomID)
	if !ok {
		return false
	}
	return room.IsHost(playerID)
}

// CleanUpRooms applies the room policy to empty rooms.
func (c *Coordinator) CleanUpRooms() {
	if c.opts.RoomPolicy != ReapEmptyRooms {
		return
	}
	sl := c.Slogger.With("func", "coordinator.CleanUpRooms")
	c.roomsMu.Lock()
	defer c.roomsMu.Unlock()

	for id, room := range c.rooms {
		if id == PublicRoomID {
			continue
		}
		room.mu.Lock()
		if room.order.Len() == 0 && room.reserved == 0 && !room.emptySince.IsZero() && time.Since(room.emptySince) > c.opts.CleanupPeriod {
			room.closed = true
			room.stopCountdownLocked()
			delete(c.rooms, id)
			sl.Info("removing", "room", id, slog.Group("checks",
				"emptySince", room.emptySince,
				"cleanupPeriod", c.opts.CleanupPeriod,
			))
		}
		room.mu.Unlock()
	}
}

// Connect registers a new player and returns its ID.
func (c *Coordinator) Connect(name string) PlayerID {
	id := c.players.Connect(name)
	c.Slogger.Info("player connected", "player", id)
	return id
}

// Attach binds a connection to a player and greets it with the directory.
func (c *Coordinator) Attach(id PlayerID, conn SocketSessioner) {
	p, ok := c.players.Get(id)
	if !ok {
		return
	}
	p.setConn(conn)
	c.sendTo(p, EventPlayerConnected, PlayerConnectedPayload{
		PlayerID: id,
		Players:  c.players.Directory(),
	})
}

// Disconnect removes the player from its room, then forgets it. Repeated
// calls are harmless.
func (c *Coordinator) Disconnect(id PlayerID) {
	p, ok := c.players.Get(id)
	if !ok {
		return
	}
	if roomID := p.RoomID(); roomID != "" {
		c.leaveRoom(p, roomID)
	}
	if _, removed := c.players.Remove(id); removed {
		c.Slogger.Info("player disconnected", "player", id)
	}
}

// JoinRoom moves the player into roomID, creating the room if needed. A
// rejected join leaves the player where it was.
func (c *Coordinator) JoinRoom(id PlayerID, roomID string) error {
	if roomID == "" {
		roomID = PublicRoomID
	}
	p, ok := c.players.Get(id)
	if !ok {
		return nil
	}

	room, err := c.reserveSeat(p, roomID)
	if err != nil {
		return err
	}

	if current := p.RoomID(); current != "" && current != roomID {
		c.leaveRoom(p, current)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	room.reserved--
	if !room.hasLocked(id) {
		room.addLocked(p)
		p.setRoom(roomID)
		room.Slogger.Info("player joined", "player", id, "players", room.order.Len())
	}
	host, _ := room.hostLocked()
	c.broadcastLocked(room, EventRoomJoined, RoomJoinedPayload{
		PlayerID:  id,
		RoomID:    roomID,
		Players:   room.statesLocked(),
		GameState: room.state,
		HostID:    host,
	})
	return nil
}

// reserveSeat holds a place in roomID for p. A reserved room counts the seat
// against its capacity and is never reaped.
func (c *Coordinator) reserveSeat(p *Player, roomID string) (*Room, error) {
	for {
		room := c.getOrCreateRoom(roomID)
		room.mu.Lock()
		if room.closed {
			// reaped between lookup and lock
			room.mu.Unlock()
			continue
		}
		limit := c.opts.MaxPlayersPerRoom
		if !room.hasLocked(p.ID) && limit > 0 && room.order.Len()+room.reserved >= limit {
			room.mu.Unlock()
			return nil, fmt.Errorf("join %s: %w", roomID, ErrRoomFull)
		}
		room.reserved++
		room.mu.Unlock()
		return room, nil
	}
}

// LeaveRoom removes the player from roomID if it is a member there.
func (c *Coordinator) LeaveRoom(id PlayerID, roomID string) {
	p, ok := c.players.Get(id)
	if !ok {
		return
	}
	c.leaveRoom(p, roomID)
}

func (c *Coordinator) leaveRoom(p *Player, roomID string) {
	room, ok := c.Room(roomID)
	if !ok {
		if p.RoomID() == roomID {
			p.setRoom("")
		}
		return
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if !room.removeLocked(p.ID) {
		return
	}
	p.setRoom("")
	room.Slogger.Info("player left", "player", p.ID, "players", room.order.Len())
	c.broadcastLocked(room, EventPlayerLeft, PlayerLeftPayload{PlayerID: p.ID})
}

// lockPlayerRoom returns the player's room locked, or nil when the player is
// not currently a member of any room.
func (c *Coordinator) lockPlayerRoom(p *Player) *Room {
	roomID := p.RoomID()
	if roomID == "" {
		return nil
	}
	room, ok := c.Room(roomID)
	if !ok {
		return nil
	}
	room.mu.Lock()
	if !room.hasLocked(p.ID) {
		room.mu.Unlock()
		return nil
	}
	return room
}

// UpdateMotion applies client-reported kinematics and relays them to the rest
// of the room.
func (c *Coordinator) UpdateMotion(id PlayerID, u MotionUpdate) {
	p, ok := c.players.Get(id)
	if !ok {
		return
	}
	room := c.lockPlayerRoom(p)
	if room == nil {
		return
	}
	defer room.mu.Unlock()

	if !c.players.UpdateFields(id, u) {
		return
	}
	st := p.State()
	c.broadcastExceptLocked(room, id, EventPlayerUpdated, PlayerUpdatedPayload{
		PlayerID: id,
		Position: st.Position,
		Rotation: st.Rotation,
		Speed:    st.Speed,
	})
	if room.state.Status == Racing {
		c.trackEventsLocked(room, p, st.Position)
	}
}

func (c *Coordinator) SetReady(id PlayerID, ready bool) {
	p, ok := c.players.Get(id)
	if !ok {
		return
	}
	room := c.lockPlayerRoom(p)
	if room == nil {
		return
	}
	defer room.mu.Unlock()

	p.setReady(ready)
	c.broadcastLocked(room, EventPlayerReadyChanged, PlayerReadyChangedPayload{
		PlayerID: id,
		Ready:    ready,
	})
}

// StartGame moves the player's room from waiting to countdown and schedules
// the switch to racing. Only the host may start.
func (c *Coordinator) StartGame(id PlayerID) error {
	p, ok := c.players.Get(id)
	if !ok {
		return nil
	}
	room := c.lockPlayerRoom(p)
	if room == nil {
		return nil
	}
	defer room.mu.Unlock()

	if !room.isHostLocked(id) {
		return fmt.Errorf("start game: %w", ErrNotHost)
	}
	if room.state.Status != Waiting {
		return fmt.Errorf("start game: %w", ErrNotWaiting)
	}

	room.state.Status = Countdown
	room.Slogger.Info("countdown started", "host", id, "countdown", room.state.Countdown)
	c.broadcastLocked(room, EventGameCountdownStarted, CountdownStartedPayload{
		Countdown: room.state.Countdown.Seconds(),
	})
	room.cancelCountdown = c.opts.Scheduler.AfterFunc(room.state.Countdown, func() {
		c.finishCountdown(room)
	})
	return nil
}

// finishCountdown runs on the scheduler once the countdown has elapsed. It
// fires whether or not anyone is still in the room.
func (c *Coordinator) finishCountdown(room *Room) {
	room.mu.Lock()
	defer room.mu.Unlock()
	room.cancelCountdown = nil
	if c.ctx.Err() != nil || room.closed || room.state.Status != Countdown {
		return
	}
	room.state.Status = Racing
	for _, p := range room.membersLocked() {
		p.resetProgress()
	}
	room.Slogger.Info("race started", "players", room.order.Len())
	c.broadcastLocked(room, EventGameStarted, struct{}{})
}

// CreatePrivateRoom makes an empty room with a fresh short ID and tells the
// requester about it.
func (c *Coordinator) CreatePrivateRoom(id PlayerID) (string, error) {
	p, ok := c.players.Get(id)
	if !ok {
		return "", nil
	}
	c.roomsMu.Lock()
	var roomID string
	for {
		roomID = c.opts.NewRoomID()
		if _, exists := c.rooms[roomID]; !exists && roomID != "" {
			break
		}
	}
	c.rooms[roomID] = c.newRoom(roomID, "Private Room "+roomID)
	c.roomsMu.Unlock()

	c.Slogger.Info("private room created", "room", roomID, "player", id)
	c.sendTo(p, EventPrivateRoomCreated, PrivateRoomCreatedPayload{RoomID: roomID})
	return roomID, nil
}

// CombatAction resolves an attack on a room-mate and broadcasts the outcome.
func (c *Coordinator) CombatAction(id PlayerID, req CombatActionRequest) {
	if req.TargetID == "" || req.ActionType == "" {
		return
	}
	p, ok := c.players.Get(id)
	if !ok {
		return
	}
	room := c.lockPlayerRoom(p)
	if room == nil {
		return
	}
	defer room.mu.Unlock()

	el, ok := room.members[req.TargetID]
	if !ok {
		return
	}
	res := el.Value.(*Player).takeHit(req.ActionType)
	c.broadcastLocked(room, EventCombatActionReceived, CombatActionReceivedPayload{
		PlayerID:     id,
		TargetID:     req.TargetID,
		ActionType:   req.ActionType,
		Damage:       res.Damage,
		SpeedPenalty: res.SpeedPenalty,
		Health:       res.Health,
		Speed:        res.Speed,
	})
}

// SelectBike changes the player's bike. Inside a room it is only allowed
// before the race starts.
func (c *Coordinator) SelectBike(id PlayerID, bikeType string) error {
	p, ok := c.players.Get(id)
	if !ok {
		return nil
	}
	room := c.lockPlayerRoom(p)
	if room == nil {
		bike, health := p.selectBike(bikeType)
		c.sendTo(p, EventBikeSelected, BikeSelectedPayload{PlayerID: id, BikeType: bike, Health: health})
		return nil
	}
	defer room.mu.Unlock()

	if room.state.Status != Waiting {
		return fmt.Errorf("select bike: %w", ErrNotWaiting)
	}
	bike, health := p.selectBike(bikeType)
	c.broadcastLocked(room, EventBikeSelected, BikeSelectedPayload{PlayerID: id, BikeType: bike, Health: health})
	return nil
}

// SelectTrack lets the host pick the course before the race starts.
func (c *Coordinator) SelectTrack(id PlayerID, trackID string) error {
	p, ok := c.players.Get(id)
	if !ok {
		return nil
	}
	room := c.lockPlayerRoom(p)
	if room == nil {
		return nil
	}
	defer room.mu.Unlock()

	if !room.isHostLocked(id) {
		return fmt.Errorf("select track: %w", ErrNotHost)
	}
	if room.state.Status != Waiting {
		return fmt.Errorf("select track: %w", ErrNotWaiting)
	}
	room.state.Track = physics.LookupTrack(trackID).ID
	c.broadcastLocked(room, EventTrackSelected, TrackSelectedPayload{TrackID: room.state.Track})
	return nil
}

// trackEventsLocked checks the player's new position against the room's track.
func (c *Coordinator) trackEventsLocked(room *Room, p *Player, pos physics.Vec3) {
	track := physics.LookupTrack(room.state.Track)

	p.mu.Lock()
	next := p.nextCheckpoint
	reached := len(track.Checkpoints) > 0 && track.CheckCheckpoint(pos, next)
	if reached {
		p.nextCheckpoint = (next + 1) % len(track.Checkpoints)
	}
	hit, touching := track.CheckObstacleCollision(pos)
	entered := touching && hit != p.obstacle
	p.obstacle = hit
	p.mu.Unlock()

	if reached {
		c.broadcastLocked(room, EventCheckpointReached, CheckpointReachedPayload{PlayerID: p.ID, Checkpoint: next})
	}
	if entered {
		c.broadcastLocked(room, EventObstacleHit, ObstacleHitPayload{PlayerID: p.ID, Obstacle: track.Obstacles[hit]})
	}
}

func (c *Coordinator) encode(eventType string, payload any) []byte {
	msg, err := Encode(eventType, payload)
	if err != nil {
		c.Slogger.Error("encode failed", "event", eventType, "err", err)
		return nil
	}
	return msg
}

func (c *Coordinator) broadcastLocked(room *Room, eventType string, payload any) {
	if msg := c.encode(eventType, payload); msg != nil {
		room.broadcastLocked(msg)
	}
}

func (c *Coordinator) broadcastExceptLocked(room *Room, except PlayerID, eventType string, payload any) {
	if msg := c.encode(eventType, payload); msg != nil {
		room.broadcastExceptLocked(msg, except)
	}
}

func (c *Coordinator) sendTo(p *Player, eventType string, payload any) {
	if msg := c.encode(eventType, payload); msg != nil {
		p.send(msg)
	}
}

func (c *Coordinator) sendError(id PlayerID, err error) {
	p, ok := c.players.Get(id)
	if !ok {
		return
	}
	c.sendTo(p, EventError, ErrorPayload{Message: err.Error()})
}
