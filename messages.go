package roadrage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chilledoj/roadrage/physics"
)

// Inbound events.
const (
	EventJoinRoom          = "join_room"
	EventPlayerUpdate      = "player_update"
	EventPlayerReady       = "player_ready"
	EventStartGame         = "start_game"
	EventCreatePrivateRoom = "create_private_room"
	EventCombatAction      = "combat_action"
	EventSelectBike        = "select_bike"
	EventSelectTrack       = "select_track"
)

// Outbound events.
const (
	EventPlayerConnected      = "player_connected"
	EventPlayerLeft           = "player_left"
	EventRoomJoined           = "room_joined"
	EventPlayerUpdated        = "player_updated"
	EventPlayerReadyChanged   = "player_ready_changed"
	EventGameCountdownStarted = "game_countdown_started"
	EventGameStarted          = "game_started"
	EventPrivateRoomCreated   = "private_room_created"
	EventCombatActionReceived = "combat_action_received"
	EventBikeSelected         = "bike_selected"
	EventTrackSelected        = "track_selected"
	EventCheckpointReached    = "checkpoint_reached"
	EventObstacleHit          = "obstacle_hit"
	EventError                = "error"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownEvent     = errors.New("unknown event")
)

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func Encode(eventType string, payload any) ([]byte, error) {
	if eventType == "" {
		return nil, errors.New("encode: empty event type")
	}
	if payload == nil {
		payload = struct{}{}
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", eventType, err)
	}
	return json.Marshal(Envelope{Type: eventType, Payload: pb})
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if len(b) == 0 {
		return env, fmt.Errorf("%w: empty frame", ErrMalformedMessage)
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return env, nil
}

// DecodePayload unmarshals the payload into T. A missing payload yields the
// zero T, since every inbound field is optional.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 || bytes.Equal(env.Payload, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("%w: %s payload: %v", ErrMalformedMessage, env.Type, err)
	}
	return out, nil
}

// Inbound payloads.

type JoinRoomRequest struct {
	RoomID string `json:"room_id"`
}

type PlayerReadyRequest struct {
	Ready bool `json:"ready"`
}

type CombatActionRequest struct {
	TargetID   PlayerID `json:"target_id"`
	ActionType string   `json:"action_type"`
}

type SelectBikeRequest struct {
	BikeType string `json:"bike_type"`
}

type SelectTrackRequest struct {
	TrackID string `json:"track_id"`
}

// Outbound payloads.

type PlayerConnectedPayload struct {
	PlayerID PlayerID                 `json:"player_id"`
	Players  map[PlayerID]PlayerState `json:"players"`
}

type PlayerLeftPayload struct {
	PlayerID PlayerID `json:"player_id"`
}

type RoomJoinedPayload struct {
	PlayerID  PlayerID      `json:"player_id"`
	RoomID    string        `json:"room_id"`
	Players   []PlayerState `json:"players"`
	GameState GameState     `json:"game_state"`
	HostID    PlayerID      `json:"host_id"`
}

type PlayerUpdatedPayload struct {
	PlayerID PlayerID     `json:"player_id"`
	Position physics.Vec3 `json:"position"`
	Rotation physics.Vec3 `json:"rotation"`
	Speed    float64      `json:"speed"`
}

type PlayerReadyChangedPayload struct {
	PlayerID PlayerID `json:"player_id"`
	Ready    bool     `json:"ready"`
}

type CountdownStartedPayload struct {
	Countdown float64 `json:"countdown"`
}

type PrivateRoomCreatedPayload struct {
	RoomID string `json:"room_id"`
}

type CombatActionReceivedPayload struct {
	PlayerID     PlayerID `json:"player_id"`
	TargetID     PlayerID `json:"target_id"`
	ActionType   string   `json:"action_type"`
	Damage       float64  `json:"damage"`
	SpeedPenalty float64  `json:"speed_penalty"`
	Health       float64  `json:"health"`
	Speed        float64  `json:"speed"`
}

type BikeSelectedPayload struct {
	PlayerID PlayerID `json:"player_id"`
	BikeType string   `json:"bike_type"`
	Health   float64  `json:"health"`
}

type TrackSelectedPayload struct {
	TrackID string `json:"track_id"`
}

type CheckpointReachedPayload struct {
	PlayerID   PlayerID `json:"player_id"`
	Checkpoint int      `json:"checkpoint"`
}

type ObstacleHitPayload struct {
	PlayerID PlayerID         `json:"player_id"`
	Obstacle physics.Obstacle `json:"obstacle"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
