package roadrage

import (
	"fmt"
)

// HandleSocketMessage is the MessageHandler for every player session.
func (c *Coordinator) HandleSocketMessage(msg SocketMessage) {
	switch msg.Type {
	case Disconnect:
		c.Disconnect(msg.ReferenceID)
	case Message:
		c.Dispatch(msg.ReferenceID, msg.Message)
	}
}

// Dispatch decodes one inbound frame and runs the matching operation. Any
// failure is logged and reported back to the sender as an error event.
func (c *Coordinator) Dispatch(id PlayerID, raw []byte) {
	if err := c.dispatch(id, raw); err != nil {
		c.Slogger.Warn("dispatch failed", "func", "coordinator.Dispatch", "player", id, "err", err)
		c.sendError(id, err)
	}
}

func (c *Coordinator) dispatch(id PlayerID, raw []byte) error {
	env, err := DecodeEnvelope(raw)
	if err != nil {
		return err
	}

	switch env.Type {
	case EventJoinRoom:
		req, err := DecodePayload[JoinRoomRequest](env)
		if err != nil {
			return err
		}
		return c.JoinRoom(id, req.RoomID)

	case EventPlayerUpdate:
		req, err := DecodePayload[MotionUpdate](env)
		if err != nil {
			return err
		}
		c.UpdateMotion(id, req)

	case EventPlayerReady:
		req, err := DecodePayload[PlayerReadyRequest](env)
		if err != nil {
			return err
		}
		c.SetReady(id, req.Ready)

	case EventStartGame:
		return c.StartGame(id)

	case EventCreatePrivateRoom:
		_, err := c.CreatePrivateRoom(id)
		return err

	case EventCombatAction:
		req, err := DecodePayload[CombatActionRequest](env)
		if err != nil {
			return err
		}
		c.CombatAction(id, req)

	case EventSelectBike:
		req, err := DecodePayload[SelectBikeRequest](env)
		if err != nil {
			return err
		}
		return c.SelectBike(id, req.BikeType)

	case EventSelectTrack:
		req, err := DecodePayload[SelectTrackRequest](env)
		if err != nil {
			return err
		}
		return c.SelectTrack(id, req.TrackID)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
	return nil
}
