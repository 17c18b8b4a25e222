package roadrage

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

const (
	defaultSendBuffer   = 255
	defaultPingInterval = time.Second * 10
)

type SocketSessioner interface {
	ReferenceID() PlayerID
	Send(message []byte)
	Close()
}

type SocketMessageType int

const (
	Disconnect SocketMessageType = iota - 1
	_
	Message
)

type SocketMessage struct {
	ReferenceID PlayerID
	Type        SocketMessageType
	Message     []byte
}

// MessageHandler receives a session's inbound messages. Calls for one session
// are made sequentially from its read loop, ending with a single Disconnect.
type MessageHandler interface {
	HandleSocketMessage(msg SocketMessage)
}

type SocketSession struct {
	// The key bit - the web-socket connection
	conn net.Conn
	// The reference bit
	referenceID PlayerID

	// The message bit
	send    chan []byte
	handler MessageHandler

	// The concurrency bit
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once

	Slogger *slog.Logger
}

// NewSocketSession wraps an upgraded connection. Nothing is read or written
// until Start, so the caller can register the session first.
func NewSocketSession(conn net.Conn, referenceID PlayerID, handler MessageHandler) *SocketSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &SocketSession{
		conn:        conn,
		referenceID: referenceID,
		send:        make(chan []byte, defaultSendBuffer),
		handler:     handler,
		ctx:         ctx,
		cancel:      cancel,
		Slogger:     slog.Default().With("player", referenceID),
	}
}

func (s *SocketSession) Start() {
	s.startOnce.Do(func() {
		s.wg.Add(2)
		go func() {
			defer s.wg.Done()
			s.ReadLoop()
		}()
		go func() {
			defer s.wg.Done()
			s.WriteLoop()
		}()
	})
}

func (s *SocketSession) ReferenceID() PlayerID {
	return s.referenceID
}

// Close tears the connection down and waits for both loops to exit. It must
// not be called from inside the session's own handler.
func (s *SocketSession) Close() {
	s.cancel()
	_ = s.conn.Close()
	s.wg.Wait()
}

func (s *SocketSession) ReadLoop() {
	sl := s.Slogger.With("func", "socket.ReadLoop")
	sl.Debug("starting")
	defer func() {
		_ = s.conn.Close()
		s.cancel()
		sl.Debug("ReadLoop exited")
	}()
	for {
		msg, _, err := wsutil.ReadClientData(s.conn)
		if err != nil {
			var closed wsutil.ClosedError
			switch {
			case errors.As(err, &closed):
				sl.Debug("ReadLoop closing", "reason", closed.Reason)
			case s.ctx.Err() != nil:
				sl.Debug("ReadLoop closing", "reason", "session closed")
			default:
				sl.Warn("ReadLoop error", "err", err)
			}
			// any error that ends the loop is a disconnect
			s.handler.HandleSocketMessage(s.unregisterMessage())
			return
		}
		s.handler.HandleSocketMessage(SocketMessage{
			ReferenceID: s.referenceID,
			Type:        Message,
			Message:     msg,
		})
	}
}

func (s *SocketSession) WriteLoop() {
	sl := s.Slogger.With("func", "socket.WriteLoop")
	sl.Debug("starting")
	ticker := time.NewTicker(defaultPingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
		s.cancel()
		sl.Debug("WriteLoop exited")
	}()
	for {
		select {
		case msg := <-s.send:
			if err := wsutil.WriteServerText(s.conn, msg); err != nil {
				sl.Debug("write failed", "err", err)
				return
			}
		case <-ticker.C:
			sl.Log(s.ctx, slog.Level(-8), "ping")
			if err := wsutil.WriteServerMessage(s.conn, ws.OpPing, []byte("ping")); err != nil {
				sl.Debug("ping failed", "err", err)
				return
			}
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *SocketSession) unregisterMessage() SocketMessage {
	return SocketMessage{
		ReferenceID: s.referenceID,
		Type:        Disconnect,
	}
}

// Send queues a frame for the write loop without blocking. Frames sent after
// the session has closed are dropped. A client that lets its queue fill is
// cut off: the connection is closed and the read loop reports the disconnect.
func (s *SocketSession) Send(message []byte) {
	select {
	case s.send <- message:
	case <-s.ctx.Done():
	default:
		s.Slogger.Warn("send queue full, dropping client", "queued", len(s.send))
		s.cancel()
		_ = s.conn.Close()
	}
}
