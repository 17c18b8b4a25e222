package roadrage

import (
	"net/http"

	"github.com/gobwas/ws"
)

type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// HandleSocket upgrades the request, registers a new player for the
// connection and starts its session. The optional "name" query parameter sets
// the display name.
func (c *Coordinator) HandleSocket(onError ErrorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.ctx.Err(); err != nil {
			onError(w, r, err)
			return
		}

		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			onError(w, r, err)
			return
		}

		id := c.Connect(r.URL.Query().Get("name"))
		c.Slogger.Info("new socket connection", "player", id, "remote", r.RemoteAddr)

		ss := NewSocketSession(conn, id, c)
		ss.Slogger = c.Slogger.With("player", id)
		c.Attach(id, ss)
		ss.Start()
	}
}
