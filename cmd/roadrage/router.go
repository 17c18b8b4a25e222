package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chilledoj/roadrage"
)

func newRouter(c *roadrage.Coordinator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, map[string]string{"status": "ok"})
	})

	r.Get("/ws", c.HandleSocket(func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/rooms", func(w http.ResponseWriter, r *http.Request) {
			jsonResponse(w, c.Rooms())
		})
		r.Get("/rooms/{roomID}", func(w http.ResponseWriter, r *http.Request) {
			room, ok := c.Room(chi.URLParam(r, "roomID"))
			if !ok {
				http.Error(w, "room not found", http.StatusNotFound)
				return
			}
			jsonResponse(w, room.Snapshot())
		})
		r.Get("/players", func(w http.ResponseWriter, r *http.Request) {
			jsonResponse(w, c.Players().Directory())
		})
	})

	return r
}

func jsonResponse(w http.ResponseWriter, data any) {
	buf, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf)
}
