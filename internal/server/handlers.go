package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/catalog"
	"github.com/Faultbox/midgard-lobby/internal/engine/collision"
	"github.com/Faultbox/midgard-lobby/internal/engine/picking"
	"github.com/Faultbox/midgard-lobby/internal/layout"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

type healthResponse struct {
	Status    string `json:"status"`
	Theme     string `json:"theme"`
	Sessions  int    `json:"sessions"`
	UptimeSec int64  `json:"uptime_sec"`
}

type boundsResponse struct {
	Bounds math.Rect           `json:"bounds"`
	Source layout.BoundsSource `json:"source"`
}

type resolveRequest struct {
	Position math.Vec3 `json:"position"`
	Radius   *float32  `json:"radius,omitempty"`
}

type resolveResponse struct {
	Position math.Vec3 `json:"position"`
	Moved    bool      `json:"moved"`
}

type pickRequest struct {
	Origin    math.Vec3 `json:"origin"`
	Direction math.Vec3 `json:"direction"`
}

type pickResponse struct {
	Hit    bool            `json:"hit"`
	Target *catalog.Target `json:"target,omitempty"`
}

type themeResponse struct {
	Theme  string              `json:"theme"`
	Bounds math.Rect           `json:"bounds"`
	Source layout.BoundsSource `json:"source"`
	Cards  int                 `json:"cards"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Theme:     s.lobby.Theme(),
		Sessions:  s.sessionCount(),
		UptimeSec: int64(time.Since(s.started).Seconds()),
	})
}

// colliders lists registered colliders, optionally filtered by ?tag=.
func (s *Server) colliders(w http.ResponseWriter, r *http.Request) {
	all := s.lobby.Colliders()
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		writeJSON(w, http.StatusOK, all)
		return
	}
	out := make([]collision.Collider, 0, len(all))
	for _, c := range all {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) bounds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, boundsResponse{
		Bounds: s.lobby.RoomBounds(),
		Source: s.lobby.BoundsSource(),
	})
}

func (s *Server) setBounds(w http.ResponseWriter, r *http.Request) {
	var rect math.Rect
	if err := decodeJSON(w, r, &rect); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid bounds: "+err.Error())
		return
	}
	s.lobby.SetRoomBounds(&rect)
	s.bounds(w, r)
}

func (s *Server) clearBounds(w http.ResponseWriter, r *http.Request) {
	s.lobby.SetRoomBounds(nil)
	s.bounds(w, r)
}

func (s *Server) zones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.lobby.ProtectedZones())
}

func (s *Server) targets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.lobby.Targets())
}

func (s *Server) catalogRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.lobby.CatalogRooms())
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.lobby.PropStats())
}

func (s *Server) themes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"current":   s.lobby.Theme(),
		"available": s.lobby.Config().ThemeIDs(),
	})
}

// applyTheme switches theme. A superseded application answers 409 so the
// caller knows a newer switch owns the world.
func (s *Server) applyTheme(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.lobby.ApplyTheme(r.Context(), id)
	switch {
	case errors.Is(err, catalog.ErrStale):
		errorJSON(w, http.StatusConflict, "superseded by a newer theme application")
		return
	case err != nil:
		log.Warn("theme application failed", zap.String("theme", id), zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := themeResponse{
		Theme:  id,
		Bounds: s.lobby.RoomBounds(),
		Source: s.lobby.BoundsSource(),
		Cards:  len(s.lobby.Targets()),
	}
	s.broadcast(message{Type: msgTheme, Theme: id, Bounds: &resp.Bounds})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	radius := s.radius
	if req.Radius != nil {
		if *req.Radius < 0 {
			errorJSON(w, http.StatusBadRequest, "radius must not be negative")
			return
		}
		radius = *req.Radius
	}
	p := s.lobby.Resolve(req.Position, radius)
	writeJSON(w, http.StatusOK, resolveResponse{Position: p, Moved: p != req.Position})
}

func (s *Server) pick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Direction.Length() == 0 {
		errorJSON(w, http.StatusBadRequest, "direction must be non-zero")
		return
	}
	t, ok := s.lobby.Pick(picking.NewRay(req.Origin, req.Direction))
	if !ok {
		writeJSON(w, http.StatusOK, pickResponse{})
		return
	}
	writeJSON(w, http.StatusOK, pickResponse{Hit: true, Target: &t})
}
