package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/yourusername/pitchside/internal/analytics"
	"github.com/yourusername/pitchside/internal/game"
)

const defaultHistoryLimit = 100

// History reads persisted analytics records.
type History interface {
	Recent(ctx context.Context, roomID string, limit int) ([]analytics.Record, error)
}

// Register mounts the websocket endpoint and the operator routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", s.HandleWebSocket)
	mux.HandleFunc("GET /ws/{room}", s.HandleWebSocket)
	mux.HandleFunc("GET /rooms", s.handleListRooms)
	mux.HandleFunc("GET /rooms/{id}", s.handleGetRoom)
	mux.HandleFunc("GET /rooms/{id}/log", s.handleRoomLog)
	mux.HandleFunc("POST /rooms/{id}/reset", s.handleResetRoom)
	mux.HandleFunc("GET /healthz", handleHealth)
	if s.history != nil {
		mux.HandleFunc("GET /rooms/{id}/history", s.handleRoomHistory)
	}
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rooms.List())
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.rooms.GetRoom(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	snap, err := room.Snapshot(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRoomLog(w http.ResponseWriter, r *http.Request) {
	room, err := s.rooms.GetRoom(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	entries, err := room.Log(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": room.ID(), "events": entries})
}

func (s *Server) handleResetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.rooms.GetRoom(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err := room.Reset(r.Context(), "operator"); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	snap, err := room.Snapshot(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleRoomHistory serves persisted records; the room need not be live.
func (s *Server) handleRoomHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, &game.Error{Code: game.CodeInvalidPayload, Message: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	id := sanitizeRoomID(r.PathValue("id"))
	records, err := s.history.Recent(r.Context(), id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []analytics.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "records": records})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrRoomFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Reason  game.Code `json:"reason"`
	Message string    `json:"message"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Reason: game.ReasonOf(err), Message: err.Error()}
	var gerr *game.Error
	if errors.As(err, &gerr) {
		body.Message = gerr.Message
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
