package server

import (
	"context"
	"sort"
	"sync"

	"github.com/yourusername/pitchside/internal/game"
	"github.com/yourusername/pitchside/internal/logging"
)

// RoomSummary is one line of the room listing.
type RoomSummary struct {
	ID    string `json:"id"`
	Peers int    `json:"peers"`
}

type roomEntry struct {
	room    *Room
	members int
}

// RoomManager manages all game rooms
type RoomManager struct {
	cfg  Config
	deps Deps

	mu    sync.Mutex
	rooms map[string]*roomEntry
}

// NewRoomManager creates a new room manager
func NewRoomManager(cfg Config, deps Deps) *RoomManager {
	return &RoomManager{
		cfg:   cfg,
		deps:  deps.withDefaults(),
		rooms: make(map[string]*roomEntry),
	}
}

// Reserve claims a seat in the room, creating it on first use. It fails
// with game.ErrRoomFull once the room holds MaxPeers connections. Every
// successful Reserve must be paired with Release.
func (rm *RoomManager) Reserve(roomID string) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	entry, ok := rm.rooms[roomID]
	if !ok {
		room := NewRoom(roomID, rm.cfg, rm.deps)
		entry = &roomEntry{room: room}
		rm.rooms[roomID] = entry
		go room.Run()

		rm.deps.Metrics.RoomOpened()
		logging.Info(rm.deps.Logger, "room created", logging.KeyRoomID, roomID)
	}
	if rm.cfg.MaxPeers > 0 && entry.members >= rm.cfg.MaxPeers {
		return nil, game.ErrRoomFull
	}
	entry.members++
	return entry.room, nil
}

// Release gives a seat back. The last release stops the room and forgets
// it, so the next connection starts a fresh game.
func (rm *RoomManager) Release(room *Room) {
	rm.mu.Lock()
	entry, ok := rm.rooms[room.ID()]
	if !ok || entry.room != room {
		rm.mu.Unlock()
		return
	}
	entry.members--
	empty := entry.members <= 0
	if empty {
		delete(rm.rooms, room.ID())
	}
	rm.mu.Unlock()

	if empty {
		room.Stop()
		rm.deps.Metrics.RoomClosed()
	}
}

// GetRoom gets an existing room
func (rm *RoomManager) GetRoom(roomID string) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	entry, ok := rm.rooms[roomID]
	if !ok {
		return nil, game.ErrRoomNotFound
	}
	return entry.room, nil
}

// List returns every live room sorted by id.
func (rm *RoomManager) List() []RoomSummary {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	out := make([]RoomSummary, 0, len(rm.rooms))
	for id, entry := range rm.rooms {
		out = append(out, RoomSummary{ID: id, Peers: entry.members})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Shutdown stops every room and waits for them to exit or ctx to end.
func (rm *RoomManager) Shutdown(ctx context.Context) error {
	rm.mu.Lock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for id, entry := range rm.rooms {
		rooms = append(rooms, entry.room)
		delete(rm.rooms, id)
		rm.deps.Metrics.RoomClosed()
	}
	rm.mu.Unlock()

	for _, room := range rooms {
		room.Stop()
	}
	for _, room := range rooms {
		select {
		case <-room.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
