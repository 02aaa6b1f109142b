package server

import (
	"time"

	"github.com/yourusername/pitchside/internal/game"
	"github.com/yourusername/pitchside/internal/protocol"
)

// Peer is one connected participant of a room.
type Peer struct {
	ID       string
	Name     string
	Side     game.Side
	IsHost   bool
	JoinedAt time.Time

	send   chan []byte
	closed bool
}

// NewPeer creates a peer whose outbound messages go to send.
func NewPeer(id, name string, send chan []byte) *Peer {
	return &Peer{ID: id, Name: name, send: send}
}

// Info is the wire view of the peer.
func (p *Peer) Info() protocol.PeerInfo {
	return protocol.PeerInfo{
		ConnectionID: p.ID,
		DisplayName:  p.Name,
		Side:         p.Side,
		IsHost:       p.IsHost,
	}
}

// Registry tracks the peers of one room in join order. It is owned by the
// room actor and is not safe for concurrent use.
type Registry struct {
	peers []*Peer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Join registers p and assigns its side: home if vacant, then away, then
// spectator. The first peer of a hostless room becomes host. Join always
// succeeds.
func (r *Registry) Join(p *Peer, at time.Time) *Peer {
	switch {
	case r.bySide(game.SideHome) == nil:
		p.Side = game.SideHome
	case r.bySide(game.SideAway) == nil:
		p.Side = game.SideAway
	default:
		p.Side = game.SideSpectator
	}
	p.IsHost = r.host() == nil
	p.JoinedAt = at
	r.peers = append(r.peers, p)
	return p
}

// Leave removes the peer. When the host leaves, host passes to the
// earliest-joined remaining player, or the earliest spectator if no player
// remains; newHost reports the peer that was promoted. Unknown ids are a
// no-op.
func (r *Registry) Leave(id string) (left, newHost *Peer) {
	idx := r.index(id)
	if idx < 0 {
		return nil, nil
	}
	left = r.peers[idx]
	r.peers = append(r.peers[:idx], r.peers[idx+1:]...)

	if left.IsHost && len(r.peers) > 0 {
		newHost = r.peers[0]
		for _, p := range r.peers {
			if p.Side.IsPlayer() {
				newHost = p
				break
			}
		}
		newHost.IsHost = true
	}
	return left, newHost
}

// Get returns the peer with the id, or nil.
func (r *Registry) Get(id string) *Peer {
	if idx := r.index(id); idx >= 0 {
		return r.peers[idx]
	}
	return nil
}

// SideOf returns the side of a registered peer.
func (r *Registry) SideOf(id string) (game.Side, bool) {
	p := r.Get(id)
	if p == nil {
		return "", false
	}
	return p.Side, true
}

// Peers returns the current peers in join order. The slice is fresh on every
// call.
func (r *Registry) Peers() []*Peer {
	out := make([]*Peer, len(r.peers))
	copy(out, r.peers)
	return out
}

// Infos returns the wire view of every peer in join order.
func (r *Registry) Infos() []protocol.PeerInfo {
	out := make([]protocol.PeerInfo, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p.Info())
	}
	return out
}

// Len returns the number of peers, spectators included.
func (r *Registry) Len() int {
	return len(r.peers)
}

// Seated reports whether both home and away are occupied.
func (r *Registry) Seated() bool {
	return r.bySide(game.SideHome) != nil && r.bySide(game.SideAway) != nil
}

func (r *Registry) index(id string) int {
	for i, p := range r.peers {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) bySide(side game.Side) *Peer {
	for _, p := range r.peers {
		if p.Side == side {
			return p
		}
	}
	return nil
}

func (r *Registry) host() *Peer {
	for _, p := range r.peers {
		if p.IsHost {
			return p
		}
	}
	return nil
}
