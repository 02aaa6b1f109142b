package server

import (
	"errors"

	"github.com/yourusername/pitchside/internal/logging"
)

// ErrDeliveryFailed means a peer's outbound buffer was full or already
// closed. It is logged and counted, never reported to the sender of the
// action that triggered the broadcast.
var ErrDeliveryFailed = errors.New("transport delivery failure")

// deliver hands msg to the peer's write pump without blocking.
func (p *Peer) deliver(msg []byte) error {
	if p.closed {
		return ErrDeliveryFailed
	}
	select {
	case p.send <- msg:
		return nil
	default:
		return ErrDeliveryFailed
	}
}

// close ends the peer's write pump. Only the room actor calls it.
func (p *Peer) close() {
	if !p.closed {
		p.closed = true
		close(p.send)
	}
}

// broadcast delivers msg to every peer except exclude (empty excludes
// nobody). A failed delivery does not stop the others. It returns how many
// peers received the message.
func (r *Room) broadcast(msg []byte, exclude string) int {
	delivered := 0
	for _, p := range r.registry.Peers() {
		if p.ID == exclude {
			continue
		}
		if err := p.deliver(msg); err != nil {
			r.deliveryFailed(p, err)
			continue
		}
		delivered++
	}
	return delivered
}

// unicast delivers msg to one peer.
func (r *Room) unicast(p *Peer, msg []byte) {
	if err := p.deliver(msg); err != nil {
		r.deliveryFailed(p, err)
	}
}

func (r *Room) deliveryFailed(p *Peer, err error) {
	r.metrics.RecordFanoutFailure()
	logging.Warn(r.logger, "dropped message for peer",
		logging.KeyRoomID, r.id,
		logging.KeyConnID, p.ID,
		logging.KeySide, p.Side,
		logging.KeyError, err,
	)
}
