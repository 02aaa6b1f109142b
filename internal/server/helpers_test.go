package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/yourusername/pitchside/internal/analytics"
	"github.com/yourusername/pitchside/internal/game"
	"github.com/yourusername/pitchside/internal/protocol"
)

// fakeClock fires AfterFunc callbacks only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

// stubPhysics is a deterministic outcome helper.
type stubPhysics struct {
	inZone  bool
	arrival time.Duration
	hit     game.HitType
	catch   float64
}

func (p *stubPhysics) InZone(game.Pitch) bool { return p.inZone }

func (p *stubPhysics) Arrival(game.Pitch) time.Duration { return p.arrival }

func (p *stubPhysics) Trajectory(game.Pitch, game.Swing, time.Duration, float64) game.Trajectory {
	return game.Trajectory{HitType: p.hit, ExitVelocity: 95, LaunchAngle: 5, Distance: 120}
}

func (p *stubPhysics) CatchProbability(game.Trajectory, game.Position) float64 { return p.catch }

type memorySink struct {
	mu      sync.Mutex
	records []analytics.Record
}

func (s *memorySink) Emit(r analytics.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

func (s *memorySink) all() []analytics.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]analytics.Record(nil), s.records...)
}

type roomHarness struct {
	t       *testing.T
	room    *Room
	clock   *fakeClock
	physics *stubPhysics
	sink    *memorySink
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxInnings = 9
	cfg.PitchTimeout = 20 * time.Second
	cfg.PlayTimeout = 30 * time.Second
	cfg.ResetDelay = 10 * time.Second
	cfg.IdleTimeout = 2 * time.Minute
	return cfg
}

func newHarness(t *testing.T, id string, cfg Config) *roomHarness {
	t.Helper()
	h := &roomHarness{
		t:       t,
		clock:   newFakeClock(),
		physics: &stubPhysics{inZone: true, arrival: time.Second, hit: game.HitGroundBall, catch: 1},
		sink:    &memorySink{},
	}
	h.room = NewRoom(id, cfg, Deps{
		Clock:           h.clock,
		Physics:         h.physics,
		Sink:            h.sink,
		ResolverOptions: []game.Option{game.WithRoller(func() float64 { return 0.5 })},
	})
	go h.room.Run()
	t.Cleanup(func() {
		h.room.Stop()
		<-h.room.Done()
	})
	return h
}

// join adds a peer and consumes its connected greeting.
func (h *roomHarness) join(id string) *Peer {
	h.t.Helper()
	p := NewPeer(id, "name-"+id, make(chan []byte, 128))
	require.True(h.t, h.room.Join(p))
	msg := h.next(p)
	require.Equal(h.t, string(protocol.MsgConnected), msg.Get("type").String())
	return p
}

// sync waits until every queued command has been applied.
func (h *roomHarness) sync() game.GameState {
	h.t.Helper()
	snap, err := h.room.Snapshot(context.Background())
	require.NoError(h.t, err)
	return snap.GameState
}

func (h *roomHarness) send(p *Peer, raw string) {
	env, err := protocol.DecodeMessage([]byte(raw))
	h.room.Submit(p.ID, env, err)
}

// next returns the next message delivered to p.
func (h *roomHarness) next(p *Peer) gjson.Result {
	h.t.Helper()
	select {
	case msg, ok := <-p.send:
		require.True(h.t, ok, "peer channel closed")
		return gjson.ParseBytes(msg)
	case <-time.After(2 * time.Second):
		h.t.Fatalf("no message for %s", p.ID)
		return gjson.Result{}
	}
}

// expect asserts the next message for each peer has type t.
func (h *roomHarness) expect(t protocol.MessageType, peers ...*Peer) gjson.Result {
	h.t.Helper()
	var last gjson.Result
	for _, p := range peers {
		last = h.next(p)
		require.Equal(h.t, string(t), last.Get("type").String(), "peer %s got %s", p.ID, last.Raw)
	}
	return last
}

// quiet asserts nothing is waiting for the peers after all queued commands
// ran.
func (h *roomHarness) quiet(peers ...*Peer) {
	h.t.Helper()
	h.sync()
	for _, p := range peers {
		require.Zero(h.t, len(p.send), "unexpected message for %s", p.ID)
	}
}

func (h *roomHarness) drain(peers ...*Peer) {
	h.sync()
	for _, p := range peers {
		for len(p.send) > 0 {
			<-p.send
		}
	}
}
