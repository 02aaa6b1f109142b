package server

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yourusername/pitchside/internal/analytics"
	"github.com/yourusername/pitchside/internal/game"
	"github.com/yourusername/pitchside/internal/logging"
	"github.com/yourusername/pitchside/internal/metrics"
	"github.com/yourusername/pitchside/internal/physics"
	"github.com/yourusername/pitchside/internal/protocol"
	"github.com/yourusername/pitchside/internal/tracing"
)

const inboxSize = 1024

// Config holds the per-room rules.
type Config struct {
	MaxInnings        int
	MaxPeers          int
	ResetDelay        time.Duration
	IdleTimeout       time.Duration
	PitchTimeout      time.Duration
	PlayTimeout       time.Duration
	TimingTolerance   time.Duration
	LocationTolerance float64
	MaxNameLength     int
	MaxChatLength     int
	RateLimit         float64
	RateBurst         int
	EventLogSize      int
	// Seed makes physics and catch rolls reproducible per room id. Zero
	// draws a fresh seed for every room.
	Seed uint64
}

// DefaultConfig matches the documented environment defaults.
func DefaultConfig() Config {
	return Config{
		MaxInnings:        game.DefaultMaxInnings,
		MaxPeers:          16,
		ResetDelay:        10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		PitchTimeout:      20 * time.Second,
		PlayTimeout:       30 * time.Second,
		TimingTolerance:   400 * time.Millisecond,
		LocationTolerance: 0.35,
		MaxNameLength:     24,
		MaxChatLength:     280,
		RateLimit:         10,
		RateBurst:         20,
		EventLogSize:      200,
	}
}

// Deps are the collaborators shared by every room. Zero values fall back to
// working defaults. A nil Physics gives each room its own seeded model.
type Deps struct {
	Logger          *slog.Logger
	Metrics         *metrics.Recorder
	Tracer          trace.Tracer
	Sink            analytics.Sink
	Physics         game.Physics
	Clock           Clock
	ResolverOptions []game.Option
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = realClock{}
	}
	if d.Tracer == nil {
		d.Tracer = tracing.Tracer()
	}
	if d.Sink == nil {
		d.Sink = analytics.Discard{}
	}
	return d
}

// RoomSnapshot is the admin view of a room.
type RoomSnapshot struct {
	ID        string              `json:"id"`
	Peers     []protocol.PeerInfo `json:"peers"`
	GameState game.GameState      `json:"gameState"`
}

type command any

type joinCmd struct{ peer *Peer }

type leaveCmd struct{ id string }

type inboundCmd struct {
	from string
	env  protocol.Envelope
	err  error
}

type resetCmd struct {
	reason string
	done   chan struct{}
}

type snapshotCmd struct{ reply chan RoomSnapshot }

type logCmd struct{ reply chan []LogEntry }

type stopCmd struct{}

// Room is one isolated game. Every command runs on the goroutine started by
// Run, in arrival order, so the state needs no locks.
type Room struct {
	id       string
	cfg      Config
	state    *game.State
	resolver *game.Resolver
	physics  game.Physics
	registry *Registry
	chat     *ChatManager
	events   *eventLog

	logger  *slog.Logger
	metrics *metrics.Recorder
	tracer  trace.Tracer
	sink    analytics.Sink
	clock   Clock

	pitchTimer roomTimer
	playTimer  roomTimer
	resetTimer roomTimer
	idleTimer  roomTimer
	resets     int

	inbox chan command
	done  chan struct{}
}

// NewRoom creates a room. Call Run to start processing.
func NewRoom(id string, cfg Config, deps Deps) *Room {
	deps = deps.withDefaults()
	seed := roomSeed(cfg.Seed, id)
	phys := deps.Physics
	if phys == nil {
		phys = physics.New(seed)
	}
	rolls := rand.New(rand.NewPCG(seed, ^seed))
	opts := append([]game.Option{
		game.WithClock(deps.Clock.Now),
		game.WithRoller(rolls.Float64),
		game.WithTolerance(cfg.TimingTolerance, cfg.LocationTolerance),
	}, deps.ResolverOptions...)

	return &Room{
		id:         id,
		cfg:        cfg,
		state:      game.NewState(cfg.MaxInnings),
		resolver:   game.NewResolver(phys, opts...),
		physics:    phys,
		registry:   NewRegistry(),
		chat:       NewChatManager(cfg.MaxChatLength),
		events:     newEventLog(cfg.EventLogSize),
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		tracer:     deps.Tracer,
		sink:       deps.Sink,
		clock:      deps.Clock,
		pitchTimer: roomTimer{kind: timerPitch},
		playTimer:  roomTimer{kind: timerPlay},
		resetTimer: roomTimer{kind: timerReset},
		idleTimer:  roomTimer{kind: timerIdle},
		inbox:      make(chan command, inboxSize),
		done:       make(chan struct{}),
	}
}

// roomSeed derives the seed for one room from the configured base seed.
func roomSeed(base uint64, id string) uint64 {
	if base == 0 {
		return rand.Uint64()
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	if s := base ^ h.Sum64(); s != 0 {
		return s
	}
	return base
}

// ID returns the room identifier.
func (r *Room) ID() string {
	return r.id
}

// Done is closed once the room has stopped.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Run starts the room's main loop
func (r *Room) Run() {
	defer close(r.done)
	for cmd := range r.inbox {
		if _, ok := cmd.(stopCmd); ok {
			r.shutdown()
			return
		}
		r.handle(cmd)
		r.syncTimers()
	}
}

func (r *Room) enqueue(cmd command) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.inbox <- cmd:
		return true
	case <-r.done:
		return false
	}
}

// Join registers a peer. It returns false if the room has stopped.
func (r *Room) Join(p *Peer) bool {
	return r.enqueue(joinCmd{peer: p})
}

// Leave unregisters a peer.
func (r *Room) Leave(id string) {
	r.enqueue(leaveCmd{id: id})
}

// Submit queues a decoded inbound message from a peer. A non-nil err is
// reported back to that peer as a rejection.
func (r *Room) Submit(from string, env protocol.Envelope, err error) {
	r.enqueue(inboundCmd{from: from, env: env, err: err})
}

// Stop ends the actor after the commands already queued.
func (r *Room) Stop() {
	r.enqueue(stopCmd{})
}

// Snapshot returns the admin view of the room.
func (r *Room) Snapshot(ctx context.Context) (RoomSnapshot, error) {
	reply := make(chan RoomSnapshot, 1)
	if !r.enqueue(snapshotCmd{reply: reply}) {
		return RoomSnapshot{}, game.ErrRoomNotFound
	}
	select {
	case s := <-reply:
		return s, nil
	case <-r.done:
		return RoomSnapshot{}, game.ErrRoomNotFound
	case <-ctx.Done():
		return RoomSnapshot{}, ctx.Err()
	}
}

// Log returns the in-memory event log, oldest first.
func (r *Room) Log(ctx context.Context) ([]LogEntry, error) {
	reply := make(chan []LogEntry, 1)
	if !r.enqueue(logCmd{reply: reply}) {
		return nil, game.ErrRoomNotFound
	}
	select {
	case entries := <-reply:
		return entries, nil
	case <-r.done:
		return nil, game.ErrRoomNotFound
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reset puts the game back at its starting state and broadcasts game-reset.
func (r *Room) Reset(ctx context.Context, reason string) error {
	done := make(chan struct{})
	if !r.enqueue(resetCmd{reason: reason, done: done}) {
		return game.ErrRoomNotFound
	}
	select {
	case <-done:
		return nil
	case <-r.done:
		return game.ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) handle(cmd command) {
	switch c := cmd.(type) {
	case joinCmd:
		r.handleJoin(c.peer)
	case leaveCmd:
		r.handleLeave(c.id)
	case inboundCmd:
		r.handleInbound(c)
	case timerFired:
		r.handleTimer(c)
	case resetCmd:
		r.reset(c.reason)
		close(c.done)
	case snapshotCmd:
		c.reply <- RoomSnapshot{ID: r.id, Peers: r.registry.Infos(), GameState: r.state.Snapshot()}
	case logCmd:
		c.reply <- r.events.list()
	}
}

func (r *Room) shutdown() {
	r.stopTimers()
	for _, p := range r.registry.Peers() {
		r.registry.Leave(p.ID)
		p.close()
	}
	logging.Info(r.logger, "room closed", logging.KeyRoomID, r.id)
}

func (r *Room) startSpan(name string, side game.Side) trace.Span {
	_, span := r.tracer.Start(context.Background(), "room."+name,
		trace.WithAttributes(
			attribute.String("room.id", r.id),
			attribute.String("peer.side", string(side)),
		),
	)
	return span
}

func endSpan(span trace.Span, err error) string {
	result := "ok"
	if err != nil {
		result = "rejected"
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("result", result))
	span.End()
	return result
}

func (r *Room) handleJoin(p *Peer) {
	span := r.startSpan("join", "")
	r.registry.Join(p, r.clock.Now())
	r.state.SetSeated(r.registry.Seated())
	snap := r.state.Snapshot()

	r.send(p, protocol.MsgConnected, protocol.ConnectedPayload{
		RoomID: r.id,
		You:    p.Info(),
		Peers:  r.registry.Infos(),
	}, &snap)
	r.publish(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		Peer:      p.Info(),
		PeerCount: r.registry.Len(),
	}, snap, p.ID, LogEntry{Actor: p.Side, Detail: p.Name})

	logging.Info(r.logger, "peer joined",
		logging.KeyRoomID, r.id,
		logging.KeyConnID, p.ID,
		logging.KeySide, p.Side,
		logging.KeyPeers, r.registry.Len(),
	)
	span.SetAttributes(attribute.String("peer.side", string(p.Side)))
	r.metrics.RecordAction("join", endSpan(span, nil), 0)
}

func (r *Room) handleLeave(id string) {
	left, newHost := r.registry.Leave(id)
	if left == nil {
		return
	}
	span := r.startSpan("leave", left.Side)
	left.close()
	r.state.SetSeated(r.registry.Seated())

	payload := protocol.PlayerLeftPayload{Peer: left.Info(), PeerCount: r.registry.Len()}
	if newHost != nil {
		payload.NewHost = newHost.ID
	}
	r.publish(protocol.MsgPlayerLeft, payload, r.state.Snapshot(), "", LogEntry{Actor: left.Side, Detail: left.Name})

	logging.Info(r.logger, "peer left",
		logging.KeyRoomID, r.id,
		logging.KeyConnID, left.ID,
		logging.KeySide, left.Side,
		logging.KeyPeers, r.registry.Len(),
	)
	r.metrics.RecordAction("leave", endSpan(span, nil), 0)
}

func (r *Room) handleInbound(c inboundCmd) {
	p := r.registry.Get(c.from)
	if p == nil {
		return
	}
	start := r.clock.Now()
	label := string(c.env.Type)
	if !c.env.Type.IsInbound() {
		label = "unknown"
	}
	span := r.startSpan(label, p.Side)

	err := c.err
	if err == nil {
		err = r.dispatch(p, c.env)
	}
	if err != nil {
		r.reject(p, c.env.Type, err)
	}
	r.metrics.RecordAction(label, endSpan(span, err), r.clock.Now().Sub(start))
}

func (r *Room) dispatch(p *Peer, env protocol.Envelope) error {
	before := r.state.Snapshot()

	switch env.Type {
	case protocol.MsgPitch:
		var m protocol.PitchPayload
		if err := env.Bind(&m); err != nil {
			return err
		}
		out, err := r.resolver.Pitch(r.state, p.Side, game.PitchParams{
			Kind:   m.Kind,
			Speed:  m.Speed,
			Target: game.Location(m.Target),
		})
		return r.commit(before, out, err)

	case protocol.MsgSwing:
		var m protocol.SwingPayload
		if err := env.Bind(&m); err != nil {
			return err
		}
		out, err := r.resolver.Swing(r.state, p.Side, game.Swing{Take: m.Take, Location: game.Location(m.Location)})
		return r.commit(before, out, err)

	case protocol.MsgField:
		var m protocol.FieldPayload
		if err := env.Bind(&m); err != nil {
			return err
		}
		out, err := r.resolver.Field(r.state, p.Side, game.FieldParams{
			Action:   game.FieldAction(m.Action),
			Position: game.Position(m.Position),
			Base:     m.Base,
		})
		return r.commit(before, out, err)

	case protocol.MsgRun:
		var m protocol.RunPayload
		if err := env.Bind(&m); err != nil {
			return err
		}
		out, err := r.resolver.Run(r.state, p.Side, m.From, m.To)
		return r.commit(before, out, err)

	case protocol.MsgJoin:
		var m protocol.JoinPayload
		if err := env.Bind(&m); err != nil {
			return err
		}
		return r.rename(p, m.DisplayName)

	case protocol.MsgChat:
		var m protocol.ChatPayload
		if err := env.Bind(&m); err != nil {
			return err
		}
		msg, ok := r.chat.Post(p, m.Message, r.clock.Now())
		if !ok {
			return &game.Error{Code: game.CodeInvalidPayload, Message: "chat message is empty"}
		}
		data, err := protocol.EncodeMessage(protocol.MsgChat, msg.Wire(), nil, r.clock.Now())
		if err != nil {
			return err
		}
		r.broadcast(data, "")
		return nil

	case protocol.MsgSyncRequest:
		snap := r.state.Snapshot()
		r.send(p, protocol.MsgSyncResponse, protocol.SyncResponsePayload{
			You:   p.Info(),
			Peers: r.registry.Infos(),
			Chat:  r.chat.History(),
		}, &snap)
		return nil

	case protocol.MsgPing:
		r.send(p, protocol.MsgPong, nil, nil)
		return nil
	}
	return &game.Error{Code: game.CodeInvalidPayload, Message: "unknown message type " + string(env.Type)}
}

func (r *Room) rename(p *Peer, name string) error {
	name = sanitizeName(name, r.cfg.MaxNameLength)
	if name == "" {
		return &game.Error{Code: game.CodeInvalidPayload, Message: "display name is empty"}
	}
	p.Name = name
	r.publish(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		Peer:      p.Info(),
		PeerCount: r.registry.Len(),
		Renamed:   true,
	}, r.state.Snapshot(), "", LogEntry{Actor: p.Side, Detail: name})
	return nil
}

// commit broadcasts a successful outcome and feeds the analytics sink.
func (r *Room) commit(before game.GameState, out game.Outcome, err error) error {
	if err != nil {
		return err
	}
	after := r.state.Snapshot()

	var arrival time.Duration
	if out.Play == game.PlayPitch && after.PendingPitch != nil {
		arrival = r.physics.Arrival(*after.PendingPitch)
	}
	r.publish(messageFor(out), payloadFor(out, after, arrival), after, "", LogEntry{Play: out.Play, Actor: out.Actor})
	r.record(before, after, out)

	if out.GameEnded {
		logging.Info(r.logger, "game ended",
			logging.KeyRoomID, r.id,
			"winner", out.Winner,
			"home", after.Score.Home,
			"away", after.Score.Away,
		)
	}
	return nil
}

func (r *Room) record(before, after game.GameState, out game.Outcome) {
	at := r.clock.Now()
	if out.AtBatComplete() {
		r.sink.Emit(analytics.Record{
			ID:     uuid.New().String(),
			RoomID: r.id,
			Kind:   analytics.KindAtBat,
			Play:   out.Play,
			Inning: before.Inning,
			Half:   before.Half,
			Score:  after.Score,
			At:     at,
		})
	}
	if out.GameEnded {
		r.sink.Emit(analytics.Record{
			ID:     uuid.New().String(),
			RoomID: r.id,
			Kind:   analytics.KindGameEnd,
			Play:   out.Play,
			Inning: before.Inning,
			Half:   before.Half,
			Score:  after.Score,
			Winner: out.Winner,
			At:     at,
		})
	}
}

func (r *Room) handleTimer(c timerFired) {
	tm := r.timer(c.kind)
	if !tm.current(c.gen) {
		return
	}
	tm.armed = false
	tm.t = nil

	span := r.startSpan("timer."+string(c.kind), "")
	before := r.state.Snapshot()
	var err error

	switch c.kind {
	case timerPitch:
		var out game.Outcome
		out, err = r.resolver.ExpirePitch(r.state, tm.key)
		err = r.commit(before, out, err)
	case timerPlay:
		if before.BallInPlay && before.PitchSeq == tm.key {
			var out game.Outcome
			out, err = r.resolver.DeadBall(r.state)
			err = r.commit(before, out, err)
		}
	case timerReset:
		if before.Status == game.StatusEnded {
			r.reset("game-over")
		}
	case timerIdle:
		if before.Status == game.StatusPaused {
			r.reset("idle")
		}
	}
	r.metrics.RecordAction("timer."+string(c.kind), endSpan(span, err), 0)
}

func (r *Room) reset(reason string) {
	r.state.Reset()
	r.resets++
	r.publish(protocol.MsgGameReset, protocol.GameResetPayload{Reason: reason}, r.state.Snapshot(), "", LogEntry{Detail: reason})
	logging.Info(r.logger, "game reset", logging.KeyRoomID, r.id, logging.KeyReason, reason)
}

// publish encodes one event with the state snapshot, broadcasts it and logs
// it in the event log.
func (r *Room) publish(t protocol.MessageType, payload any, snap game.GameState, exclude string, entry LogEntry) {
	now := r.clock.Now()
	data, err := protocol.EncodeMessage(t, payload, &snap, now)
	if err != nil {
		logging.Error(r.logger, "encode event", logging.KeyRoomID, r.id, logging.KeyMsgType, t, logging.KeyError, err)
		return
	}
	r.broadcast(data, exclude)

	entry.Type = t
	entry.Inning = snap.Inning
	entry.Half = snap.Half
	entry.Score = snap.Score
	entry.At = now
	r.events.add(entry)
}

// send encodes and delivers a message to one peer.
func (r *Room) send(p *Peer, t protocol.MessageType, payload any, snap *game.GameState) {
	data, err := protocol.EncodeMessage(t, payload, snap, r.clock.Now())
	if err != nil {
		logging.Error(r.logger, "encode message", logging.KeyRoomID, r.id, logging.KeyMsgType, t, logging.KeyError, err)
		return
	}
	r.unicast(p, data)
}

// reject tells only the offending peer why its message was refused. The
// state is untouched.
func (r *Room) reject(p *Peer, action protocol.MessageType, err error) {
	reason := game.ReasonOf(err)
	message := err.Error()
	var gerr *game.Error
	if errors.As(err, &gerr) {
		message = gerr.Message
	}

	snap := r.state.Snapshot()
	r.send(p, protocol.MsgActionRejected, protocol.RejectedPayload{
		Reason:  reason,
		Message: message,
		Action:  action,
	}, &snap)
	r.metrics.RecordRejection(string(reason))
	logging.Debug(r.logger, "action rejected",
		logging.KeyRoomID, r.id,
		logging.KeyConnID, p.ID,
		logging.KeySide, p.Side,
		logging.KeyMsgType, action,
		logging.KeyReason, reason,
	)
}
