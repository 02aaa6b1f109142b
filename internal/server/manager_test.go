package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitchside/internal/game"
	"github.com/yourusername/pitchside/internal/physics"
)

func newTestManager(maxPeers int) *RoomManager {
	cfg := testConfig()
	cfg.MaxPeers = maxPeers
	return NewRoomManager(cfg, Deps{Clock: newFakeClock(), Physics: &stubPhysics{inZone: true, arrival: time.Second}})
}

func TestRoomManager_ReserveSharesRoomUntilFull(t *testing.T) {
	rm := newTestManager(2)
	t.Cleanup(func() { _ = rm.Shutdown(context.Background()) })

	first, err := rm.Reserve("lobby")
	require.NoError(t, err)
	second, err := rm.Reserve("lobby")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = rm.Reserve("lobby")
	assert.ErrorIs(t, err, game.ErrRoomFull)

	other, err := rm.Reserve("other")
	require.NoError(t, err)
	assert.NotSame(t, first, other)

	assert.Equal(t, []RoomSummary{{ID: "lobby", Peers: 2}, {ID: "other", Peers: 1}}, rm.List())

	rm.Release(first)
	_, err = rm.Reserve("lobby")
	assert.NoError(t, err, "a released seat can be reused")
}

func TestRoomManager_LastReleaseStopsRoom(t *testing.T) {
	rm := newTestManager(4)

	room, err := rm.Reserve("r1")
	require.NoError(t, err)
	_, err = rm.Reserve("r1")
	require.NoError(t, err)

	rm.Release(room)
	got, err := rm.GetRoom("r1")
	require.NoError(t, err)
	assert.Same(t, room, got)

	rm.Release(room)
	select {
	case <-room.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("room did not stop after its last release")
	}
	_, err = rm.GetRoom("r1")
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
	assert.Empty(t, rm.List())

	fresh, err := rm.Reserve("r1")
	require.NoError(t, err)
	assert.NotSame(t, room, fresh)
	rm.Release(fresh)

	// releasing a room that is already gone is a no-op
	rm.Release(room)
}

func TestRoomManager_ShutdownStopsEveryRoom(t *testing.T) {
	rm := newTestManager(4)
	a, err := rm.Reserve("a")
	require.NoError(t, err)
	b, err := rm.Reserve("b")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, rm.Shutdown(ctx))

	for _, room := range []*Room{a, b} {
		select {
		case <-room.Done():
		default:
			t.Fatalf("room %s still running", room.ID())
		}
	}
	assert.Empty(t, rm.List())
}

func TestRoomManager_EachRoomOwnsItsPhysics(t *testing.T) {
	cfg := testConfig()
	cfg.Seed = 42
	rm := NewRoomManager(cfg, Deps{Clock: newFakeClock()})
	t.Cleanup(func() { _ = rm.Shutdown(context.Background()) })

	lobby, err := rm.Reserve("lobby")
	require.NoError(t, err)
	other, err := rm.Reserve("other")
	require.NoError(t, err)

	require.NotNil(t, lobby.physics)
	assert.NotSame(t, lobby.physics, other.physics)
}

func TestRoomSeed(t *testing.T) {
	assert.Equal(t, roomSeed(42, "lobby"), roomSeed(42, "lobby"))
	assert.NotEqual(t, roomSeed(42, "lobby"), roomSeed(42, "other"))
	assert.NotEqual(t, roomSeed(42, "lobby"), roomSeed(7, "lobby"))
	assert.NotZero(t, roomSeed(42, "lobby"))
}

func TestRoomSeed_ReproducesPhysics(t *testing.T) {
	cfg := testConfig()
	cfg.Seed = 99
	phys := physics.New(roomSeed(cfg.Seed, "diamond"))
	again := physics.New(roomSeed(cfg.Seed, "diamond"))

	p := game.Pitch{Kind: "fastball", Speed: 90}
	sw := game.Swing{}
	for i := 0; i < 5; i++ {
		assert.Equal(t,
			phys.Trajectory(p, sw, 20*time.Millisecond, 0.1),
			again.Trajectory(p, sw, 20*time.Millisecond, 0.1))
	}
}
