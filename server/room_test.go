package server

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbarena/game"
)

func TestJoinSendsInitWithFullState(t *testing.T) {
	r := testRoom(DefaultConfig())
	c := &fakeConn{}
	id := joinSync(t, r, c, "")

	assert.True(t, strings.HasPrefix(string(id), "p-"))
	assert.Equal(t, 1, r.NumPlayers())
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	typ, init, err := DecodeEvent[InitMessage](msgs[0])
	require.NoError(t, err)
	assert.Equal(t, EventInit, typ)
	assert.Equal(t, string(id), init.ID)
	require.NotNil(t, init.State)
	require.Len(t, init.State.Players, 1)
	assert.Equal(t, string(id), init.State.Players[0].ID)
	require.Len(t, init.State.Leaderboard, 1)
}

func TestJoinWantedIDUsedOnce(t *testing.T) {
	r := testRoom(DefaultConfig())
	first := joinSync(t, r, &fakeConn{}, "alice")
	second := joinSync(t, r, &fakeConn{}, "alice")
	assert.Equal(t, PlayerID("alice"), first)
	assert.NotEqual(t, PlayerID("alice"), second)

	// npc_ 前缀保留给 NPC
	third := joinSync(t, r, &fakeConn{}, "npc_fake")
	assert.False(t, strings.HasPrefix(string(third), game.NPCIDPrefix))
}

func TestTickBroadcastsOnlyChanges(t *testing.T) {
	r := testRoom(DefaultConfig())
	c := &fakeConn{}
	id := joinSync(t, r, c, "")

	r.Tick()
	typ, d, err := DecodeEvent[game.Delta](c.Last())
	require.NoError(t, err)
	assert.Equal(t, EventState, typ)
	require.Len(t, d.Players, 1)
	assert.Equal(t, game.PlayerState{GridX: 0, GridY: 0, Heading: game.DefaultHeading}, *d.Players[0].Value)

	// 没有变化不广播
	n := len(c.Messages())
	r.Tick()
	assert.Len(t, c.Messages(), n)

	r.OnInput(id, game.Move(1))
	r.Tick()
	require.Len(t, c.Messages(), n+1)
	_, d, err = DecodeEvent[game.Delta](c.Last())
	require.NoError(t, err)
	require.Len(t, d.Players, 1)
	assert.Equal(t, -1, d.Players[0].Value.GridY)
	assert.Empty(t, d.Projectiles)
	assert.Equal(t, int64(1), r.metrics.InputsAccepted)

	// 前方没有格子：拒绝，不广播
	r.OnInput(id, game.Move(1))
	r.Tick()
	assert.Len(t, c.Messages(), n+1)
	assert.Equal(t, int64(1), r.metrics.InputsRejected)
}

func TestLeaveBroadcastsRemoval(t *testing.T) {
	r := testRoom(DefaultConfig())
	stay, gone := &fakeConn{}, &fakeConn{}
	joinSync(t, r, stay, "stay")
	joinSync(t, r, gone, "gone")
	r.Tick()

	r.RequestLeave("gone")
	r.Tick()

	assert.True(t, gone.IsClosed())
	assert.Equal(t, 1, r.NumPlayers())
	_, ok := r.World().Actor("gone")
	assert.False(t, ok)
	_, d, err := DecodeEvent[game.Delta](stay.Last())
	require.NoError(t, err)
	require.Len(t, d.Players, 1)
	assert.Equal(t, "gone", d.Players[0].ID)
	assert.Nil(t, d.Players[0].Value)

	// 重复离开无影响
	r.RequestLeave("gone")
	r.Tick()
	assert.Equal(t, 1, r.NumPlayers())
}

func TestKillEmitsEventsThenLeaderboard(t *testing.T) {
	r := testRoom(DefaultConfig())
	rec := &recorder{}
	r.addSink(rec)
	killerConn := &fakeConn{}
	joinSync(t, r, killerConn, "killer")
	joinSync(t, r, &fakeConn{}, "victim")
	r.Tick()
	rec.Reset()

	w := r.World()
	victim, _ := w.Actor("victim")
	victim.ShieldCooldown = 5
	p := game.NewProjectile(victim.WorldX, victim.WorldY, 0, "killer")
	p.Speed = 0
	w.AddProjectile(p)
	r.Tick()

	// 受害者重生回原点，公开字段不变，没有增量广播
	assert.Equal(t, []string{EventKilled, EventLeaderboard}, rec.Types())
	ev := rec.events[0].Payload.(game.KillEvent)
	assert.Equal(t, game.KillEvent{KillerID: "killer", VictimID: "victim", Streak: 1}, ev)
	lb := rec.events[1].Payload.(LeaderboardMessage)
	require.Len(t, lb.Entries, 2)
	assert.Equal(t, "killer", lb.Entries[0].ID)
	assert.Equal(t, game.LeaderboardEntry{Kills: 1, Streak: 1}, *lb.Entries[0].Value)
	assert.Equal(t, int64(1), r.metrics.Kills)

	// 默认出口同样写给客户端
	typ, _, err := DecodeEvent[LeaderboardMessage](killerConn.Last())
	require.NoError(t, err)
	assert.Equal(t, EventLeaderboard, typ)
}

func TestOnInputDropsWhenQueueFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InputBuffer = 1
	r := testRoom(cfg)
	r.OnInput("a", game.Interact())
	r.OnInput("a", game.Interact())
	assert.Equal(t, int64(1), r.metrics.ChanFullDiscarded)
}

func TestSyncNPCs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NPCs = 2
	r := testRoom(cfg)
	r.ProcessInputs()

	var npcs []*game.Actor
	for _, a := range r.World().Actors() {
		if a.IsNPC() {
			npcs = append(npcs, a)
		}
	}
	require.Len(t, npcs, 2)
	assert.Equal(t, "npc_1", npcs[0].ID)

	r.SetNPCs(1, 5)
	r.ProcessInputs()
	assert.Equal(t, 1, r.World().NumActors())
	a, ok := r.World().Actor("npc_1")
	require.True(t, ok)
	assert.Equal(t, 5, a.Policy.(*game.ChasePolicy).Interval)
}

func restoredRoom(t *testing.T, reclaim int) *Room {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ReclaimTicks = reclaim
	src := game.NewWorld(cfg.worldConfig(7))
	src.AddActor("alice", nil)
	src.Frame = 100
	r, err := NewRoomFromSnapshot("restored", cfg, src.Snapshot())
	require.NoError(t, err)
	return r
}

func TestRestoredPlayerExpiresWhenUnclaimed(t *testing.T) {
	r := restoredRoom(t, 2)
	_, ok := r.World().Actor("alice")
	require.True(t, ok)

	r.Tick()
	_, ok = r.World().Actor("alice")
	assert.True(t, ok)
	r.Tick()
	_, ok = r.World().Actor("alice")
	assert.False(t, ok)
	lb, _ := r.World().Leaderboard("alice")
	assert.Nil(t, lb)
}

func TestRestoredPlayerReclaim(t *testing.T) {
	r := restoredRoom(t, 2)
	before, _ := r.World().Actor("alice")
	cell := before.Cell

	id := joinSync(t, r, &fakeConn{}, "alice")
	assert.Equal(t, PlayerID("alice"), id)
	for i := 0; i < 5; i++ {
		r.Tick()
	}
	a, ok := r.World().Actor("alice")
	require.True(t, ok)
	assert.Equal(t, cell, a.Cell)
}

func TestNewRoomFromSnapshotRejectsInvalid(t *testing.T) {
	_, err := NewRoomFromSnapshot("bad", DefaultConfig(), game.Snapshot{Frame: -1})
	assert.ErrorIs(t, err, game.ErrInvalidSnapshot)
}

func TestStopWithoutTicker(t *testing.T) {
	r := testRoom(DefaultConfig())
	c := &fakeConn{}
	joinSync(t, r, c, "a")
	saved := false
	r.OnStop = func(*Room) { saved = true }

	r.Stop()
	r.Stop()
	assert.True(t, saved)
	assert.True(t, c.IsClosed())
	assert.Equal(t, 0, r.NumPlayers())

	_, err := r.JoinPlayer(&fakeConn{}, "")
	assert.ErrorIs(t, err, ErrRoomStopped)
	assert.ErrorIs(t, r.Do(func(*Room) {}), ErrRoomStopped)
}

func TestTickerProcessesJoinAndStops(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickHz = 200
	r := testRoom(cfg)
	r.StartTicker()

	c := &fakeConn{}
	id, err := r.JoinPlayer(c, "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Eventually(t, func() bool { return len(c.Messages()) >= 2 }, time.Second, 5*time.Millisecond)
	var frame int64
	require.NoError(t, r.Do(func(r *Room) { frame = r.World().Frame }))
	assert.Positive(t, frame)

	r.Stop()
	assert.True(t, c.IsClosed())
	select {
	case <-r.Done():
	default:
		t.Fatal("room not done after Stop")
	}
}
