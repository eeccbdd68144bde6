package server

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"orbarena/game"
)

// ErrRoomStopped 房间已停止，无法加入或执行命令
var ErrRoomStopped = errors.New("room stopped")

type joinRequest struct {
	Conn  Conn
	Want  PlayerID
	Reply chan PlayerID
}

// Room 房间世界：权威状态维护在内存，单线程 Tick 推进。
// 连接协程只往通道里写，所有状态变更都发生在 Tick 协程。
type Room struct {
	ID string

	cfg     Config
	world   *game.World
	tracker *game.DeltaTracker
	players map[PlayerID]*Player
	sink    Sink
	metrics *RoomMetrics

	inputChan chan game.QueuedInput
	joinChan  chan joinRequest
	leaveChan chan PlayerID
	cmdChan   chan func(*Room)

	pending   []game.QueuedInput
	unclaimed map[PlayerID]int64 // 快照恢复的玩家：重连截止帧
	npcs      int
	npcSeq    int
	online    atomic.Int64

	// OnStop 在 Tick 协程退出前调用（持久化快照）
	OnStop func(r *Room)

	life    sync.Mutex
	started bool
	stopped bool
	quit    chan struct{}
	done    chan struct{}
}

// NewRoom 创建房间并生成新地图
func NewRoom(id string, cfg Config) *Room {
	cfg = cfg.Sanitize()
	return newRoom(id, cfg, game.NewWorld(cfg.worldConfig(time.Now().UnixNano())))
}

// NewRoomFromSnapshot 从快照恢复房间；人类玩家在 ReclaimTicks 内可凭 id 重连
func NewRoomFromSnapshot(id string, cfg Config, snap game.Snapshot) (*Room, error) {
	cfg = cfg.Sanitize()
	w, err := game.Restore(snap, cfg.worldConfig(snap.RngSeed))
	if err != nil {
		return nil, err
	}
	r := newRoom(id, cfg, w)
	for _, a := range w.Actors() {
		if a.IsNPC() {
			if cp, ok := a.Policy.(*game.ChasePolicy); ok {
				cp.Interval = cfg.NPCDecisionInterval
			}
			continue
		}
		r.unclaimed[PlayerID(a.ID)] = w.Frame + int64(cfg.ReclaimTicks)
	}
	return r, nil
}

func newRoom(id string, cfg Config, w *game.World) *Room {
	r := &Room{
		ID:        id,
		cfg:       cfg,
		world:     w,
		tracker:   game.NewDeltaTracker(),
		players:   make(map[PlayerID]*Player),
		metrics:   &RoomMetrics{},
		inputChan: make(chan game.QueuedInput, cfg.InputBuffer), // 足够缓冲，避免网络读阻塞影响 Tick
		joinChan:  make(chan joinRequest, 16),
		leaveChan: make(chan PlayerID, 64),
		cmdChan:   make(chan func(*Room), 16),
		unclaimed: make(map[PlayerID]int64),
		npcs:      cfg.NPCs,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	r.sink = clientSink{r}
	return r
}

// addSink 在默认出口之外追加一个出口；只能在 Tick 协程启动前调用
func (r *Room) addSink(s Sink) {
	r.sink = teeSink{r.sink, s}
}

func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// NumPlayers 在线连接数，可在任意协程调用
func (r *Room) NumPlayers() int { return int(r.online.Load()) }

// JoinPlayer 请求加入房间，阻塞直到 Tick 协程分配 id。
// want 非空时优先重连同名的等待中角色，或在未被占用时直接使用
func (r *Room) JoinPlayer(conn Conn, want PlayerID) (PlayerID, error) {
	req := joinRequest{Conn: conn, Want: want, Reply: make(chan PlayerID, 1)}
	select {
	case r.joinChan <- req:
	case <-r.quit:
		return "", ErrRoomStopped
	}
	select {
	case id := <-req.Reply:
		return id, nil
	case <-r.quit:
		return "", ErrRoomStopped
	}
}

// OnInput 入站输入（不立即执行），等下一次 Tick 处理
func (r *Room) OnInput(id PlayerID, in game.Input) {
	// 不阻塞：输入拥塞时直接丢弃，保证 Tick 准时
	select {
	case r.inputChan <- game.QueuedInput{ActorID: string(id), Input: in}:
	default:
		r.metrics.IncChanFullDiscarded()
	}
}

// RequestLeave 请求在 Tick 协程中移除玩家，避免并发改动房间状态
func (r *Room) RequestLeave(id PlayerID) {
	select {
	case r.leaveChan <- id:
	case <-r.quit:
	}
}

// Do 在 Tick 协程中执行 fn 并等待完成（管理接口使用）
func (r *Room) Do(fn func(*Room)) error {
	finished := make(chan struct{})
	wrapped := func(r *Room) {
		fn(r)
		close(finished)
	}
	select {
	case r.cmdChan <- wrapped:
	case <-r.quit:
		return ErrRoomStopped
	}
	select {
	case <-finished:
		return nil
	case <-r.quit:
		return ErrRoomStopped
	}
}

// World 只能在 Tick 协程（或 Do 回调）中使用
func (r *Room) World() *game.World { return r.world }

// ProcessInputs 处理本帧之前到达的命令、加入、离开与输入（非阻塞 drain）
func (r *Room) ProcessInputs() {
	for drained := false; !drained; {
		select {
		case fn := <-r.cmdChan:
			fn(r)
		case req := <-r.joinChan:
			r.handleJoin(req)
		case id := <-r.leaveChan:
			r.handleLeave(id)
		default:
			drained = true
		}
	}
	r.syncNPCs()
	// 只取当前已排队的输入，Tick 期间新到达的留到下一帧
	for n := len(r.inputChan); n > 0; n-- {
		r.pending = append(r.pending, <-r.inputChan)
	}
}

// Tick 单个 Tick：输入 → 模拟 → 击杀事件 → 增量广播
func (r *Room) Tick() {
	r.ProcessInputs()
	res := r.world.Step(r.pending)
	r.pending = r.pending[:0]

	for _, o := range res.Outcomes {
		if o.Outcome == game.Applied {
			r.metrics.IncAccepted()
		} else {
			r.metrics.IncRejected()
		}
	}
	r.metrics.AddBlocks(res.Blocks)
	r.expireUnclaimed()
	r.emitKills(res.Kills)
	r.BroadcastDelta()
}

func (r *Room) emitKills(kills []game.KillEvent) {
	if len(kills) == 0 {
		return
	}
	r.metrics.AddKills(len(kills))
	for _, ev := range kills {
		Log.Debugw("player killed", "room", r.ID, "killer", ev.KillerID, "victim", ev.VictimID, "streak", ev.Streak)
		r.sink.Emit(r.ID, EventKilled, ev)
	}
	r.sink.Emit(r.ID, EventLeaderboard, LeaderboardMessage{Entries: r.world.LeaderboardEntries()})
}

// BroadcastDelta 只广播变化的条目；没有变化时不发送
func (r *Room) BroadcastDelta() {
	d, changed := r.tracker.Compute(r.world)
	if !changed {
		return
	}
	r.metrics.IncBroadcast()
	r.sink.Emit(r.ID, EventState, d)
}

func (r *Room) handleJoin(req joinRequest) {
	id := r.resolveID(req.Want)
	if _, ok := r.world.Actor(string(id)); !ok {
		r.world.AddActor(string(id), nil)
	}
	delete(r.unclaimed, id)
	r.players[id] = &Player{ID: id, Conn: req.Conn, JoinedAt: time.Now()}
	r.online.Store(int64(len(r.players)))

	snap := r.world.Snapshot()
	if b, err := EncodeEvent(EventInit, InitMessage{ID: string(id), Frame: r.world.Frame, State: &snap}); err == nil {
		req.Conn.Enqueue(b)
	}
	req.Reply <- id
	Log.Infow("player joined", "room", r.ID, "player", id, "online", len(r.players))
}

// resolveID 等待重连的角色可被认领；未被占用的合法 id 直接使用；否则生成新 id
func (r *Room) resolveID(want PlayerID) PlayerID {
	if want != "" {
		if _, waiting := r.unclaimed[want]; waiting {
			return want
		}
		_, taken := r.world.Actor(string(want))
		if !taken && validPlayerID(want) {
			return want
		}
	}
	for {
		id := PlayerID("p-" + generateCode(6))
		if _, taken := r.world.Actor(string(id)); !taken {
			return id
		}
	}
}

func validPlayerID(id PlayerID) bool {
	s := string(id)
	return len(s) <= 32 && !strings.HasPrefix(s, game.NPCIDPrefix) && !strings.ContainsAny(s, " \t\r\n/\\")
}

func (r *Room) handleLeave(id PlayerID) {
	p, ok := r.players[id]
	if !ok {
		return
	}
	if p.Conn != nil {
		p.Conn.Close()
	}
	delete(r.players, id)
	r.online.Store(int64(len(r.players)))
	r.world.RemoveActor(string(id))
	Log.Infow("player left", "room", r.ID, "player", id, "online", len(r.players))
}

// expireUnclaimed 移除超时未重连的恢复角色
func (r *Room) expireUnclaimed() {
	for id, deadline := range r.unclaimed {
		if r.world.Frame >= deadline {
			r.world.RemoveActor(string(id))
			delete(r.unclaimed, id)
			Log.Infow("unclaimed player dropped", "room", r.ID, "player", id)
		}
	}
}

// SetNPCs 调整 NPC 数量与决策间隔（Tick 协程内调用）
func (r *Room) SetNPCs(count, interval int) {
	if count >= 0 {
		r.npcs = count
	}
	if interval > 0 {
		r.cfg.NPCDecisionInterval = interval
		for _, a := range r.world.Actors() {
			if cp, ok := a.Policy.(*game.ChasePolicy); ok {
				cp.Interval = interval
			}
		}
	}
}

// syncNPCs 补齐或裁减 NPC，保持配置的数量
func (r *Room) syncNPCs() {
	var npcs []*game.Actor
	for _, a := range r.world.Actors() {
		if a.IsNPC() {
			npcs = append(npcs, a)
		}
	}
	for i := len(npcs) - 1; i >= r.npcs; i-- {
		r.world.RemoveActor(npcs[i].ID)
	}
	for n := len(npcs); n < r.npcs; n++ {
		var id string
		for {
			r.npcSeq++
			id = game.NPCIDPrefix + strconv.Itoa(r.npcSeq)
			if _, taken := r.world.Actor(id); !taken {
				break
			}
		}
		r.world.AddActor(id, game.NewChasePolicy("", r.cfg.NPCDecisionInterval))
	}
}

// Snapshot 当前状态（Tick 协程内调用）
func (r *Room) Snapshot() game.Snapshot {
	return r.world.Snapshot()
}

const codeChars = "abcdefghjkmnpqrstuvwxyz23456789"

func generateCode(n int) string {
	b := make([]byte, n)
	limit := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, limit)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
