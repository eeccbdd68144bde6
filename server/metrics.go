package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	TickCount         int64 // 统计的 Tick 次数
	InputsAccepted    int64 // 执行成功的输入数
	InputsRejected    int64 // 被拒绝的输入数（撞墙、无 orb、角色已离开）
	OldSeqIgnored     int64 // 因旧序列被忽略的输入数
	BadMessages       int64 // 无法解析的入站消息
	ChanFullDiscarded int64 // 因通道满被丢弃的输入数
	Kills             int64
	Blocks            int64
	Broadcasts        int64 // 实际发出的增量广播
	SlowTicks         int64 // 超过 Tick 周期的次数
	TotalTickNs       int64 // Tick 累计耗时（纳秒）
}

func (m *RoomMetrics) IncAccepted()          { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *RoomMetrics) IncRejected()          { atomic.AddInt64(&m.InputsRejected, 1) }
func (m *RoomMetrics) IncOldSeqIgnored()     { atomic.AddInt64(&m.OldSeqIgnored, 1) }
func (m *RoomMetrics) IncBadMessage()        { atomic.AddInt64(&m.BadMessages, 1) }
func (m *RoomMetrics) IncChanFullDiscarded() { atomic.AddInt64(&m.ChanFullDiscarded, 1) }
func (m *RoomMetrics) IncBroadcast()         { atomic.AddInt64(&m.Broadcasts, 1) }
func (m *RoomMetrics) IncSlowTick()          { atomic.AddInt64(&m.SlowTicks, 1) }
func (m *RoomMetrics) AddKills(n int)        { atomic.AddInt64(&m.Kills, int64(n)) }
func (m *RoomMetrics) AddBlocks(n int)       { atomic.AddInt64(&m.Blocks, int64(n)) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":          tick,
		"inputs_accepted":     atomic.LoadInt64(&m.InputsAccepted),
		"inputs_rejected":     atomic.LoadInt64(&m.InputsRejected),
		"old_seq_ignored":     atomic.LoadInt64(&m.OldSeqIgnored),
		"bad_messages":        atomic.LoadInt64(&m.BadMessages),
		"chan_full_discarded": atomic.LoadInt64(&m.ChanFullDiscarded),
		"kills":               atomic.LoadInt64(&m.Kills),
		"blocks":              atomic.LoadInt64(&m.Blocks),
		"broadcasts":          atomic.LoadInt64(&m.Broadcasts),
		"slow_ticks":          atomic.LoadInt64(&m.SlowTicks),
		"avg_tick_ms":         avgMs,
	}
}
