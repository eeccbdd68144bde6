package server

import "time"

// TickInterval 根据 TickHz 计算 Tick 周期
func (c Config) TickInterval() time.Duration {
	hz := c.TickHz
	if hz <= 0 {
		hz = DefaultConfig().TickHz
	}
	return time.Second / time.Duration(hz)
}

// StartTicker 启动房间的 Tick 循环（单线程推进世界）
func (r *Room) StartTicker() {
	r.life.Lock()
	if r.started || r.stopped {
		r.life.Unlock()
		return
	}
	r.started = true
	r.life.Unlock()
	interval := r.cfg.TickInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(r.done)
		for {
			select {
			case <-r.quit:
				r.shutdown()
				return
			case <-ticker.C:
				// 核心循环：处理输入 → 更新世界 → 广播结果
				start := time.Now()
				r.Tick()
				elapsed := time.Since(start)
				r.metrics.AddTick(elapsed.Nanoseconds())
				if elapsed > interval {
					r.metrics.IncSlowTick()
					Log.Warnw("slow tick", "room", r.ID, "frame", r.world.Frame, "elapsed", elapsed)
				}
			}
		}
	}()
	Log.Infow("room ticker started", "room", r.ID, "interval", interval)
}

// Stop 停止 Tick 循环并等待收尾（保存快照、关闭连接）。可重复调用
func (r *Room) Stop() {
	r.life.Lock()
	inline := false
	if !r.stopped {
		r.stopped = true
		close(r.quit)
		// 未启动 Tick 协程时在当前协程收尾
		inline = !r.started
	}
	r.life.Unlock()
	if inline {
		r.shutdown()
		close(r.done)
	}
	<-r.done
}

// Done 在房间完全停止后关闭
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) shutdown() {
	if r.OnStop != nil {
		r.OnStop(r)
	}
	for id, p := range r.players {
		if p.Conn != nil {
			p.Conn.Close()
		}
		delete(r.players, id)
	}
	r.online.Store(0)
	Log.Infow("room stopped", "room", r.ID, "frame", r.world.Frame)
}
