package game

// TickResult 一个 Tick 的可观察结果
type TickResult struct {
	Frame    int64
	Outcomes []InputResult
	Kills    []KillEvent
	Blocks   int
	Expired  int
}

// Step 执行一个完整的 Tick（不含广播）：
// 策略决策 → 输入 → 计时器衰减 → 弹丸推进 → 碰撞结算 → 帧号自增
func (w *World) Step(inputs []QueuedInput) TickResult {
	var res TickResult

	for _, a := range w.Actors() {
		if a.Policy == nil {
			continue
		}
		for _, in := range a.Policy.Decide(w, a) {
			res.Outcomes = append(res.Outcomes, InputResult{ActorID: a.ID, Input: in, Outcome: w.Apply(a.ID, in)})
		}
	}
	for _, q := range inputs {
		res.Outcomes = append(res.Outcomes, InputResult{ActorID: q.ActorID, Input: q.Input, Outcome: w.Apply(q.ActorID, q.Input)})
	}

	for _, a := range w.Actors() {
		a.decayTimers()
	}

	for _, p := range w.Projectiles() {
		if p.Advance() {
			w.projectiles.del(p.ID)
			res.Expired++
		}
	}

	w.resolveCollisions(&res)

	w.Frame++
	res.Frame = w.Frame
	return res
}

// resolveCollisions 每个弹丸按角色顺序检测，遇到第一次格挡或命中即停止
func (w *World) resolveCollisions(res *TickResult) {
	for _, p := range w.Projectiles() {
		for _, a := range w.Actors() {
			switch Resolve(p, a, w.Grid) {
			case Blocked:
				res.Blocks++
			case Hit:
				res.Kills = append(res.Kills, w.kill(p, a))
			default:
				continue
			}
			break
		}
	}
}

// kill 结算一次直接命中；排行榜条目缺失时跳过对应更新
func (w *World) kill(p *Projectile, victim *Actor) KillEvent {
	victim.HitBlink = HitBlinkTicks
	w.projectiles.del(p.ID)

	ev := KillEvent{KillerID: p.ShooterID, VictimID: victim.ID}
	if e, ok := w.leaderboard.get(p.ShooterID); ok {
		e.Kills++
		e.Streak++
		ev.Streak = e.Streak
	}
	// 角色连杀只镜像排行榜，条目缺失时不变
	if killer, ok := w.actors.get(p.ShooterID); ok {
		if e, ok := w.leaderboard.get(killer.ID); ok {
			killer.Streak = e.Streak
		}
	}
	if e, ok := w.leaderboard.get(victim.ID); ok {
		e.Streak = 0
	}
	victim.Streak = 0
	victim.Respawn(w)
	return ev
}
