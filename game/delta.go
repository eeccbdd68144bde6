package game

// Delta 增量广播：只包含变化或被移除（Value 为 nil）的条目
type Delta struct {
	Frame       int64                    `json:"frame"`
	Players     []Entry[PlayerState]     `json:"players"`
	Projectiles []Entry[ProjectileState] `json:"projectiles"`
}

// DeltaTracker 缓存上一次广播时的公开字段，逐字段比较
type DeltaTracker struct {
	players     ordered[PlayerState]
	projectiles ordered[ProjectileState]
}

func NewDeltaTracker() *DeltaTracker {
	return &DeltaTracker{
		players:     newOrdered[PlayerState](),
		projectiles: newOrdered[ProjectileState](),
	}
}

// Compute 与缓存比较并刷新缓存；没有任何变化时返回 false，不应广播
func (t *DeltaTracker) Compute(w *World) (Delta, bool) {
	d := Delta{
		Frame:       w.Frame,
		Players:     make([]Entry[PlayerState], 0),
		Projectiles: make([]Entry[ProjectileState], 0),
	}

	next := newOrdered[PlayerState]()
	for _, a := range w.Actors() {
		st := a.State()
		next.set(a.ID, st)
		if last, ok := t.players.get(a.ID); !ok || last != st {
			d.Players = append(d.Players, Entry[PlayerState]{ID: a.ID, Value: &st})
		}
	}
	for _, id := range t.players.ids() {
		if _, ok := next.get(id); !ok {
			d.Players = append(d.Players, Entry[PlayerState]{ID: id})
		}
	}
	t.players = next

	nextProj := newOrdered[ProjectileState]()
	for _, p := range w.Projectiles() {
		st := p.State()
		nextProj.set(p.ID, st)
		if last, ok := t.projectiles.get(p.ID); !ok || last != st {
			d.Projectiles = append(d.Projectiles, Entry[ProjectileState]{ID: p.ID, Value: &st})
		}
	}
	for _, id := range t.projectiles.ids() {
		if _, ok := nextProj.get(id); !ok {
			d.Projectiles = append(d.Projectiles, Entry[ProjectileState]{ID: id})
		}
	}
	t.projectiles = nextProj

	return d, len(d.Players) > 0 || len(d.Projectiles) > 0
}
