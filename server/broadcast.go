package server

// Sink 广播出口：向房间内所有成员发送事件
type Sink interface {
	Emit(roomID, event string, payload any)
}

// clientSink 默认出口：编码一次，写入房间内每个连接的发送队列。只能在 Tick 协程调用
type clientSink struct {
	r *Room
}

func (s clientSink) Emit(roomID, event string, payload any) {
	b, err := EncodeEvent(event, payload)
	if err != nil {
		Log.Errorw("encode event failed", "room", roomID, "event", event, "err", err)
		return
	}
	for _, p := range s.r.players {
		if p.Conn != nil {
			p.Conn.Enqueue(b)
		}
	}
}

// teeSink 同时写入多个出口
type teeSink []Sink

func (t teeSink) Emit(roomID, event string, payload any) {
	for _, s := range t {
		s.Emit(roomID, event, payload)
	}
}
