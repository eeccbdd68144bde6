package server

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"orbarena/game"
)

// fakeConn 记录下发的消息
type fakeConn struct {
	mu     sync.Mutex
	msgs   [][]byte
	closed bool
}

func (c *fakeConn) Enqueue(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, b)
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) Messages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.msgs...)
}

func (c *fakeConn) Last() []byte {
	msgs := c.Messages()
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func (c *fakeConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type emitted struct {
	Event   string
	Payload any
}

// recorder 记录房间发出的事件
type recorder struct {
	mu     sync.Mutex
	events []emitted
}

func (r *recorder) Emit(_ string, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{Event: event, Payload: payload})
}

func (r *recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Event
	}
	return out
}

func (r *recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// testRoom 北向一格可走：(0,0) 与 (0,-1)，出生点固定在原点
func testRoom(cfg Config) *Room {
	cfg = cfg.Sanitize()
	tiles := map[game.Cell]game.Tile{{X: 0, Y: 0}: {}, {X: 0, Y: -1}: {}}
	w := game.NewWorldWithGrid(1, game.NewGridWithTiles(cfg.WorldSize, cfg.TileSize, tiles))
	w.SetSpawner(func() game.Cell { return game.Cell{} })
	return newRoom("test", cfg, w)
}

// joinSync 在测试协程里代替 Tick 协程处理加入请求
func joinSync(t *testing.T, r *Room, c Conn, want PlayerID) PlayerID {
	t.Helper()
	ch := make(chan PlayerID, 1)
	errCh := make(chan error, 1)
	go func() {
		id, err := r.JoinPlayer(c, want)
		if err != nil {
			errCh <- err
			return
		}
		ch <- id
	}()
	deadline := time.After(time.Second)
	for {
		r.ProcessInputs()
		select {
		case id := <-ch:
			return id
		case err := <-errCh:
			require.NoError(t, err)
		case <-deadline:
			t.Fatal("join timed out")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
