package websocket

import (
	"errors"
	"sync"
	"time"
)

type frame struct {
	kind int
	data []byte
	err  error
}

// fakeConn records written frames and replays queued reads.
type fakeConn struct {
	mu       sync.Mutex
	written  []frame
	reads    []frame
	closed   bool
	limit    int64
	onPong   func(string) error
	deadline time.Time
}

func (c *fakeConn) WriteMessage(kind int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("write on closed connection")
	}
	c.written = append(c.written, frame{kind: kind, data: data})
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || len(c.reads) == 0 {
		return 0, nil, errors.New("read on drained connection")
	}
	f := c.reads[0]
	c.reads = c.reads[1:]
	return f.kind, f.data, f.err
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) SetReadLimit(limit int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limit = limit
}

func (c *fakeConn) SetPongHandler(h func(string) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPong = h
}

func (c *fakeConn) RemoteAddr() string { return "127.0.0.1:50000" }

func (c *fakeConn) queue(kind int, data []byte, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads = append(c.reads, frame{kind: kind, data: data, err: err})
}

func (c *fakeConn) frames() []frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]frame(nil), c.written...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
