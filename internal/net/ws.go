package net

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// wsInbound is one input line from a WebSocket client.
type wsInbound struct {
	Input string `json:"input"`
}

// wsOutbound is one outbound frame to a WebSocket client.
type wsOutbound struct {
	Type string `json:"type"` // "text", "system" or "prompt"
	Data string `json:"data"`
}

// wsConn adapts a websocket connection to the Conn interface: one JSON
// message per input line, one JSON frame per output line.
type wsConn struct {
	conn    *websocket.Conn
	maxLine int

	mu     sync.Mutex // gorilla allows one concurrent writer
	masked atomic.Bool
	rawLog atomic.Bool
	log    *zap.Logger
}

func newWSConn(conn *websocket.Conn, maxLine int, log *zap.Logger) *wsConn {
	return &wsConn{conn: conn, maxLine: maxLine, log: log}
}

func (c *wsConn) ReadLine() (string, error) {
	var msg wsInbound
	if err := c.conn.ReadJSON(&msg); err != nil {
		return "", fmt.Errorf("read frame: %w", err)
	}
	if len(msg.Input) > c.maxLine {
		return "", ErrLineTooLong
	}
	if c.rawLog.Load() {
		c.log.Debug("RX", zap.String("line", msg.Input))
	}
	return msg.Input, nil
}

func (c *wsConn) WriteLine(kind MessageKind, line string, deadline time.Time) error {
	if c.rawLog.Load() {
		c.log.Debug("TX", zap.String("line", line))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(deadline)
	return c.conn.WriteJSON(wsOutbound{Type: string(kind), Data: line})
}

// SetMaskInput records the masking state; the browser client masks locally
// when it sees a prompt frame while masking is on, so there is nothing to
// negotiate on the wire.
func (c *wsConn) SetMaskInput(mask bool) error {
	c.masked.Store(mask)
	return nil
}

func (c *wsConn) Type() ConnType      { return ConnWebSocket }
func (c *wsConn) RemoteAddr() string  { return c.conn.RemoteAddr().String() }
func (c *wsConn) EnableRawLogging(on bool) { c.rawLog.Store(on) }

func (c *wsConn) Close() error { return c.conn.Close() }
