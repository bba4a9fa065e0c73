package net

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// telnetConn adapts a raw TCP connection to the Conn interface. Lines are
// CRLF-terminated ASCII; ANSI SGR escapes in outbound text pass through
// untouched.
type telnetConn struct {
	conn    net.Conn
	br      *bufio.Reader
	maxLine int

	mu     sync.Mutex // protects conn writes (WriteLine vs SetMaskInput)
	rawLog atomic.Bool
	log    *zap.Logger
}

func newTelnetConn(conn net.Conn, maxLine int, log *zap.Logger) *telnetConn {
	return &telnetConn{
		conn:    conn,
		br:      bufio.NewReaderSize(conn, 1024),
		maxLine: maxLine,
		log:     log,
	}
}

func (c *telnetConn) ReadLine() (string, error) {
	line, err := readTelnetLine(c.br, c.maxLine)
	if err != nil {
		return "", err
	}
	if c.rawLog.Load() {
		c.log.Debug("RX", zap.String("line", line))
	}
	return line, nil
}

func (c *telnetConn) WriteLine(_ MessageKind, line string, deadline time.Time) error {
	if c.rawLog.Load() {
		c.log.Debug("TX", zap.String("line", line))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(deadline)
	_, err := c.conn.Write(append([]byte(line), '\r', '\n'))
	return err
}

func (c *telnetConn) SetMaskInput(mask bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return writeEchoNegotiation(c.conn, mask)
}

func (c *telnetConn) Type() ConnType      { return ConnTelnet }
func (c *telnetConn) RemoteAddr() string  { return c.conn.RemoteAddr().String() }
func (c *telnetConn) EnableRawLogging(on bool) { c.rawLog.Store(on) }

func (c *telnetConn) Close() error { return c.conn.Close() }
