package net

import "time"

// ConnType identifies the wire protocol behind a Conn.
type ConnType string

const (
	ConnTelnet    ConnType = "telnet"
	ConnWebSocket ConnType = "websocket"
)

// Conn is the transport abstraction both listeners produce. A Conn delivers
// whole input lines (no terminator) and accepts whole output lines. All
// methods except ReadLine may be called from the writer goroutine; ReadLine
// is called only from the session's reader goroutine.
type Conn interface {
	// ReadLine blocks until a full line arrives, the peer disconnects, or
	// the line exceeds the configured maximum (ErrLineTooLong).
	ReadLine() (string, error)

	// WriteLine writes one outbound line. kind distinguishes normal text,
	// system notices and prompts for transports that can frame them.
	WriteLine(kind MessageKind, line string, deadline time.Time) error

	// SetMaskInput toggles client-side input echo (password entry).
	SetMaskInput(mask bool) error

	Type() ConnType
	RemoteAddr() string

	// EnableRawLogging toggles wire-level debug logging for this connection.
	EnableRawLogging(on bool)

	Close() error
}

// MessageKind classifies outbound lines. Telnet renders all kinds the same;
// the WebSocket transport carries the kind in its JSON frame.
type MessageKind string

const (
	KindText   MessageKind = "text"
	KindSystem MessageKind = "system"
	KindPrompt MessageKind = "prompt"
)
