package net

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// SessionState identifies where a session is in the connection state machine.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateLogin
	StateSignup
	StateConfirm
	StateGame
	StateTransfer
	StateEditor
	StateSnake
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateLogin:
		return "LOGIN"
	case StateSignup:
		return "SIGNUP"
	case StateConfirm:
		return "CONFIRMATION"
	case StateGame:
		return "GAME"
	case StateTransfer:
		return "TRANSFER_REQUEST"
	case StateEditor:
		return "EDITOR"
	case StateSnake:
		return "SNAKE_GAME"
	case StateDisconnecting:
		return "DISCONNECTING"
	}
	return "UNKNOWN"
}

// InGame reports whether the state counts as an authenticated in-world state.
func (s SessionState) InGame() bool {
	switch s {
	case StateGame, StateEditor, StateSnake:
		return true
	}
	return false
}

// historyCap bounds the per-session command history ring.
const historyCap = 30

// Line is one buffered outbound line.
type Line struct {
	Kind MessageKind
	Text string
}

// Session represents a single client connection. Network I/O runs in
// dedicated goroutines; all other fields are accessed only from the game
// loop goroutine.
type Session struct {
	ID   uint64
	conn Conn

	state atomic.Int32 // SessionState

	InQueue  chan string // game loop reads input lines from here
	OutQueue chan Line   // writer goroutine reads from here

	IP       string
	Username string // set after authentication, "" before

	ConnectedAt  time.Time
	lastActivity atomic.Int64 // unix nanos, written by readLoop

	outBuf []Line // buffered lines, flushed once per tick (game loop only)

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// Per-second line rate limiter (readLoop goroutine only, no lock needed)
	linesPerSec int
	lineCount   int
	lineResetAt int64

	writeTimeout time.Duration

	// --- Game-loop-only state below. Never touched by I/O goroutines. ---

	// Login/signup scratch
	Attempts     int    // failed password attempts
	PendingName  string // username being logged in / signed up
	PendingPass  string // first password entry during signup
	PendingClass string // class picked during signup
	PendingRace  string // race picked during signup
	SignupStep   int    // confirmation sub-step: 0 retype, 1 class, 2 race

	// Command history ring (raw lines, capacity 30) with recall cursor.
	History             []string
	CurrentHistoryIndex int
	SavedCurrentCommand string

	// Movement delay gate: no movement verb is accepted before this time.
	MoveReadyAt time.Time

	// Admin monitoring/takeover
	Monitors     []*Session // sessions receiving a copy of our output
	TakenOverBy  *Session   // admin session driving our input, nil if none
	Monitoring   *Session   // target we are monitoring (admin side)
	InputBlocked bool       // true while taken over or awaiting transfer

	// Pending transfer handshake (set on the OLD session)
	TransferPeer     *Session // new session waiting for approval
	TransferDeadline time.Time

	log *zap.Logger
}

func NewSession(conn Conn, id uint64, inSize, outSize, linesPerSec int, writeTimeout time.Duration, log *zap.Logger) *Session {
	s := &Session{
		ID:           id,
		conn:         conn,
		InQueue:      make(chan string, inSize),
		OutQueue:     make(chan Line, outSize),
		IP:           conn.RemoteAddr(),
		ConnectedAt:  time.Now(),
		closeCh:      make(chan struct{}),
		linesPerSec:  linesPerSec,
		writeTimeout: writeTimeout,
		log:          log.With(zap.Uint64("session", id)),
	}
	s.state.Store(int32(StateConnecting))
	s.lastActivity.Store(time.Now().UnixNano())
	return s
}

func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) SetState(st SessionState) {
	s.state.Store(int32(st))
}

// ConnType returns the transport behind this session.
func (s *Session) ConnType() ConnType { return s.conn.Type() }

// SetMaskInput toggles password masking on the underlying transport.
func (s *Session) SetMaskInput(mask bool) {
	if err := s.conn.SetMaskInput(mask); err != nil && !s.closed.Load() {
		s.log.Debug("mask negotiation failed", zap.Error(err))
	}
}

// EnableRawLogging toggles wire-level logging on the transport.
func (s *Session) EnableRawLogging(on bool) { s.conn.EnableRawLogging(on) }

// LastActivity returns the time of the last input line from the client.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// Touch resets the idle clock. Called by readLoop on every input line.
func (s *Session) Touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send buffers an outbound line. Lines are not written to the wire until
// FlushOutput runs at the output phase. Monitoring admins receive a copy.
// Called only from the game loop goroutine — no lock needed on outBuf.
func (s *Session) Send(text string) { s.SendKind(KindText, text) }

// SendSystem buffers a system-notice line.
func (s *Session) SendSystem(text string) { s.SendKind(KindSystem, text) }

// SendPrompt buffers a prompt line.
func (s *Session) SendPrompt(text string) { s.SendKind(KindPrompt, text) }

func (s *Session) SendKind(kind MessageKind, text string) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, Line{Kind: kind, Text: text})
	for _, m := range s.Monitors {
		if !m.closed.Load() {
			m.outBuf = append(m.outBuf, Line{Kind: KindSystem, Text: "[" + s.describe() + "] " + text})
		}
	}
}

func (s *Session) describe() string {
	if s.Username != "" {
		return s.Username
	}
	return s.IP
}

// FlushOutput drains the output buffer to OutQueue for the writer goroutine.
// Non-blocking: if OutQueue is full the client cannot drain fast enough and
// the session is disconnected (backpressure).
func (s *Session) FlushOutput() {
	for _, line := range s.outBuf {
		select {
		case s.OutQueue <- line:
		default:
			s.log.Warn("output queue full, dropping slow connection")
			s.Close()
			s.outBuf = s.outBuf[:0]
			return
		}
	}
	s.outBuf = s.outBuf[:0]
}

// Close shuts the session down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// RecordHistory appends a raw command line to the bounded history ring and
// resets the recall cursor. Game loop only.
func (s *Session) RecordHistory(line string) {
	s.History = append(s.History, line)
	if len(s.History) > historyCap {
		s.History = s.History[len(s.History)-historyCap:]
	}
	s.CurrentHistoryIndex = len(s.History)
	s.SavedCurrentCommand = ""
}

// readLoop runs in its own goroutine. It reads lines from the transport and
// pushes them onto InQueue for the game loop to consume.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		line, err := s.conn.ReadLine()
		if err != nil {
			if err == ErrLineTooLong {
				s.log.Warn("oversized input line, terminating session")
			} else if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}

		s.Touch()

		// Per-second line rate limiter
		if s.linesPerSec > 0 {
			now := time.Now().Unix()
			if now != s.lineResetAt {
				s.lineCount = 0
				s.lineResetAt = now
			}
			s.lineCount++
			if s.lineCount > s.linesPerSec {
				s.log.Warn("input rate limit exceeded, terminating session", zap.Int("lps", s.lineCount))
				return
			}
		}

		// Block until InQueue has space or the session closes. The reader
		// goroutine is per-session, so blocking here only stalls this client.
		select {
		case s.InQueue <- line:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop runs in its own goroutine. It reads buffered lines from OutQueue
// and writes them to the transport with a write deadline.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case line := <-s.OutQueue:
			deadline := time.Now().Add(s.writeTimeout)
			if err := s.conn.WriteLine(line.Kind, line.Text, deadline); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
