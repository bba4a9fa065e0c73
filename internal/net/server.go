package net

import (
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/mudgo/server/internal/config"
	"go.uber.org/zap"
)

// Server accepts inbound connections on both transports and creates
// Sessions. New/dead sessions are communicated to the game loop via
// channels; the game loop owns every session after Add.
type Server struct {
	telnetLn net.Listener
	nextID   atomic.Uint64
	newConns chan *Session
	deadCh   chan uint64 // session IDs of dead sessions
	netCfg   config.NetworkConfig
	rlCfg    config.RateLimitConfig
	upgrader websocket.Upgrader
	log      *zap.Logger
	closeCh  chan struct{}
}

func NewServer(netCfg config.NetworkConfig, rlCfg config.RateLimitConfig, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", netCfg.TelnetAddress)
	if err != nil {
		return nil, fmt.Errorf("bind telnet %s: %w", netCfg.TelnetAddress, err)
	}
	s := &Server{
		telnetLn: ln,
		newConns: make(chan *Session, 64),
		deadCh:   make(chan uint64, 64),
		netCfg:   netCfg,
		rlCfg:    rlCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same-origin enforcement is the admin UI's concern; the game
			// protocol is account-authenticated.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:     log,
		closeCh: make(chan struct{}),
	}
	return s, nil
}

// AcceptLoop runs in its own goroutine. It accepts telnet connections,
// creates sessions, and pushes them onto the newConns channel.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.telnetLn.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return // server shutting down
			default:
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}
		s.admit(newTelnetConn(conn, s.netCfg.MaxLineBytes, s.log))
	}
}

// WebSocketHandler returns the HTTP handler that upgrades requests to the
// WebSocket transport and funnels them into the same session pipeline.
func (s *Server) WebSocketHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-s.closeCh:
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		default:
		}
		ws, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		s.admit(newWSConn(ws, s.netCfg.MaxLineBytes, s.log))
	})
}

func (s *Server) admit(conn Conn) {
	id := s.nextID.Add(1)
	lps := 0
	if s.rlCfg.Enabled {
		lps = s.rlCfg.LinesPerSecond
	}
	sess := NewSession(conn, id, s.netCfg.InQueueSize, s.netCfg.OutQueueSize, lps, s.netCfg.WriteTimeout, s.log)
	sess.Start()

	s.log.Info("client connected",
		zap.Uint64("session", id),
		zap.String("transport", string(conn.Type())),
		zap.String("ip", sess.IP),
	)

	select {
	case s.newConns <- sess:
	default:
		s.log.Warn("connection queue full, rejecting new connection")
		sess.Close()
	}
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// NotifyDead reports a dead session ID to the game loop.
func (s *Server) NotifyDead(sessionID uint64) {
	select {
	case s.deadCh <- sessionID:
	default:
	}
}

// DeadSessions returns the channel of dead session IDs.
func (s *Server) DeadSessions() <-chan uint64 {
	return s.deadCh
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() {
	close(s.closeCh)
	s.telnetLn.Close()
}

// Addr returns the telnet listener's address.
func (s *Server) Addr() net.Addr {
	return s.telnetLn.Addr()
}
