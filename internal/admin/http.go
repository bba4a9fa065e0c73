package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mudgo/server/internal/config"
	coresys "github.com/mudgo/server/internal/core/system"
	"github.com/mudgo/server/internal/handler"
	"github.com/mudgo/server/internal/world"
)

// errBusy is returned when the game loop cannot service an admin request
// in time (stalled tick or shutdown in progress).
var errBusy = errors.New("game loop busy")

const requestTimeout = 5 * time.Second

// Server exposes the admin HTTP API. HTTP handlers run on their own
// goroutines and never touch game state directly: every read or mutation
// is shipped to the game loop as a closure through the request mailbox and
// executed between phases.
type Server struct {
	cfg    *config.Config
	deps   *handler.Deps
	runner *coresys.Runner
	log    *zap.Logger

	tokens   *tokenStore
	requests chan func()
	httpSrv  *http.Server
}

func NewServer(cfg *config.Config, deps *handler.Deps, runner *coresys.Runner, log *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		deps:     deps,
		runner:   runner,
		log:      log.Named("admin"),
		tokens:   newTokenStore(cfg.Admin.TokenLifetime),
		requests: make(chan func(), 64),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.Handle("GET /stats", s.auth(s.handleStats))
	mux.Handle("GET /gametimer-config", s.auth(s.handleGetGameTimer))
	mux.Handle("POST /gametimer-config", s.auth(s.handleSetGameTimer))
	mux.Handle("GET /mud-config", s.auth(s.handleGetMudConfig))
	mux.Handle("POST /mud-config", s.auth(s.handleSetMudConfig))
	mux.Handle("POST /force-save", s.auth(s.handleForceSave))
	mux.Handle("GET /players", s.auth(s.handlePlayersOnline))
	mux.Handle("GET /players/all", s.auth(s.handlePlayersAll))
	mux.Handle("GET /players/details/{u}", s.auth(s.handlePlayerDetails))
	mux.Handle("POST /players/update/{u}", s.auth(s.handlePlayerUpdate))
	mux.Handle("POST /players/{id}/kick", s.auth(s.handlePlayerKick))
	mux.Handle("POST /players/{id}/monitor", s.auth(s.handlePlayerMonitor))
	mux.Handle("DELETE /players/delete/{u}", s.auth(s.handlePlayerDelete))
	mux.Handle("GET /pipeline-metrics", s.auth(s.handlePipelineMetrics))

	s.httpSrv = &http.Server{
		Addr:         cfg.Admin.HTTPAddress,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start binds the listener. Returns the bind error synchronously so a bad
// address fails boot; later serve errors are logged.
func (s *Server) Start() error {
	if s.cfg.Admin.Disabled {
		s.log.Info("admin API disabled by config")
		return nil
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("admin API listening", zap.String("addr", s.httpSrv.Addr))
		errCh <- s.httpSrv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin listener: %w", err)
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cfg.Admin.Disabled {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Drain executes queued admin requests. Called from the game loop each
// tick; this is the only place mailbox closures run.
func (s *Server) Drain() {
	for {
		select {
		case fn := <-s.requests:
			fn()
		default:
			return
		}
	}
}

// do ships a closure to the game loop and waits for it to run.
func (s *Server) do(fn func()) error {
	done := make(chan struct{})
	select {
	case s.requests <- func() { fn(); close(done) }:
	case <-time.After(requestTimeout):
		return errBusy
	}
	select {
	case <-done:
		return nil
	case <-time.After(requestTimeout):
		return errBusy
	}
}

// --- middleware and helpers ---

func (s *Server) auth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.tokens.Check(r); err != nil {
			httpError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) busyOr(w http.ResponseWriter, err error) bool {
	if err != nil {
		httpError(w, http.StatusServiceUnavailable, err.Error())
		return true
	}
	return false
}

// --- authentication ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "malformed body")
		return
	}

	var hash string
	var isAdmin, found bool
	err := s.do(func() {
		if u := s.deps.World.GetUser(world.FoldName(req.Username)); u != nil {
			hash = u.PasswordHash
			isAdmin = u.IsAdmin()
			found = true
		}
	})
	if s.busyOr(w, err) {
		return
	}

	// bcrypt runs here, off the game loop.
	if !found || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil || !isAdmin {
		s.log.Warn("admin login refused", zap.String("user", req.Username), zap.String("ip", r.RemoteAddr))
		httpError(w, http.StatusUnauthorized, "bad credentials")
		return
	}

	token, expires := s.tokens.Issue(world.FoldName(req.Username))
	s.log.Info("admin login", zap.String("user", req.Username))
	writeJSON(w, http.StatusOK, map[string]any{
		"token":   token,
		"expires": expires.UTC().Format(time.RFC3339),
	})
}

// --- server state ---

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var out map[string]any
	err := s.do(func() {
		users := 0
		s.deps.World.AllUsers(func(*world.User) { users++ })
		_, lastTick, ticks := s.runner.PhaseTimings()
		out = map[string]any{
			"name":           s.cfg.Server.Name,
			"uptimeSeconds":  time.Now().Unix() - s.cfg.Server.StartTime,
			"onlinePlayers":  s.deps.World.OnlineCount(),
			"totalUsers":     users,
			"sessions":       s.deps.Sessions.Count(),
			"ticks":          ticks,
			"lastTickMs":     float64(lastTick.Microseconds()) / 1000.0,
			"tickIntervalMs": s.deps.Mud.TickIntervalMS,
			"tickPaused":     s.deps.Mud.TickPaused,
			"storeBackend":   s.cfg.Store.Backend,
		}
	})
	if s.busyOr(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePipelineMetrics(w http.ResponseWriter, r *http.Request) {
	var out map[string]any
	err := s.do(func() {
		phases, lastTick, ticks := s.runner.PhaseTimings()
		ms := make(map[string]float64, len(phases))
		for name, d := range phases {
			ms[name] = float64(d.Microseconds()) / 1000.0
		}
		out = map[string]any{
			"phasesMs":   ms,
			"lastTickMs": float64(lastTick.Microseconds()) / 1000.0,
			"ticks":      ticks,
		}
	})
	if s.busyOr(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// --- runtime config ---

type gameTimerConfig struct {
	TickIntervalMS int  `json:"tickIntervalMs"`
	Paused         bool `json:"paused"`
}

func (s *Server) handleGetGameTimer(w http.ResponseWriter, r *http.Request) {
	var out gameTimerConfig
	err := s.do(func() {
		out = gameTimerConfig{
			TickIntervalMS: s.deps.Mud.TickIntervalMS,
			Paused:         s.deps.Mud.TickPaused,
		}
	})
	if s.busyOr(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetGameTimer(w http.ResponseWriter, r *http.Request) {
	var req gameTimerConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.TickIntervalMS < 100 || req.TickIntervalMS > 60000 {
		httpError(w, http.StatusBadRequest, "tickIntervalMs out of range [100, 60000]")
		return
	}
	var saveErr error
	err := s.do(func() {
		s.deps.Mud.TickIntervalMS = req.TickIntervalMS
		s.deps.Mud.TickPaused = req.Paused
		saveErr = s.deps.Repo.SaveMudConfig(r.Context(), *s.deps.Mud)
	})
	if s.busyOr(w, err) {
		return
	}
	if saveErr != nil {
		s.log.Error("persist gametimer config failed", zap.Error(saveErr))
		httpError(w, http.StatusInternalServerError, "saved in memory, persist failed")
		return
	}
	s.log.Info("gametimer config changed",
		zap.Int("interval_ms", req.TickIntervalMS), zap.Bool("paused", req.Paused))
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleGetMudConfig(w http.ResponseWriter, r *http.Request) {
	var out config.MudConfig
	err := s.do(func() { out = *s.deps.Mud })
	if s.busyOr(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetMudConfig(w http.ResponseWriter, r *http.Request) {
	var req config.MudConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.SaveIntervalTicks < 0 || req.IdleTimeoutSeconds < 0 || req.TickIntervalMS < 0 {
		httpError(w, http.StatusBadRequest, "negative values not allowed")
		return
	}
	var saveErr error
	err := s.do(func() {
		*s.deps.Mud = req
		saveErr = s.deps.Repo.SaveMudConfig(r.Context(), req)
	})
	if s.busyOr(w, err) {
		return
	}
	if saveErr != nil {
		s.log.Error("persist mud config failed", zap.Error(saveErr))
		httpError(w, http.StatusInternalServerError, "saved in memory, persist failed")
		return
	}
	s.log.Info("mud config changed over admin API")
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleForceSave(w http.ResponseWriter, r *http.Request) {
	var users int
	var saveErr error
	err := s.do(func() {
		users, saveErr = s.deps.Repo.SaveDirtyUsers(r.Context(), s.deps.World)
		if saveErr == nil {
			saveErr = s.deps.Repo.SaveWorldState(r.Context(), s.deps.World)
		}
	})
	if s.busyOr(w, err) {
		return
	}
	if saveErr != nil {
		s.log.Error("force save failed", zap.Error(saveErr))
		httpError(w, http.StatusInternalServerError, saveErr.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"savedUsers": users})
}

// --- player endpoints ---

type playerSummary struct {
	Username    string `json:"username"`
	Level       int    `json:"level"`
	ClassID     string `json:"classId"`
	RaceID      string `json:"raceId"`
	RoomID      string `json:"roomId"`
	Health      int    `json:"health"`
	MaxHealth   int    `json:"maxHealth"`
	Online      bool   `json:"online"`
	SessionID   uint64 `json:"sessionId,omitempty"`
	IP          string `json:"ip,omitempty"`
	IdleSeconds int64  `json:"idleSeconds,omitempty"`
}

func (s *Server) summarize(u *world.User) playerSummary {
	p := playerSummary{
		Username:  u.Username,
		Level:     u.Level,
		ClassID:   u.ClassID,
		RaceID:    u.RaceID,
		RoomID:    u.CurrentRoomID,
		Health:    u.Health,
		MaxHealth: u.MaxHealth,
	}
	if sess := s.deps.SessionFor(u.Username); sess != nil {
		p.Online = true
		p.SessionID = sess.ID
		p.IP = sess.IP
		p.IdleSeconds = int64(time.Since(sess.LastActivity()).Seconds())
	}
	return p
}

func (s *Server) handlePlayersOnline(w http.ResponseWriter, r *http.Request) {
	players := []playerSummary{}
	err := s.do(func() {
		s.deps.World.OnlineUsers(func(u *world.User) {
			players = append(players, s.summarize(u))
		})
	})
	if s.busyOr(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (s *Server) handlePlayersAll(w http.ResponseWriter, r *http.Request) {
	players := []playerSummary{}
	err := s.do(func() {
		s.deps.World.AllUsers(func(u *world.User) {
			players = append(players, s.summarize(u))
		})
	})
	if s.busyOr(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (s *Server) handlePlayerDetails(w http.ResponseWriter, r *http.Request) {
	name := world.FoldName(r.PathValue("u"))
	var out *world.User
	err := s.do(func() {
		if u := s.deps.World.GetUser(name); u != nil {
			cp := *u
			cp.PasswordHash = ""
			cp.Salt = ""
			out = &cp
		}
	})
	if s.busyOr(w, err) {
		return
	}
	if out == nil {
		httpError(w, http.StatusNotFound, "no such user")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// playerUpdate carries the editable subset of a user record. Pointer
// fields distinguish "not sent" from zero values.
type playerUpdate struct {
	Level      *int            `json:"level,omitempty"`
	Experience *int64          `json:"experience,omitempty"`
	Health     *int            `json:"health,omitempty"`
	MaxHealth  *int            `json:"maxHealth,omitempty"`
	Stats      *world.Stats    `json:"stats,omitempty"`
	Money      *world.Currency `json:"money,omitempty"`
	RoomID     *string         `json:"roomId,omitempty"`
	Flags      map[string]bool `json:"flags,omitempty"`
}

func (s *Server) handlePlayerUpdate(w http.ResponseWriter, r *http.Request) {
	name := world.FoldName(r.PathValue("u"))
	var req playerUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "malformed body")
		return
	}

	var found bool
	var applyErr error
	err := s.do(func() {
		u := s.deps.World.GetUser(name)
		if u == nil {
			return
		}
		found = true
		if req.Level != nil && *req.Level >= 1 {
			u.Level = *req.Level
		}
		if req.Experience != nil && *req.Experience >= 0 {
			u.Experience = *req.Experience
		}
		if req.MaxHealth != nil && *req.MaxHealth >= 1 {
			u.MaxHealth = *req.MaxHealth
		}
		if req.Health != nil {
			u.Health = min(max(*req.Health, 0), u.MaxHealth)
			u.IsUnconscious = u.Health == 0
		}
		if req.Stats != nil {
			u.Stats = *req.Stats
		}
		if req.Money != nil {
			u.Money = *req.Money
		}
		for flag, on := range req.Flags {
			u.SetFlag(flag, on)
		}
		if req.RoomID != nil {
			if s.deps.World.GetRoom(*req.RoomID) == nil {
				applyErr = fmt.Errorf("no such room %q", *req.RoomID)
				return
			}
			if s.deps.World.IsOnline(u.Username) {
				applyErr = s.deps.World.MoveUser(u, *req.RoomID)
			} else {
				u.CurrentRoomID = *req.RoomID
			}
		}
		u.Dirty = true
	})
	if s.busyOr(w, err) {
		return
	}
	if !found {
		httpError(w, http.StatusNotFound, "no such user")
		return
	}
	if applyErr != nil {
		httpError(w, http.StatusBadRequest, applyErr.Error())
		return
	}
	s.log.Info("player updated over admin API", zap.String("user", name))
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handlePlayerKick(w http.ResponseWriter, r *http.Request) {
	name := world.FoldName(r.PathValue("id"))
	var kicked bool
	err := s.do(func() {
		if sess := s.deps.SessionFor(name); sess != nil {
			sess.SendSystem("You have been disconnected by the staff.")
			sess.Close()
			kicked = true
		}
	})
	if s.busyOr(w, err) {
		return
	}
	if !kicked {
		httpError(w, http.StatusNotFound, "not online")
		return
	}
	s.log.Info("player kicked over admin API", zap.String("user", name))
	writeJSON(w, http.StatusOK, map[string]string{"status": "kicked"})
}

type monitorRequest struct {
	Enabled bool `json:"enabled"`
}

// handlePlayerMonitor toggles wire-level logging on a player's session so
// staff can inspect traffic from the panel. In-game monitoring with live
// mirroring stays on the 'monitor' command.
func (s *Server) handlePlayerMonitor(w http.ResponseWriter, r *http.Request) {
	name := world.FoldName(r.PathValue("id"))
	req := monitorRequest{Enabled: true}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "malformed body")
			return
		}
	}
	var found bool
	err := s.do(func() {
		if sess := s.deps.SessionFor(name); sess != nil {
			sess.EnableRawLogging(req.Enabled)
			found = true
		}
	})
	if s.busyOr(w, err) {
		return
	}
	if !found {
		httpError(w, http.StatusNotFound, "not online")
		return
	}
	s.log.Info("raw logging toggled over admin API",
		zap.String("user", name), zap.Bool("enabled", req.Enabled))
	writeJSON(w, http.StatusOK, map[string]any{"monitoring": req.Enabled})
}

// handlePlayerDelete soft-deletes an account: the session is severed, the
// record is kept with the "deleted" flag set, and login is refused from
// then on.
func (s *Server) handlePlayerDelete(w http.ResponseWriter, r *http.Request) {
	name := world.FoldName(r.PathValue("u"))
	var found bool
	var saveErr error
	err := s.do(func() {
		u := s.deps.World.GetUser(name)
		if u == nil {
			return
		}
		found = true
		if sess := s.deps.SessionFor(name); sess != nil {
			sess.SendSystem("Your account has been deactivated.")
			sess.Close()
		}
		u.SetFlag("deleted", true)
		u.Dirty = true
		saveErr = s.deps.Repo.SaveUser(r.Context(), u)
	})
	if s.busyOr(w, err) {
		return
	}
	if !found {
		httpError(w, http.StatusNotFound, "no such user")
		return
	}
	if saveErr != nil {
		s.log.Error("persist soft delete failed", zap.String("user", name), zap.Error(saveErr))
	}
	s.tokens.Revoke(name)
	s.log.Warn("player soft-deleted over admin API", zap.String("user", name))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
