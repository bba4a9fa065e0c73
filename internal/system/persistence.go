package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/mudgo/server/internal/core/system"
	"github.com/mudgo/server/internal/handler"
)

// PersistenceSystem batch-saves dirty users and the world snapshot every
// save interval. Marshalling happens on the game loop (the only safe place
// to read game state); the store write itself is quick for the file
// backend and batched for SQL.
type PersistenceSystem struct {
	deps *handler.Deps
}

func NewPersistenceSystem(deps *handler.Deps) *PersistenceSystem {
	return &PersistenceSystem{deps: deps}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	interval := s.deps.Mud.SaveIntervalTicks
	if interval <= 0 {
		interval = s.deps.Config.Game.SaveIntervalTicks
	}
	tick := s.deps.Tick()
	if tick == 0 || tick%int64(interval) != 0 {
		return
	}
	s.SaveNow()
}

// SaveNow flushes dirty users and the world state immediately. Also called
// directly on shutdown.
func (s *PersistenceSystem) SaveNow() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	n, err := s.deps.Repo.SaveDirtyUsers(ctx, s.deps.World)
	if err != nil {
		s.deps.Log.Error("autosave users failed", zap.Error(err))
		return
	}
	if err := s.deps.Repo.SaveWorldState(ctx, s.deps.World); err != nil {
		s.deps.Log.Error("autosave world failed", zap.Error(err))
		return
	}
	s.deps.Log.Info("autosave",
		zap.Int("users", n),
		zap.Duration("took", time.Since(start)),
	)
}
