package system

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mudgo/server/internal/config"
	"github.com/mudgo/server/internal/core/event"
	"github.com/mudgo/server/internal/data"
	"github.com/mudgo/server/internal/handler"
	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/scripting"
	"github.com/mudgo/server/internal/world"
)

// fakeConn satisfies net.Conn without a socket. ReadLine blocks until Close.
type fakeConn struct {
	closeCh chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{closeCh: make(chan struct{})}
}

func (c *fakeConn) ReadLine() (string, error) {
	<-c.closeCh
	return "", os.ErrClosed
}

func (c *fakeConn) WriteLine(_ net.MessageKind, _ string, _ time.Time) error { return nil }
func (c *fakeConn) SetMaskInput(bool) error                                  { return nil }
func (c *fakeConn) Type() net.ConnType                                       { return net.ConnTelnet }
func (c *fakeConn) RemoteAddr() string                                       { return "test:0" }
func (c *fakeConn) EnableRawLogging(bool)                                    {}

func (c *fakeConn) Close() error {
	select {
	case <-c.closeCh:
	default:
		close(c.closeCh)
	}
	return nil
}

// testEnv wires a minimal world and deps for system tests: one town room,
// one forest room, a rat template and a single online user.
type testEnv struct {
	deps *handler.Deps
	tick int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := world.NewState()
	require.NoError(t, st.AddRoom(&world.Room{ID: "square", Name: "Square", Flags: []string{"safe"}}))
	require.NoError(t, st.AddRoom(&world.Room{ID: "forest", Name: "Forest"}))
	require.NoError(t, st.AddNpcTemplate(&world.NpcTemplate{
		ID: "rat", Name: "a rat", MaxHealth: 20,
		DamageMin: 3, DamageMax: 3, Agility: 5, Hostile: true,
		XPValue: 1200, RespawnTicks: 4,
		Loot: map[string]int{"pelt": 100},
	}))
	require.NoError(t, st.AddItemTemplate(&world.ItemTemplate{
		ID: "pelt", Name: "a pelt", Type: world.ItemMisc,
	}))
	require.NoError(t, st.AddItemTemplate(&world.ItemTemplate{
		ID: "fang_blade", Name: "a fang blade", Type: world.ItemWeapon,
		Slot: world.SlotMainHand, Damage: 2, ProcEffect: "fang_venom",
	}))

	abilities := filepath.Join(t.TempDir(), "abilities.yaml")
	require.NoError(t, os.WriteFile(abilities, []byte(`
abilities:
  - id: fang_venom
    name: Fang Venom
    effect:
      type: POISON
      duration_ticks: 4
      tick_interval: 1
      damage_per_tick: 2
      stacking: REFRESH
`), 0o644))
	abilityTable, err := data.LoadAbilityTable(abilities)
	require.NoError(t, err)

	engine, err := scripting.NewEngine(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	cfg := config.Defaults()
	mud := config.DefaultMudConfig(cfg)

	env := &testEnv{}
	env.deps = &handler.Deps{
		Config:          cfg,
		Mud:             &mud,
		Log:             zap.NewNop(),
		World:           st,
		Tables:          &data.Tables{Abilities: abilityTable},
		Scripting:       engine,
		Sessions:        net.NewSessionStore(),
		Bus:             event.NewBus(),
		Registry:        handler.NewRegistry(),
		Rand:            rand.New(rand.NewSource(1)),
		Editors:         map[uint64]*handler.EditorSession{},
		Snakes:          map[uint64]*handler.SnakeGame{},
		Tick:            func() int64 { return env.tick },
		RequestShutdown: func(string) {},
	}
	return env
}

// addUser creates and logs in a user, with a live session when withSession
// is set.
func (e *testEnv) addUser(t *testing.T, name string, sessionID uint64, withSession bool) *world.User {
	t.Helper()
	u := &world.User{
		Username: name, Health: 40, MaxHealth: 40, Level: 1,
		Stats:         world.Stats{Strength: 10, Dexterity: 30, Agility: 10, Constitution: 10},
		ClassID:       "warrior",
		MaxResource:   100,
		CurrentRoomID: "forest",
	}
	require.NoError(t, e.deps.World.AddUser(u))
	e.deps.World.SetUserOnline(u, sessionID, "forest")
	if withSession {
		sess := net.NewSession(newFakeConn(), sessionID, 16, 64, 0, time.Second, zap.NewNop())
		sess.SetState(net.StateGame)
		sess.Username = u.Username
		e.deps.Sessions.Add(sess)
	}
	return u
}
