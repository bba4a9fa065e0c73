package handler

import (
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mudgo/server/internal/config"
	"github.com/mudgo/server/internal/core/event"
	"github.com/mudgo/server/internal/net"
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

func newTestDeps(t *testing.T) *Deps {
	t.Helper()
	st := world.NewState()
	require.NoError(t, st.AddRoom(&world.Room{ID: "town_square", Name: "Town Square"}))

	return &Deps{
		Config:   config.Defaults(),
		Mud:      &config.MudConfig{},
		Log:      zap.NewNop(),
		World:    st,
		Sessions: net.NewSessionStore(),
		Bus:      event.NewBus(),
		Registry: NewRegistry(),
		Rand:     rand.New(rand.NewSource(1)),
		Editors:  map[uint64]*EditorSession{},
		Snakes:   map[uint64]*SnakeGame{},
		Tick:     func() int64 { return 0 },
		RequestShutdown: func(string) {},
	}
}

func newGameSession(deps *Deps, id uint64) *net.Session {
	sess := net.NewSession(newFakeConn(), id, 16, 64, 0, time.Second, zap.NewNop())
	deps.Sessions.Add(sess)
	return sess
}

func loginUser(t *testing.T, deps *Deps, name string, sess *net.Session) *world.User {
	t.Helper()
	u := &world.User{Username: name, Health: 30, MaxHealth: 30, Level: 1}
	require.NoError(t, deps.World.AddUser(u))
	enterGame(sess, u, deps)
	return u
}

func pendingTransfer(t *testing.T, deps *Deps) (old, peer *net.Session, u *world.User) {
	t.Helper()
	old = newGameSession(deps, 1)
	u = loginUser(t, deps, "alice", old)
	peer = newGameSession(deps, 2)
	startTransfer(old, peer, u, deps)
	return old, peer, u
}

func TestTransferHandshake(t *testing.T) {
	t.Run("start blocks the peer and questions the old session", func(t *testing.T) {
		deps := newTestDeps(t)
		old, peer, _ := pendingTransfer(t, deps)

		assert.Equal(t, net.StateTransfer, old.State())
		assert.Same(t, peer, old.TransferPeer)
		assert.True(t, peer.InputBlocked)
		assert.False(t, peer.IsClosed())
	})

	t.Run("approval hands the character over", func(t *testing.T) {
		deps := newTestDeps(t)
		old, peer, u := pendingTransfer(t, deps)

		handleTransferAnswer(old, "y", deps)

		assert.True(t, old.IsClosed())
		assert.Empty(t, old.Username)
		assert.Equal(t, net.StateGame, peer.State())
		assert.Equal(t, "alice", peer.Username)
		assert.False(t, peer.InputBlocked)
		assert.Equal(t, peer.ID, deps.World.OnlineSession("alice"))
		assert.True(t, deps.World.IsOnline(u.Username))
	})

	t.Run("refusal sends the peer back to login and resumes the old session", func(t *testing.T) {
		deps := newTestDeps(t)
		old, peer, _ := pendingTransfer(t, deps)

		handleTransferAnswer(old, "no", deps)

		assert.False(t, peer.IsClosed())
		assert.Equal(t, net.StateLogin, peer.State())
		assert.False(t, peer.InputBlocked)
		assert.False(t, old.IsClosed())
		assert.Equal(t, net.StateGame, old.State())
		assert.Nil(t, old.TransferPeer)
		assert.Equal(t, old.ID, deps.World.OnlineSession("alice"))
	})

	t.Run("garbage answers re-prompt", func(t *testing.T) {
		deps := newTestDeps(t)
		old, peer, _ := pendingTransfer(t, deps)

		handleTransferAnswer(old, "maybe", deps)

		assert.Equal(t, net.StateTransfer, old.State())
		assert.Same(t, peer, old.TransferPeer)
		assert.False(t, peer.IsClosed())
	})

	t.Run("second concurrent transfer is refused", func(t *testing.T) {
		deps := newTestDeps(t)
		old, _, u := pendingTransfer(t, deps)

		third := newGameSession(deps, 3)
		startTransfer(old, third, u, deps)
		assert.True(t, third.IsClosed())
	})

	t.Run("both sessions dead logs the character out", func(t *testing.T) {
		deps := newTestDeps(t)
		old, peer, u := pendingTransfer(t, deps)
		old.Close()
		peer.Close()

		CompleteTransfer(old, deps)

		assert.False(t, deps.World.IsOnline(u.Username), "no ghost left in the online set")
		assert.NotContains(t, deps.World.PlayersInRoom("town_square"), u.Username)
	})

	t.Run("dead peer cancels on answer", func(t *testing.T) {
		deps := newTestDeps(t)
		old, peer, _ := pendingTransfer(t, deps)
		peer.Close()

		handleTransferAnswer(old, "y", deps)
		assert.Equal(t, net.StateGame, old.State())
		assert.Nil(t, old.TransferPeer)
		assert.False(t, old.IsClosed())
		assert.Equal(t, old.ID, deps.World.OnlineSession("alice"))
	})
}

func TestTransferTimeout(t *testing.T) {
	t.Run("expired handshake approves the takeover", func(t *testing.T) {
		deps := newTestDeps(t)
		old, peer, _ := pendingTransfer(t, deps)
		old.TransferDeadline = time.Now().Add(-time.Second)

		CheckTransferTimeouts(deps)

		assert.True(t, old.IsClosed())
		assert.Equal(t, "alice", peer.Username)
		assert.Equal(t, peer.ID, deps.World.OnlineSession("alice"))
	})

	t.Run("unexpired handshake is untouched", func(t *testing.T) {
		deps := newTestDeps(t)
		old, peer, _ := pendingTransfer(t, deps)

		CheckTransferTimeouts(deps)

		assert.False(t, old.IsClosed())
		assert.False(t, peer.IsClosed())
		assert.Equal(t, net.StateTransfer, old.State())
	})

	t.Run("expired handshake with a dead peer cancels", func(t *testing.T) {
		deps := newTestDeps(t)
		old, peer, _ := pendingTransfer(t, deps)
		peer.Close()
		old.TransferDeadline = time.Now().Add(-time.Second)

		CheckTransferTimeouts(deps)

		assert.False(t, old.IsClosed())
		assert.Equal(t, net.StateGame, old.State())
		assert.Equal(t, old.ID, deps.World.OnlineSession("alice"))
	})
}
