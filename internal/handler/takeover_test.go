package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

func TestTakeoverDispatchesWithDriverElevation(t *testing.T) {
	deps := newTestDeps(t)
	var ranAs string
	deps.Registry.Register(&Command{
		Name: "reveal", AdminOnly: true,
		Fn: func(_ *net.Session, u *world.User, _ []string, _ *Deps) { ranAs = u.Username },
	})

	adminSess := newGameSession(deps, 1)
	admin := loginUser(t, deps, "boss", adminSess)
	admin.Flags = map[string]bool{"admin": true}

	targetSess := newGameSession(deps, 2)
	target := loginUser(t, deps, "pat", targetSess)
	require.False(t, target.IsAdmin())

	HandleTakeover(adminSess, admin, []string{"pat"}, deps)
	require.Same(t, adminSess, targetSess.TakenOverBy)

	consumed := ForwardTakenOverLine(adminSess, "reveal", deps)
	assert.True(t, consumed)
	assert.Equal(t, "pat", ranAs, "admin verbs run as the target while driving")

	consumed = ForwardTakenOverLine(adminSess, "release", deps)
	assert.True(t, consumed)
	assert.Nil(t, targetSess.TakenOverBy)
}
