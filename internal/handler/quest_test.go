package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

// drainOutput flushes a session's buffered lines and returns their text.
func drainOutput(sess *net.Session) []string {
	sess.FlushOutput()
	var out []string
	for {
		select {
		case l := <-sess.OutQueue:
			out = append(out, l.Text)
		default:
			return out
		}
	}
}

func TestQuestCommand(t *testing.T) {
	newEnv := func(t *testing.T) (*Deps, *net.Session, *world.User) {
		deps := newTestDeps(t)
		require.NoError(t, deps.World.AddQuest(&world.Quest{
			ID:          "rat_problem",
			Name:        "The Rat Problem",
			Description: "Thin out the rats on the forest road.",
		}))
		sess := newGameSession(deps, 1)
		u := loginUser(t, deps, "alice", sess)
		drainOutput(sess)
		return deps, sess, u
	}

	t.Run("empty log", func(t *testing.T) {
		deps, sess, u := newEnv(t)
		HandleQuest(sess, u, nil, deps)
		out := strings.Join(drainOutput(sess), "\n")
		assert.Contains(t, out, "quest log is empty")
	})

	t.Run("list shows quest names and status", func(t *testing.T) {
		deps, sess, u := newEnv(t)
		u.QuestLog = map[string]string{"rat_problem": world.QuestActive}
		HandleQuest(sess, u, nil, deps)
		out := strings.Join(drainOutput(sess), "\n")
		assert.Contains(t, out, "The Rat Problem [active]")
	})

	t.Run("detail by name", func(t *testing.T) {
		deps, sess, u := newEnv(t)
		u.QuestLog = map[string]string{"rat_problem": world.QuestCompleted}
		HandleQuest(sess, u, []string{"the", "rat"}, deps)
		out := strings.Join(drainOutput(sess), "\n")
		assert.Contains(t, out, "The Rat Problem [completed]")
		assert.Contains(t, out, "Thin out the rats")
	})

	t.Run("detail of an unstarted quest", func(t *testing.T) {
		deps, sess, u := newEnv(t)
		HandleQuest(sess, u, []string{"rat_problem"}, deps)
		out := strings.Join(drainOutput(sess), "\n")
		assert.Contains(t, out, "[not started]")
	})

	t.Run("unknown quest", func(t *testing.T) {
		deps, sess, u := newEnv(t)
		HandleQuest(sess, u, []string{"dragons"}, deps)
		out := strings.Join(drainOutput(sess), "\n")
		assert.Contains(t, out, "No quest by that name.")
	})
}
