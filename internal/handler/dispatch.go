package handler

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

// HandlerFunc is one game command. Runs on the game loop goroutine.
type HandlerFunc func(sess *net.Session, u *world.User, args []string, deps *Deps)

// Command describes one registered game command.
type Command struct {
	Name      string
	Aliases   []string
	AdminOnly bool
	Help      string
	Fn        HandlerFunc
}

// Registry maps verbs to commands. Built once at boot, read-only after.
type Registry struct {
	byName  map[string]*Command
	byAlias map[string]*Command
	ordered []*Command
}

func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]*Command),
		byAlias: make(map[string]*Command),
	}
}

func (r *Registry) Register(cmd *Command) {
	if _, dup := r.byName[cmd.Name]; dup {
		panic(fmt.Sprintf("duplicate command %q", cmd.Name))
	}
	r.byName[cmd.Name] = cmd
	r.ordered = append(r.ordered, cmd)
	for _, a := range cmd.Aliases {
		if _, dup := r.byAlias[a]; dup {
			panic(fmt.Sprintf("duplicate alias %q", a))
		}
		r.byAlias[a] = cmd
	}
}

// Commands lists registered commands in registration order, optionally
// including admin-only ones.
func (r *Registry) Commands(includeAdmin bool) []*Command {
	out := make([]*Command, 0, len(r.ordered))
	for _, c := range r.ordered {
		if c.AdminOnly && !includeAdmin {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Resolve maps a typed verb to a command. Resolution order: exact name,
// exact alias, then unique prefix over command names the user can see.
// Admin-only commands are invisible to non-admins at every step, so their
// existence never leaks through prefix matching.
func (r *Registry) Resolve(verb string, admin bool) (*Command, []string) {
	if cmd, ok := r.byName[verb]; ok && (admin || !cmd.AdminOnly) {
		return cmd, nil
	}
	if cmd, ok := r.byAlias[verb]; ok && (admin || !cmd.AdminOnly) {
		return cmd, nil
	}

	var matches []*Command
	for _, cmd := range r.ordered {
		if cmd.AdminOnly && !admin {
			continue
		}
		if strings.HasPrefix(cmd.Name, verb) {
			matches = append(matches, cmd)
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Name
	}
	sort.Strings(names)
	return nil, names
}

// Dispatch processes one raw input line from an in-game session: trims it,
// records history, resolves the verb and runs the command.
func Dispatch(sess *net.Session, line string, deps *Deps) {
	dispatchLine(sess, line, deps, false)
}

// dispatchLine runs a command line as the session's user. elevated grants
// admin command visibility regardless of the user's own flags; an admin
// driving a taken-over character keeps their own permissions.
func dispatchLine(sess *net.Session, line string, deps *Deps, elevated bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		if u := deps.UserOf(sess); u != nil {
			Prompt(sess, u)
		}
		return
	}

	u := deps.UserOf(sess)
	if u == nil {
		sess.SendSystem("You are not logged in.")
		sess.Close()
		return
	}

	sess.RecordHistory(line)
	u.RecordCommand(line)
	u.Dirty = true

	fields := strings.Fields(line)
	verb := strings.ToLower(fields[0])
	args := fields[1:]

	cmd, ambiguous := deps.Registry.Resolve(verb, elevated || u.IsAdmin())
	if len(ambiguous) > 0 {
		sess.Send(fmt.Sprintf("Which did you mean: %s?", strings.Join(ambiguous, ", ")))
		return
	}
	if cmd == nil {
		sess.Send("Huh? (try 'help')")
		return
	}

	deps.Log.Debug("command",
		zap.String("user", u.Username),
		zap.String("verb", cmd.Name),
		zap.Int("args", len(args)),
	)
	cmd.Fn(sess, u, args, deps)
}
