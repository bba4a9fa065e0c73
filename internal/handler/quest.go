package handler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

// HandleQuest shows the character's quest log, or one quest in detail.
func HandleQuest(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		listQuests(sess, u, deps)
		Prompt(sess, u)
		return
	}

	q := findQuest(strings.Join(args, " "), deps)
	if q == nil {
		sess.Send("No quest by that name.")
		Prompt(sess, u)
		return
	}

	status, started := u.QuestLog[q.ID]
	if !started {
		status = "not started"
	}
	sess.Send(fmt.Sprintf("%s [%s]", q.Name, status))
	if q.Description != "" {
		sess.Send(q.Description)
	}
	Prompt(sess, u)
}

func listQuests(sess *net.Session, u *world.User, deps *Deps) {
	if len(u.QuestLog) == 0 {
		sess.Send("Your quest log is empty. Talk to people; someone always needs something.")
		return
	}

	ids := make([]string, 0, len(u.QuestLog))
	for id := range u.QuestLog {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sess.Send("Your quests:")
	for _, id := range ids {
		name := id
		if q := deps.World.GetQuest(id); q != nil {
			name = q.Name
		}
		sess.Send(fmt.Sprintf("  %s [%s]", name, u.QuestLog[id]))
	}
}

// findQuest resolves an argument against the quest table: exact ID, then
// case-insensitive name, then unique name prefix.
func findQuest(arg string, deps *Deps) *world.Quest {
	if q := deps.World.GetQuest(arg); q != nil {
		return q
	}
	needle := strings.ToLower(arg)
	var prefix *world.Quest
	prefixes := 0
	var exact *world.Quest
	deps.World.AllQuests(func(q *world.Quest) {
		name := strings.ToLower(q.Name)
		if name == needle {
			exact = q
			return
		}
		if strings.HasPrefix(name, needle) {
			prefix = q
			prefixes++
		}
	})
	if exact != nil {
		return exact
	}
	if prefixes == 1 {
		return prefix
	}
	return nil
}
