package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/persist"
	"github.com/mudgo/server/internal/world"
)

// EditorSession is the per-session state of the line editor.
type EditorSession struct {
	Lines   []string
	Subject string
}

const editorMaxLines = 100

// HandleWrite enters the multi-line editor to compose a message for the
// staff. "." on its own line sends, ":q" abandons.
func HandleWrite(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if u.InCombat {
		sess.Send("Not while fighting!")
		return
	}
	deps.Editors[sess.ID] = &EditorSession{Subject: strings.Join(args, " ")}
	sess.SetState(net.StateEditor)
	// While editing, the character steps out of the world: not listed in
	// the room and not a target for anything in it.
	deps.World.DetachUserFromRoom(u)
	deps.BroadcastRoom(u.CurrentRoomID, u.Username,
		fmt.Sprintf("%s grows distant, lost in thought.", world.DisplayName(u.Username)))
	sess.Send("-- Editor: write your message to the staff. --")
	sess.Send("End with '.' on its own line, abandon with ':q'.")
	sess.SendPrompt("] ")
}

func handleEditorLine(sess *net.Session, line string, deps *Deps) {
	ed := deps.Editors[sess.ID]
	u := deps.UserOf(sess)
	if ed == nil || u == nil {
		exitEditor(sess, deps)
		return
	}

	switch strings.TrimSpace(line) {
	case ".":
		text := strings.Join(ed.Lines, "\n")
		if ed.Subject != "" {
			text = ed.Subject + "\n" + text
		}
		if strings.TrimSpace(text) == "" {
			sess.Send("Nothing written, nothing sent.")
			exitEditor(sess, deps)
			return
		}
		report := persist.BugReport{
			Username:  u.Username,
			RoomID:    u.CurrentRoomID,
			Text:      text,
			CreatedAt: time.Now(),
		}
		if err := deps.Repo.SaveBugReport(context.Background(), report); err != nil {
			deps.Log.Error("editor message save failed", zap.Error(err))
			sess.SendSystem("Could not save the message, sorry.")
		} else {
			sess.Send("Message sent to the staff.")
		}
		exitEditor(sess, deps)
	case ":q":
		sess.Send("Abandoned.")
		exitEditor(sess, deps)
	default:
		if len(ed.Lines) >= editorMaxLines {
			sess.Send(fmt.Sprintf("Message too long (max %d lines). '.' to send or ':q' to abandon.", editorMaxLines))
			return
		}
		ed.Lines = append(ed.Lines, line)
		sess.SendPrompt("] ")
	}
}

func exitEditor(sess *net.Session, deps *Deps) {
	delete(deps.Editors, sess.ID)
	sess.SetState(net.StateGame)
	if u := deps.UserOf(sess); u != nil {
		deps.World.AttachUserToRoom(u)
		deps.BroadcastRoom(u.CurrentRoomID, u.Username,
			fmt.Sprintf("%s snaps back to the here and now.", world.DisplayName(u.Username)))
		Prompt(sess, u)
	}
}
