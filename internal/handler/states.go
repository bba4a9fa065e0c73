package handler

import (
	"fmt"

	"github.com/mudgo/server/internal/net"
)

// Greet runs once when a session is accepted: banner, MOTD, login prompt.
func Greet(sess *net.Session, deps *Deps) {
	sess.Send(fmt.Sprintf("Welcome to %s.", deps.Config.Server.Name))
	if deps.Config.Server.Motd != "" {
		sess.Send(deps.Config.Server.Motd)
	}
	if deps.Mud.GlobalAnnouncement != "" {
		sess.SendSystem(deps.Mud.GlobalAnnouncement)
	}
	sess.SetState(net.StateLogin)
	promptLogin(sess)
}

func promptLogin(sess *net.Session) {
	sess.SendPrompt("Enter your name, or 'new' to create a character: ")
}

// HandleLine routes one input line by session state. Runs on the game loop.
func HandleLine(sess *net.Session, line string, deps *Deps) {
	// A taken-over session's own keystrokes are swallowed; the admin session
	// drives it instead. InputBlocked covers transfer-pending peers too.
	if sess.TakenOverBy != nil {
		return
	}
	if sess.InputBlocked {
		sess.SendSystem("Please wait...")
		return
	}

	switch sess.State() {
	case net.StateConnecting:
		// Input before the greeting finished; treat it as the first login line.
		sess.SetState(net.StateLogin)
		handleLoginLine(sess, line, deps)
	case net.StateLogin:
		handleLoginLine(sess, line, deps)
	case net.StateSignup:
		handleSignupLine(sess, line, deps)
	case net.StateConfirm:
		handleConfirmLine(sess, line, deps)
	case net.StateTransfer:
		handleTransferAnswer(sess, line, deps)
	case net.StateGame:
		if ForwardTakenOverLine(sess, line, deps) {
			return
		}
		Dispatch(sess, line, deps)
	case net.StateEditor:
		handleEditorLine(sess, line, deps)
	case net.StateSnake:
		handleSnakeLine(sess, line, deps)
	case net.StateDisconnecting:
		// Drop input from a session already on its way out.
	}
}
