package handler

import (
	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

// HandleRest sits the user down for the regeneration bonus.
func HandleRest(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	if u.InCombat {
		sess.Send("You cannot rest while fighting!")
		return
	}
	if u.IsUnconscious {
		sess.Send("You are already flat on the ground.")
		return
	}
	if u.IsResting {
		sess.Send("You are already resting.")
		return
	}
	u.IsResting = true
	u.IsMeditating = false
	u.Dirty = true
	sess.Send("You sit down and rest.")
	Prompt(sess, u)
}

// HandleMeditate enters the meditation stance for resource regeneration.
func HandleMeditate(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	if u.InCombat {
		sess.Send("You cannot meditate while fighting!")
		return
	}
	if u.IsUnconscious {
		sess.Send("You are unconscious.")
		return
	}
	rt := world.ResourceFor(u.ClassID)
	if rt != world.ResourceMana && rt != world.ResourceKi {
		sess.Send("Your mind does not work that way.")
		return
	}
	if u.IsMeditating {
		sess.Send("You are already meditating.")
		return
	}
	u.IsMeditating = true
	u.IsResting = false
	u.Dirty = true
	sess.Send("You close your eyes and clear your mind.")
	Prompt(sess, u)
}

// HandleStand gets the user back on their feet.
func HandleStand(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	if u.IsUnconscious {
		sess.Send("You are in no state to stand.")
		return
	}
	if !u.IsResting && !u.IsMeditating {
		sess.Send("You are already standing.")
		return
	}
	u.IsResting = false
	u.IsMeditating = false
	u.Dirty = true
	sess.Send("You stand up.")
	Prompt(sess, u)
}
