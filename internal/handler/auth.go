package handler

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mudgo/server/internal/core/event"
	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

const (
	minNameLen = 3
	maxNameLen = 12
	minPassLen = 6
)

var reservedNames = map[string]bool{
	"admin": true, "root": true, "system": true,
	"server": true, "mud": true, "god": true,
}

// ValidateUsername enforces the character-name rules: 3-12 chars from
// [a-z0-9_], not reserved. The name must already be folded.
func ValidateUsername(name string) error {
	if len(name) < minNameLen || len(name) > maxNameLen {
		return fmt.Errorf("names must be %d to %d characters", minNameLen, maxNameLen)
	}
	for _, c := range name {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' {
			return fmt.Errorf("names may only contain lowercase letters, digits and underscores")
		}
	}
	if reservedNames[name] {
		return fmt.Errorf("that name is reserved")
	}
	return nil
}

func handleLoginLine(sess *net.Session, line string, deps *Deps) {
	line = strings.TrimSpace(line)

	if sess.PendingName == "" {
		// Expecting a character name or 'new'.
		if strings.EqualFold(line, "new") {
			if deps.Mud.SignupsDisabled {
				sess.SendSystem("New character creation is currently disabled.")
				sess.SendPrompt("Enter your name: ")
				return
			}
			sess.SetState(net.StateSignup)
			sess.SendPrompt("Choose a character name: ")
			return
		}
		name := world.FoldName(line)
		if deps.World.GetUser(name) == nil {
			sess.Send("No such character. Type 'new' to create one.")
			sess.SendPrompt("Enter your name, or 'new' to create a character: ")
			return
		}
		sess.PendingName = name
		sess.SetMaskInput(true)
		sess.SendPrompt("Password: ")
		return
	}

	// Expecting the password.
	u := deps.World.GetUser(sess.PendingName)
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(line)) != nil {
		sess.Attempts++
		deps.Log.Warn("failed login",
			zap.String("name", sess.PendingName),
			zap.String("ip", sess.IP),
			zap.Int("attempts", sess.Attempts),
		)
		if sess.Attempts >= deps.Config.Game.MaxLoginAttempts {
			sess.SetMaskInput(false)
			sess.SendSystem("Too many failed attempts.")
			sess.Close()
			return
		}
		sess.SendPrompt("Wrong password, try again: ")
		return
	}

	sess.SetMaskInput(false)
	if u.HasFlag("banned") || u.HasFlag("deleted") {
		sess.SendSystem("This character is no longer available.")
		deps.Log.Info("login refused", zap.String("name", u.Username),
			zap.String("ip", sess.IP), zap.Bool("banned", u.HasFlag("banned")))
		sess.Close()
		return
	}

	if old := deps.SessionFor(u.Username); old != nil {
		startTransfer(old, sess, u, deps)
		return
	}
	enterGame(sess, u, deps)
}

func handleSignupLine(sess *net.Session, line string, deps *Deps) {
	line = strings.TrimSpace(line)

	if sess.PendingName == "" {
		name := world.FoldName(line)
		if err := ValidateUsername(name); err != nil {
			sess.Send(fmt.Sprintf("Sorry: %s.", err))
			sess.SendPrompt("Choose a character name: ")
			return
		}
		if deps.World.GetUser(name) != nil {
			sess.Send("That name is already taken.")
			sess.SendPrompt("Choose a character name: ")
			return
		}
		sess.PendingName = name
		sess.SetMaskInput(true)
		sess.SendPrompt("Choose a password: ")
		return
	}

	// Expecting the first password entry.
	if len(line) < minPassLen {
		sess.SendPrompt(fmt.Sprintf("Passwords need at least %d characters. Choose a password: ", minPassLen))
		return
	}
	sess.PendingPass = line
	sess.SignupStep = 0
	sess.SetState(net.StateConfirm)
	sess.SendPrompt("Retype password: ")
}

func handleConfirmLine(sess *net.Session, line string, deps *Deps) {
	line = strings.TrimSpace(line)

	switch sess.SignupStep {
	case 0: // password confirmation
		if line != sess.PendingPass {
			sess.PendingPass = ""
			sess.SetState(net.StateSignup)
			sess.SendPrompt("Passwords did not match. Choose a password: ")
			return
		}
		sess.SetMaskInput(false)
		sess.SignupStep = 1
		sess.Send("Available classes: " + strings.Join(deps.Tables.Classes.ClassIDs(), ", "))
		sess.SendPrompt("Pick a class: ")

	case 1: // class selection
		classID := strings.ToLower(line)
		if deps.Tables.Classes.Class(classID) == nil {
			sess.Send("Available classes: " + strings.Join(deps.Tables.Classes.ClassIDs(), ", "))
			sess.SendPrompt("Pick a class: ")
			return
		}
		sess.PendingClass = classID
		sess.SignupStep = 2
		sess.Send("Available races: " + strings.Join(deps.Tables.Classes.RaceIDs(), ", "))
		sess.SendPrompt("Pick a race: ")

	case 2: // race selection, then creation
		raceID := strings.ToLower(line)
		if deps.Tables.Classes.Race(raceID) == nil {
			sess.Send("Available races: " + strings.Join(deps.Tables.Classes.RaceIDs(), ", "))
			sess.SendPrompt("Pick a race: ")
			return
		}
		sess.PendingRace = raceID
		u, err := createUser(sess, deps)
		if err != nil {
			deps.Log.Error("character creation failed", zap.String("name", sess.PendingName), zap.Error(err))
			sess.SendSystem("Something went wrong creating your character.")
			sess.Close()
			return
		}
		deps.Log.Info("character created",
			zap.String("name", u.Username),
			zap.String("class", u.ClassID),
			zap.String("race", u.RaceID),
			zap.String("ip", sess.IP),
		)
		enterGame(sess, u, deps)
	}
}

// createUser builds the persistent record from the signup scratch fields.
func createUser(sess *net.Session, deps *Deps) (*world.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(sess.PendingPass), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	sess.PendingPass = ""

	class := deps.Tables.Classes.Class(sess.PendingClass)
	race := deps.Tables.Classes.Race(sess.PendingRace)

	stats := class.BaseStats
	stats.Strength += race.StatModifiers.Strength
	stats.Dexterity += race.StatModifiers.Dexterity
	stats.Agility += race.StatModifiers.Agility
	stats.Constitution += race.StatModifiers.Constitution
	stats.Wisdom += race.StatModifiers.Wisdom
	stats.Intelligence += race.StatModifiers.Intelligence
	stats.Charisma += race.StatModifiers.Charisma

	u := &world.User{
		Username:      sess.PendingName,
		PasswordHash:  string(hash),
		Stats:         stats,
		Level:         1,
		ClassID:       class.ID,
		RaceID:        race.ID,
		CurrentRoomID: deps.Config.Game.StartRoomID,
		Money:         world.Currency{Silver: 1},
		JoinDate:      time.Now(),
	}
	u.MaxHealth = class.BaseHealth + 2*stats.Constitution
	u.Health = u.MaxHealth
	if world.ResourceFor(u.ClassID) == world.ResourceMana {
		u.MaxMana = world.MaxResourceFor(u)
		u.Mana = u.MaxMana
	} else {
		u.MaxResource = world.MaxResourceFor(u)
		if world.ResourceFor(u.ClassID) == world.ResourceEnergy {
			u.Resource = u.MaxResource
		}
	}

	// The very first character on a fresh world gets the admin flag.
	if deps.World.UserCount() == 0 {
		u.SetFlag("admin", true)
	}

	if err := deps.World.AddUser(u); err != nil {
		return nil, err
	}
	for _, tmplID := range class.StartingItems {
		inst, err := deps.World.SpawnItem(tmplID, "system")
		if err != nil {
			deps.Log.Warn("unknown starting item", zap.String("item", tmplID), zap.String("class", class.ID))
			continue
		}
		deps.World.GiveItemToUser(inst.InstanceID, u, "")
	}
	u.Dirty = true
	return u, nil
}

// enterGame transitions an authenticated session into the world.
func enterGame(sess *net.Session, u *world.User, deps *Deps) {
	sess.Username = u.Username
	sess.Attempts = 0
	sess.PendingName = ""
	sess.PendingPass = ""
	sess.SetState(net.StateGame)

	deps.World.SetUserOnline(u, sess.ID, deps.Config.Game.StartRoomID)
	u.LastLogin = time.Now()
	u.Dirty = true

	deps.Log.Info("login",
		zap.String("name", u.Username),
		zap.String("ip", sess.IP),
		zap.Uint64("session", sess.ID),
	)
	event.Emit(deps.Bus, event.PlayerLoggedIn{Username: u.Username, SessionID: sess.ID})

	sess.Send(fmt.Sprintf("Welcome back, %s.", world.DisplayName(u.Username)))
	for _, msg := range u.DrainAdminMessages() {
		sess.SendSystem("Message from the staff: " + msg)
	}
	deps.BroadcastRoom(u.CurrentRoomID, u.Username,
		fmt.Sprintf("%s has entered the world.", world.DisplayName(u.Username)))

	sendRoomView(sess, u, deps)
	Prompt(sess, u)
}
