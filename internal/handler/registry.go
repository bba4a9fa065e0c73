package handler

import "github.com/mudgo/server/internal/world"

// RegisterAll registers every game command. Registration order is the
// order shown by 'help'.
func RegisterAll(reg *Registry) {
	// Perception
	reg.Register(&Command{Name: "look", Aliases: []string{"l"}, Help: "look around, or at something", Fn: HandleLook})

	// Movement
	reg.Register(&Command{Name: "north", Aliases: []string{"n"}, Help: "go north", Fn: HandleMove(world.North)})
	reg.Register(&Command{Name: "south", Aliases: []string{"s"}, Help: "go south", Fn: HandleMove(world.South)})
	reg.Register(&Command{Name: "east", Aliases: []string{"e"}, Help: "go east", Fn: HandleMove(world.East)})
	reg.Register(&Command{Name: "west", Aliases: []string{"w"}, Help: "go west", Fn: HandleMove(world.West)})
	reg.Register(&Command{Name: "up", Aliases: []string{"u"}, Help: "go up", Fn: HandleMove(world.Up)})
	reg.Register(&Command{Name: "down", Aliases: []string{"d"}, Help: "go down", Fn: HandleMove(world.Down)})

	// Communication
	reg.Register(&Command{Name: "say", Aliases: []string{"'"}, Help: "speak to the room", Fn: HandleSay})
	reg.Register(&Command{Name: "shout", Help: "speak to the whole world", Fn: HandleShout})
	reg.Register(&Command{Name: "tell", Aliases: []string{"t"}, Help: "private message to a player", Fn: HandleTell})
	reg.Register(&Command{Name: "who", Help: "list who is online", Fn: HandleWho})

	// Items
	reg.Register(&Command{Name: "inventory", Aliases: []string{"i", "inv"}, Help: "list what you carry", Fn: HandleInventory})
	reg.Register(&Command{Name: "get", Aliases: []string{"take"}, Help: "pick something up", Fn: HandleGet})
	reg.Register(&Command{Name: "drop", Help: "drop something", Fn: HandleDrop})
	reg.Register(&Command{Name: "wear", Aliases: []string{"equip", "wield"}, Help: "equip an item", Fn: HandleWear})
	reg.Register(&Command{Name: "remove", Aliases: []string{"unequip"}, Help: "unequip an item", Fn: HandleRemove})
	reg.Register(&Command{Name: "use", Help: "use a consumable", Fn: HandleUse})

	// Combat
	reg.Register(&Command{Name: "attack", Aliases: []string{"kill", "k"}, Help: "attack a creature", Fn: HandleAttack})
	reg.Register(&Command{Name: "flee", Help: "run from a fight", Fn: HandleFlee})
	reg.Register(&Command{Name: "cast", Aliases: []string{"c"}, Help: "cast an ability", Fn: HandleCast})
	reg.Register(&Command{Name: "abilities", Aliases: []string{"spells"}, Help: "list what you can cast", Fn: HandleAbilities})

	// Recovery
	reg.Register(&Command{Name: "rest", Help: "rest to recover faster", Fn: HandleRest})
	reg.Register(&Command{Name: "meditate", Aliases: []string{"med"}, Help: "meditate to focus the mind", Fn: HandleMeditate})
	reg.Register(&Command{Name: "stand", Help: "stand back up", Fn: HandleStand})

	// Commerce
	reg.Register(&Command{Name: "talk", Help: "talk to an NPC", Fn: HandleTalk})
	reg.Register(&Command{Name: "list", Help: "see a merchant's wares", Fn: HandleList})
	reg.Register(&Command{Name: "buy", Help: "buy from a merchant", Fn: HandleBuy})
	reg.Register(&Command{Name: "sell", Help: "sell to a merchant", Fn: HandleSell})

	// Info and misc
	reg.Register(&Command{Name: "score", Aliases: []string{"sc"}, Help: "your character sheet", Fn: HandleScore})
	reg.Register(&Command{Name: "effects", Help: "active effects on you", Fn: HandleEffects})
	reg.Register(&Command{Name: "history", Help: "your recent commands", Fn: HandleHistory})
	reg.Register(&Command{Name: "uptime", Help: "server uptime", Fn: HandleUptime})
	reg.Register(&Command{Name: "quest", Aliases: []string{"quests"}, Help: "your quest log, or one quest", Fn: HandleQuest})
	reg.Register(&Command{Name: "help", Aliases: []string{"?"}, Help: "this list, or help on a topic", Fn: HandleHelp})
	reg.Register(&Command{Name: "bug", Help: "report a bug", Fn: HandleBug})
	reg.Register(&Command{Name: "write", Help: "write a longer message to the staff", Fn: HandleWrite})
	reg.Register(&Command{Name: "snake", Help: "a moment of distraction", Fn: HandleSnake})
	reg.Register(&Command{Name: "quit", Aliases: []string{"logout"}, Help: "save and leave", Fn: HandleQuit})

	// Staff
	reg.Register(&Command{Name: "shutdown", AdminOnly: true, Help: "stop the server", Fn: HandleShutdown})
	reg.Register(&Command{Name: "kick", AdminOnly: true, Help: "disconnect a player", Fn: HandleKick})
	reg.Register(&Command{Name: "monitor", AdminOnly: true, Help: "watch a player's output", Fn: HandleMonitor})
	reg.Register(&Command{Name: "unmonitor", AdminOnly: true, Help: "stop watching", Fn: HandleUnmonitor})
	reg.Register(&Command{Name: "takeover", AdminOnly: true, Help: "drive a player's character", Fn: HandleTakeover})
	reg.Register(&Command{Name: "goto", AdminOnly: true, Aliases: []string{"tp"}, Help: "teleport to a room or player", Fn: HandleGoto})
	reg.Register(&Command{Name: "spawnnpc", AdminOnly: true, Help: "spawn an NPC here", Fn: HandleSpawnNpc})
	reg.Register(&Command{Name: "spawnitem", AdminOnly: true, Help: "conjure an item", Fn: HandleSpawnItem})
	reg.Register(&Command{Name: "setflag", AdminOnly: true, Help: "set a user flag", Fn: HandleSetFlag})
	reg.Register(&Command{Name: "announce", AdminOnly: true, Help: "broadcast a notice", Fn: HandleAnnounce})
	reg.Register(&Command{Name: "amsg", AdminOnly: true, Help: "message a user, offline included", Fn: HandleAdminMsg})
	reg.Register(&Command{Name: "forcesave", AdminOnly: true, Aliases: []string{"save"}, Help: "flush everything to disk", Fn: HandleForceSave})
	reg.Register(&Command{Name: "rawlog", AdminOnly: true, Help: "toggle wire logging for a session", Fn: HandleRawLog})
}
