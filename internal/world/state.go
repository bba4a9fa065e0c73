package world

import (
	"fmt"
)

// State tracks the authoritative in-memory world: rooms, users, item and
// NPC templates and instances, active effects and pending respawns.
// Single-goroutine access only (game loop).
type State struct {
	users  map[string]*User  // folded username → user (online and offline)
	online map[string]uint64 // folded username → session ID

	rooms     map[string]*Room
	roomState map[string]*RoomState
	areas     map[string]*Area

	itemTemplates map[string]*ItemTemplate
	npcTemplates  map[string]*NpcTemplate

	items map[string]*ItemInstance // instance ID → instance
	npcs  map[string]*NpcInstance  // instance ID → instance

	quests map[string]*Quest

	respawns []*RespawnEntry

	Effects *EffectRegistry
}

func NewState() *State {
	return &State{
		users:         make(map[string]*User),
		online:        make(map[string]uint64),
		rooms:         make(map[string]*Room),
		roomState:     make(map[string]*RoomState),
		areas:         make(map[string]*Area),
		itemTemplates: make(map[string]*ItemTemplate),
		npcTemplates:  make(map[string]*NpcTemplate),
		items:         make(map[string]*ItemInstance),
		npcs:          make(map[string]*NpcInstance),
		quests:        make(map[string]*Quest),
		Effects:       NewEffectRegistry(),
	}
}

// --- Rooms ---

// AddRoom registers a room. Duplicate IDs are an error.
func (s *State) AddRoom(r *Room) error {
	if _, ok := s.rooms[r.ID]; ok {
		return fmt.Errorf("duplicate room id %q", r.ID)
	}
	s.rooms[r.ID] = r
	return nil
}

func (s *State) GetRoom(id string) *Room {
	return s.rooms[id]
}

func (s *State) RoomCount() int { return len(s.rooms) }

// AllRooms iterates every room.
func (s *State) AllRooms(fn func(*Room)) {
	for _, r := range s.rooms {
		fn(r)
	}
}

// RoomStateFor returns the mutable state of a room, creating it on demand.
func (s *State) RoomStateFor(roomID string) *RoomState {
	rs, ok := s.roomState[roomID]
	if !ok {
		rs = &RoomState{RoomID: roomID}
		s.roomState[roomID] = rs
	}
	return rs
}

// AllRoomState iterates every materialized room state.
func (s *State) AllRoomState(fn func(*RoomState)) {
	for _, rs := range s.roomState {
		fn(rs)
	}
}

func (s *State) AddArea(a *Area) error {
	if _, ok := s.areas[a.ID]; ok {
		return fmt.Errorf("duplicate area id %q", a.ID)
	}
	s.areas[a.ID] = a
	return nil
}

func (s *State) GetArea(id string) *Area { return s.areas[id] }
func (s *State) AreaCount() int          { return len(s.areas) }

// --- Users ---

// AddUser registers a user record. Username uniqueness is enforced here;
// signup races are impossible because all mutation runs on the game loop.
func (s *State) AddUser(u *User) error {
	key := FoldName(u.Username)
	if _, ok := s.users[key]; ok {
		return fmt.Errorf("username %q already taken", u.Username)
	}
	u.Username = key
	s.users[key] = u
	return nil
}

// GetUser looks a user up case-insensitively. Nil if unknown.
func (s *State) GetUser(name string) *User {
	return s.users[FoldName(name)]
}

// RemoveUser severs a user record (admin soft delete keeps the record out
// of the registry; the store retains the last snapshot).
func (s *State) RemoveUser(name string) *User {
	key := FoldName(name)
	u, ok := s.users[key]
	if !ok {
		return nil
	}
	s.setOffline(u)
	delete(s.users, key)
	return u
}

func (s *State) UserCount() int { return len(s.users) }

// AllUsers iterates every loaded user, online or not.
func (s *State) AllUsers(fn func(*User)) {
	for _, u := range s.users {
		fn(u)
	}
}

// OnlineCount returns the number of in-world users.
func (s *State) OnlineCount() int { return len(s.online) }

// OnlineSession returns the session ID of an online user, or 0.
func (s *State) OnlineSession(name string) uint64 {
	return s.online[FoldName(name)]
}

// IsOnline reports whether the user is in-world.
func (s *State) IsOnline(name string) bool {
	_, ok := s.online[FoldName(name)]
	return ok
}

// OnlineUsers iterates in-world users only.
func (s *State) OnlineUsers(fn func(*User)) {
	for name := range s.online {
		if u := s.users[name]; u != nil {
			fn(u)
		}
	}
}

// SetUserOnline places a user in-world: binds the session and inserts the
// user into their current room's player list (falling back to startRoom for
// new users or users whose room no longer exists).
func (s *State) SetUserOnline(u *User, sessionID uint64, startRoomID string) {
	if u.CurrentRoomID == "" || s.rooms[u.CurrentRoomID] == nil {
		u.CurrentRoomID = startRoomID
	}
	s.online[u.Username] = sessionID
	rs := s.RoomStateFor(u.CurrentRoomID)
	rs.Players = appendUnique(rs.Players, u.Username)
}

// SetUserOffline removes a user from the world: drops the room inverse
// index, clears their effects, and sweeps hate entries pointing at them.
func (s *State) SetUserOffline(u *User) {
	s.setOffline(u)
}

func (s *State) setOffline(u *User) {
	if _, ok := s.online[u.Username]; !ok {
		return
	}
	delete(s.online, u.Username)
	rs := s.RoomStateFor(u.CurrentRoomID)
	rs.Players = removeString(rs.Players, u.Username)
	s.Effects.RemoveAllForTarget(u.Username)
	for _, npcID := range rs.NpcIDs {
		if npc := s.npcs[npcID]; npc != nil {
			npc.RemoveHate(u.Username)
		}
	}
	u.InCombat = false
	u.CombatTarget = ""
	u.IsResting = false
	u.IsMeditating = false
}

// MoveUser relocates an online user atomically: the user is in exactly one
// room's player list at all times. Hate entries on NPCs in the departed
// room are swept (aggression clears on room departure).
func (s *State) MoveUser(u *User, toRoomID string) error {
	if s.rooms[toRoomID] == nil {
		return fmt.Errorf("unknown room %q", toRoomID)
	}
	from := s.RoomStateFor(u.CurrentRoomID)
	from.Players = removeString(from.Players, u.Username)
	for _, npcID := range from.NpcIDs {
		if npc := s.npcs[npcID]; npc != nil {
			npc.RemoveHate(u.Username)
		}
	}
	u.CurrentRoomID = toRoomID
	u.InCombat = false
	u.CombatTarget = ""
	to := s.RoomStateFor(toRoomID)
	to.Players = appendUnique(to.Players, u.Username)
	u.Dirty = true
	return nil
}

// DetachUserFromRoom pulls an online user out of their room's player list
// without logging them out, for full-screen states that leave the world
// (the editor). Hate entries on NPCs in the room are swept, as on a room
// departure. AttachUserToRoom restores them.
func (s *State) DetachUserFromRoom(u *User) {
	rs := s.RoomStateFor(u.CurrentRoomID)
	rs.Players = removeString(rs.Players, u.Username)
	for _, npcID := range rs.NpcIDs {
		if npc := s.npcs[npcID]; npc != nil {
			npc.RemoveHate(u.Username)
		}
	}
}

// AttachUserToRoom re-inserts a detached user into their room's player
// list. No-op for users who went offline in the meantime.
func (s *State) AttachUserToRoom(u *User) {
	if _, ok := s.online[u.Username]; !ok {
		return
	}
	rs := s.RoomStateFor(u.CurrentRoomID)
	rs.Players = appendUnique(rs.Players, u.Username)
}

// PlayersInRoom returns the online usernames in a room.
func (s *State) PlayersInRoom(roomID string) []string {
	return s.RoomStateFor(roomID).Players
}

// --- Item templates & instances ---

func (s *State) AddItemTemplate(t *ItemTemplate) error {
	if _, ok := s.itemTemplates[t.ID]; ok {
		return fmt.Errorf("duplicate item template %q", t.ID)
	}
	s.itemTemplates[t.ID] = t
	return nil
}

func (s *State) ItemTemplate(id string) *ItemTemplate { return s.itemTemplates[id] }
func (s *State) ItemTemplateCount() int               { return len(s.itemTemplates) }

// AddItemInstance registers a minted instance.
func (s *State) AddItemInstance(i *ItemInstance) error {
	if _, ok := s.items[i.InstanceID]; ok {
		return fmt.Errorf("duplicate item instance %q", i.InstanceID)
	}
	s.items[i.InstanceID] = i
	return nil
}

func (s *State) Item(instanceID string) *ItemInstance { return s.items[instanceID] }
func (s *State) ItemCount() int                       { return len(s.items) }

// AllItems iterates every item instance.
func (s *State) AllItems(fn func(*ItemInstance)) {
	for _, i := range s.items {
		fn(i)
	}
}

// DestroyItem removes an instance from the world entirely. The caller must
// already have detached it from its container.
func (s *State) DestroyItem(instanceID string) *ItemInstance {
	i, ok := s.items[instanceID]
	if !ok {
		return nil
	}
	delete(s.items, instanceID)
	return i
}

// SpawnItem mints an instance of a template and registers it.
func (s *State) SpawnItem(templateID, createdBy string) (*ItemInstance, error) {
	tmpl := s.itemTemplates[templateID]
	if tmpl == nil {
		return nil, fmt.Errorf("unknown item template %q", templateID)
	}
	inst := NewItemInstance(tmpl, createdBy)
	s.items[inst.InstanceID] = inst
	return inst, nil
}

// GiveItemToUser moves an item instance from a room floor into a user's
// inventory, or mints-to-inventory when fromRoom is "".
func (s *State) GiveItemToUser(instanceID string, u *User, fromRoom string) {
	if fromRoom != "" {
		rs := s.RoomStateFor(fromRoom)
		rs.Items = removeString(rs.Items, instanceID)
	}
	u.Inventory = appendUnique(u.Inventory, instanceID)
	u.Dirty = true
}

// DropItemToRoom moves an item instance from a user's inventory to a room
// floor. Equipped items must be removed first.
func (s *State) DropItemToRoom(instanceID string, u *User, roomID string) {
	u.Inventory = removeString(u.Inventory, instanceID)
	rs := s.RoomStateFor(roomID)
	rs.Items = appendUnique(rs.Items, instanceID)
	u.Dirty = true
}

// RemoveFromInventory detaches an instance from a user's inventory without
// placing it anywhere. Pair with DestroyItem or an explicit transfer.
func (s *State) RemoveFromInventory(u *User, instanceID string) {
	u.Inventory = removeString(u.Inventory, instanceID)
	u.Dirty = true
}

// EquipItem moves an inventory-owned instance into an equipment slot. The
// instance stays in the item table; the slot references it (no duplicate).
func (s *State) EquipItem(u *User, instanceID string, slot EquipSlot) error {
	if !contains(u.Inventory, instanceID) {
		return fmt.Errorf("item not in inventory")
	}
	if _, occupied := u.Equipment[slot]; occupied {
		return fmt.Errorf("slot %s already occupied", slot)
	}
	if u.Equipment == nil {
		u.Equipment = make(map[EquipSlot]string)
	}
	u.Inventory = removeString(u.Inventory, instanceID)
	u.Equipment[slot] = instanceID
	u.Dirty = true
	return nil
}

// UnequipItem returns an equipped instance to the inventory.
func (s *State) UnequipItem(u *User, slot EquipSlot) (string, error) {
	instanceID, ok := u.Equipment[slot]
	if !ok {
		return "", fmt.Errorf("nothing equipped in %s", slot)
	}
	delete(u.Equipment, slot)
	u.Inventory = appendUnique(u.Inventory, instanceID)
	u.Dirty = true
	return instanceID, nil
}

// EquipmentBonus sums a named stat bonus across a user's equipped items.
func (s *State) EquipmentBonus(u *User, stat string) int {
	total := 0
	for _, instID := range u.Equipment {
		inst := s.items[instID]
		if inst == nil {
			continue
		}
		if tmpl := s.itemTemplates[inst.TemplateID]; tmpl != nil {
			total += tmpl.StatBonuses[stat]
		}
	}
	return total
}

// WeaponDamage returns the damage of the equipped main-hand weapon, or 0
// for bare hands.
func (s *State) WeaponDamage(u *User) int {
	instID, ok := u.Equipment[SlotMainHand]
	if !ok {
		return 0
	}
	inst := s.items[instID]
	if inst == nil {
		return 0
	}
	if tmpl := s.itemTemplates[inst.TemplateID]; tmpl != nil {
		return tmpl.Damage
	}
	return 0
}

// ArmorDefense sums Defense across equipped items.
func (s *State) ArmorDefense(u *User) int {
	total := 0
	for _, instID := range u.Equipment {
		inst := s.items[instID]
		if inst == nil {
			continue
		}
		if tmpl := s.itemTemplates[inst.TemplateID]; tmpl != nil {
			total += tmpl.Defense
		}
	}
	return total
}

// --- NPC templates & instances ---

func (s *State) AddNpcTemplate(t *NpcTemplate) error {
	if _, ok := s.npcTemplates[t.ID]; ok {
		return fmt.Errorf("duplicate npc template %q", t.ID)
	}
	s.npcTemplates[t.ID] = t
	return nil
}

func (s *State) NpcTemplate(id string) *NpcTemplate { return s.npcTemplates[id] }
func (s *State) NpcTemplateCount() int              { return len(s.npcTemplates) }

// SpawnNpc instantiates a template into a room.
func (s *State) SpawnNpc(templateID, roomID string) (*NpcInstance, error) {
	tmpl := s.npcTemplates[templateID]
	if tmpl == nil {
		return nil, fmt.Errorf("unknown npc template %q", templateID)
	}
	if s.rooms[roomID] == nil {
		return nil, fmt.Errorf("unknown room %q", roomID)
	}
	npc := NewNpcInstance(tmpl, roomID)
	s.npcs[npc.InstanceID] = npc
	rs := s.RoomStateFor(roomID)
	rs.NpcIDs = appendUnique(rs.NpcIDs, npc.InstanceID)
	return npc, nil
}

func (s *State) Npc(instanceID string) *NpcInstance { return s.npcs[instanceID] }
func (s *State) NpcCount() int                      { return len(s.npcs) }

// AllNpcs iterates every live NPC instance.
func (s *State) AllNpcs(fn func(*NpcInstance)) {
	for _, n := range s.npcs {
		fn(n)
	}
}

// NpcsInRoom resolves the NPC instances spawned in a room.
func (s *State) NpcsInRoom(roomID string) []*NpcInstance {
	rs := s.RoomStateFor(roomID)
	out := make([]*NpcInstance, 0, len(rs.NpcIDs))
	for _, id := range rs.NpcIDs {
		if n := s.npcs[id]; n != nil {
			out = append(out, n)
		}
	}
	return out
}

// RemoveNpc despawns an instance: drops it from its room, clears engaged
// players, and sweeps its effects.
func (s *State) RemoveNpc(instanceID string) *NpcInstance {
	npc, ok := s.npcs[instanceID]
	if !ok {
		return nil
	}
	delete(s.npcs, instanceID)
	rs := s.RoomStateFor(npc.RoomID)
	rs.NpcIDs = removeString(rs.NpcIDs, instanceID)
	s.Effects.RemoveAllForTarget(instanceID)
	for name := range npc.HateList {
		if u := s.users[name]; u != nil && u.CombatTarget == instanceID {
			u.CombatTarget = ""
			u.InCombat = false
		}
	}
	return npc
}

// --- Quests ---

// AddQuest registers a quest definition. Duplicate IDs are an error.
func (s *State) AddQuest(q *Quest) error {
	if _, ok := s.quests[q.ID]; ok {
		return fmt.Errorf("duplicate quest id %q", q.ID)
	}
	s.quests[q.ID] = q
	return nil
}

func (s *State) GetQuest(id string) *Quest { return s.quests[id] }
func (s *State) QuestCount() int           { return len(s.quests) }

// AllQuests iterates every registered quest.
func (s *State) AllQuests(fn func(*Quest)) {
	for _, q := range s.quests {
		fn(q)
	}
}

// --- Respawn queue ---

// QueueRespawn schedules a template to respawn into a room.
func (s *State) QueueRespawn(templateID, roomID string, ticks int) {
	s.respawns = append(s.respawns, &RespawnEntry{
		TemplateID: templateID,
		RoomID:     roomID,
		TicksLeft:  ticks,
	})
}

// TickRespawns decrements pending timers and spawns any that reach zero.
// Returns the NPCs spawned this tick.
func (s *State) TickRespawns() []*NpcInstance {
	var spawned []*NpcInstance
	remaining := s.respawns[:0]
	for _, entry := range s.respawns {
		entry.TicksLeft--
		if entry.TicksLeft > 0 {
			remaining = append(remaining, entry)
			continue
		}
		npc, err := s.SpawnNpc(entry.TemplateID, entry.RoomID)
		if err != nil {
			// Room or template vanished (admin deletion); drop the entry.
			continue
		}
		spawned = append(spawned, npc)
	}
	s.respawns = remaining
	return spawned
}

// PendingRespawns returns the respawn queue length.
func (s *State) PendingRespawns() int { return len(s.respawns) }

// RespawnQueue exposes the pending entries for snapshotting.
func (s *State) RespawnQueue() []*RespawnEntry { return s.respawns }

// --- Restore hooks (load path only) ---

// RestoreRoomState installs a loaded room state. The Players index is
// runtime-only and starts empty.
func (s *State) RestoreRoomState(rs *RoomState) {
	rs.Players = nil
	s.roomState[rs.RoomID] = rs
}

// RestoreNpc reinstalls a persisted NPC instance without re-rolling its
// instance ID or health. The room's NpcIDs list is persisted alongside and
// is repaired here if the instance is missing from it.
func (s *State) RestoreNpc(n *NpcInstance) {
	if tmpl := s.npcTemplates[n.TemplateID]; tmpl != nil && tmpl.IsMerchant && n.StockLeft == nil {
		n.StockLeft = make(map[string]int, len(tmpl.Stock))
		for _, st := range tmpl.Stock {
			n.StockLeft[st.TemplateID] = st.Quantity
		}
	}
	s.npcs[n.InstanceID] = n
	rs := s.RoomStateFor(n.RoomID)
	rs.NpcIDs = appendUnique(rs.NpcIDs, n.InstanceID)
}

// RestoreRespawns installs a loaded respawn queue.
func (s *State) RestoreRespawns(entries []*RespawnEntry) {
	s.respawns = entries
}

// --- small slice helpers ---

func appendUnique(list []string, v string) []string {
	for _, cur := range list {
		if cur == v {
			return list
		}
	}
	return append(list, v)
}

func removeString(list []string, v string) []string {
	for i, cur := range list {
		if cur == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func contains(list []string, v string) bool {
	for _, cur := range list {
		if cur == v {
			return true
		}
	}
	return false
}
