package handler

import (
	"fmt"
	"strings"

	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/scripting"
	"github.com/mudgo/server/internal/world"
)

// findMerchant returns the first merchant NPC in the user's room.
func findMerchant(u *world.User, deps *Deps) (*world.NpcInstance, *world.NpcTemplate) {
	for _, npc := range deps.World.NpcsInRoom(u.CurrentRoomID) {
		if tmpl := deps.World.NpcTemplate(npc.TemplateID); tmpl != nil && tmpl.IsMerchant {
			return npc, tmpl
		}
	}
	return nil, nil
}

// stockPrice resolves the price of one stock line in copper.
func stockPrice(s world.MerchantStock, deps *Deps) int {
	if s.Price > 0 {
		return s.Price
	}
	if tmpl := deps.World.ItemTemplate(s.TemplateID); tmpl != nil {
		return tmpl.BaseValue
	}
	return 0
}

// HandleTalk talks to an NPC: Lua hooks answer first, then merchants get a
// stock greeting, everyone else a canned line.
func HandleTalk(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Talk to whom?")
		return
	}
	target := strings.ToLower(strings.Join(args, " "))
	npc, tmpl := findNpc(u.CurrentRoomID, target, deps)
	if npc == nil {
		sess.Send("There is nobody like that here.")
		return
	}

	if reply, handled := deps.Scripting.OnNpcTalk(scripting.TalkContext{
		NpcTemplateID: tmpl.ID,
		NpcName:       tmpl.Name,
		Username:      u.Username,
		UserLevel:     u.Level,
		UserClass:     u.ClassID,
	}); handled {
		sess.Send(fmt.Sprintf("%s says: %s", tmpl.Name, reply))
		Prompt(sess, u)
		return
	}

	if tmpl.IsMerchant {
		sess.Send(fmt.Sprintf("%s says: Have a look at my wares ('list').", tmpl.Name))
	} else {
		sess.Send(fmt.Sprintf("%s has nothing to say to you.", tmpl.Name))
	}
	Prompt(sess, u)
}

// HandleList shows the stock of the merchant in the room.
func HandleList(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	npc, tmpl := findMerchant(u, deps)
	if npc == nil {
		sess.Send("There is no merchant here.")
		return
	}
	sess.Send(fmt.Sprintf("%s offers:", tmpl.Name))
	for _, s := range tmpl.Stock {
		itemTmpl := deps.World.ItemTemplate(s.TemplateID)
		if itemTmpl == nil {
			continue
		}
		left := npc.StockLeft[s.TemplateID]
		if left == 0 {
			continue // sold out
		}
		qty := ""
		if left > 0 {
			qty = fmt.Sprintf(" (%d left)", left)
		}
		sess.Send(fmt.Sprintf("  %-20s %s%s", itemTmpl.Name, moneyString(copperToCurrency(stockPrice(s, deps))), qty))
	}
	Prompt(sess, u)
}

// HandleBuy purchases one item from the merchant in the room.
func HandleBuy(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Buy what?")
		return
	}
	npc, tmpl := findMerchant(u, deps)
	if npc == nil {
		sess.Send("There is no merchant here.")
		return
	}
	target := strings.ToLower(strings.Join(args, " "))

	for _, s := range tmpl.Stock {
		itemTmpl := deps.World.ItemTemplate(s.TemplateID)
		if itemTmpl == nil {
			continue
		}
		if s.TemplateID != target && !strings.HasPrefix(strings.ToLower(itemTmpl.Name), target) {
			continue
		}
		if npc.StockLeft[s.TemplateID] == 0 {
			sess.Send(fmt.Sprintf("%s says: I am out of those.", tmpl.Name))
			return
		}
		price := stockPrice(s, deps)
		if u.Money.TotalCopper() < price {
			sess.Send(fmt.Sprintf("%s says: You cannot afford that.", tmpl.Name))
			return
		}
		inst, err := deps.World.SpawnItem(s.TemplateID, "merchant:"+tmpl.ID)
		if err != nil {
			sess.SendSystem("The merchant fumbles and finds nothing to sell.")
			return
		}
		u.Money = copperToCurrency(u.Money.TotalCopper() - price)
		deps.World.GiveItemToUser(inst.InstanceID, u, "")
		if npc.StockLeft[s.TemplateID] > 0 {
			npc.StockLeft[s.TemplateID]--
		}
		sess.Send(fmt.Sprintf("You buy %s for %s.", itemTmpl.Name, moneyString(copperToCurrency(price))))
		Prompt(sess, u)
		return
	}
	sess.Send(fmt.Sprintf("%s says: I do not sell that.", tmpl.Name))
}

// HandleSell sells a carried item to the merchant for half its base value.
func HandleSell(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Sell what?")
		return
	}
	npc, merchTmpl := findMerchant(u, deps)
	if npc == nil {
		sess.Send("There is no merchant here.")
		return
	}
	target := strings.ToLower(strings.Join(args, " "))
	inst, itemTmpl := findItem(u, target, deps, false)
	if inst == nil {
		sess.Send("You are not carrying that.")
		return
	}
	if itemTmpl == nil || itemTmpl.BaseValue <= 0 || itemTmpl.Type == world.ItemQuest {
		sess.Send(fmt.Sprintf("%s says: I have no use for that.", merchTmpl.Name))
		return
	}
	if inst.Soulbound && inst.BoundTo != "" {
		sess.Send("You cannot sell a bound item.")
		return
	}

	price := itemTmpl.BaseValue / 2
	if price < 1 {
		price = 1
	}
	deps.World.RemoveFromInventory(u, inst.InstanceID)
	deps.World.DestroyItem(inst.InstanceID)
	u.Money = copperToCurrency(u.Money.TotalCopper() + price)
	u.Dirty = true
	sess.Send(fmt.Sprintf("You sell %s for %s.", itemTmpl.Name, moneyString(copperToCurrency(price))))
	Prompt(sess, u)
}
