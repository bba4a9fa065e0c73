package handler

import (
	"fmt"
	"strings"

	"github.com/mudgo/server/internal/world"
)

// promptLine renders the standard vitals prompt.
func promptLine(u *world.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[HP %d/%d", u.Health, u.MaxHealth)
	if u.MaxMana > 0 {
		fmt.Fprintf(&b, " MP %d/%d", u.Mana, u.MaxMana)
	}
	if rt := world.ResourceFor(u.ClassID); rt != world.ResourceNone && rt != world.ResourceMana {
		fmt.Fprintf(&b, " %s %d/%d", strings.ToUpper(string(rt)[:2]), u.Resource, u.MaxResource)
	}
	b.WriteString("] > ")
	return b.String()
}

// moneyString renders a currency triple, skipping zero components unless
// everything is zero.
func moneyString(c world.Currency) string {
	parts := []string{}
	if c.Gold > 0 {
		parts = append(parts, fmt.Sprintf("%d gold", c.Gold))
	}
	if c.Silver > 0 {
		parts = append(parts, fmt.Sprintf("%d silver", c.Silver))
	}
	if c.Copper > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d copper", c.Copper))
	}
	return strings.Join(parts, ", ")
}

// copperToCurrency breaks a flat copper amount back into a display triple.
func copperToCurrency(copper int) world.Currency {
	return world.Currency{
		Gold:   copper / 10000,
		Silver: (copper % 10000) / 100,
		Copper: copper % 100,
	}
}
