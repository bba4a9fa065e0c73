package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDoubleBuffering(t *testing.T) {
	b := NewBus()
	var got []NpcKilled
	Subscribe(b, func(e NpcKilled) { got = append(got, e) })

	Emit(b, NpcKilled{TemplateID: "rat"})

	// Same tick: nothing delivered yet.
	b.DispatchAll()
	assert.Empty(t, got)

	// Next tick: the event surfaces.
	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1)
	assert.Equal(t, "rat", got[0].TemplateID)

	// And it is not delivered twice.
	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1)
}

func TestBusTypedRouting(t *testing.T) {
	b := NewBus()
	var kills, deaths int
	Subscribe(b, func(NpcKilled) { kills++ })
	Subscribe(b, func(PlayerDied) { deaths++ })

	Emit(b, NpcKilled{})
	Emit(b, NpcKilled{})
	Emit(b, PlayerDied{})

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, 2, kills)
	assert.Equal(t, 1, deaths)
}

func TestBusMultipleHandlers(t *testing.T) {
	b := NewBus()
	var a, c int
	Subscribe(b, func(LevelUp) { a++ })
	Subscribe(b, func(LevelUp) { c++ })

	Emit(b, LevelUp{Username: "alice", NewLevel: 2})
	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, c)
}
