package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	t.Run("valid names", func(t *testing.T) {
		for _, name := range []string{"bob", "alice_99", "x_1", strings.Repeat("a", 12)} {
			assert.NoError(t, ValidateUsername(name), name)
		}
	})

	t.Run("length boundaries", func(t *testing.T) {
		assert.Error(t, ValidateUsername("ab"))
		assert.NoError(t, ValidateUsername("abc"))
		assert.NoError(t, ValidateUsername(strings.Repeat("a", 12)))
		assert.Error(t, ValidateUsername(strings.Repeat("a", 13)))
		assert.Error(t, ValidateUsername(""))
	})

	t.Run("character set", func(t *testing.T) {
		assert.Error(t, ValidateUsername("Alice"))   // uppercase: must be folded first
		assert.Error(t, ValidateUsername("bad name"))
		assert.Error(t, ValidateUsername("b-b"))
		assert.Error(t, ValidateUsername("semi;colon"))
	})

	t.Run("reserved names", func(t *testing.T) {
		for _, name := range []string{"admin", "root", "system", "god"} {
			assert.Error(t, ValidateUsername(name), name)
		}
	})
}
