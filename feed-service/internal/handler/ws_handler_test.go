package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"http://localhost:3000", "https://app.pokedex.example"}

	t.Run("Listed origin is accepted", func(t *testing.T) {
		assert.True(t, originAllowed("http://localhost:3000", allowed))
		assert.True(t, originAllowed("https://app.pokedex.example", allowed))
	})

	t.Run("Origin match is case-insensitive", func(t *testing.T) {
		assert.True(t, originAllowed("HTTP://LOCALHOST:3000", allowed))
	})

	t.Run("Unlisted origin is rejected", func(t *testing.T) {
		assert.False(t, originAllowed("https://evil.example", allowed))
		assert.False(t, originAllowed("http://localhost:3001", allowed))
	})

	t.Run("Empty origin passes for non-browser clients", func(t *testing.T) {
		assert.True(t, originAllowed("", allowed))
	})

	t.Run("Wildcard allows everything", func(t *testing.T) {
		assert.True(t, originAllowed("https://anything.example", []string{"*"}))
	})
}
