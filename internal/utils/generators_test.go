package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-ordering/internal/utils"
)

func TestGenerateOrderID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := utils.GenerateOrderID()
		assert.True(t, utils.ValidOrderID(id), "generated id %q must match the format", id)
		seen[id] = true
	}
	// 36^5 codes; 1000 draws colliding this hard would mean a broken generator
	assert.Greater(t, len(seen), 990)
}

func TestValidOrderID(t *testing.T) {
	valid := []string{"VP4K9QZ", "VPAAAAA", "VP00000"}
	for _, id := range valid {
		assert.True(t, utils.ValidOrderID(id), id)
	}

	invalid := []string{
		"",
		"VP",
		"VP4K9Q",    // too short
		"VP4K9QZZ",  // too long
		"XX4K9QZ",   // wrong prefix
		"vp4k9qz",   // lowercase
		"VP4K9Q!",   // punctuation
		"VP4K9 Z",   // whitespace
		" VP4K9QZ",  // leading space
	}
	for _, id := range invalid {
		assert.False(t, utils.ValidOrderID(id), "%q must be rejected", id)
	}
}
