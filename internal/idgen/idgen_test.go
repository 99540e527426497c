package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		assert.Len(t, id, Length)
		assert.NotContains(t, id, " ")
		seen[id] = true
	}
	assert.Greater(t, len(seen), 990, "IDs should be effectively unique")
}
