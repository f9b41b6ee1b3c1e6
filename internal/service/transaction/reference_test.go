package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReference(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := NewReference()
		require.Len(t, ref, 10)
		for _, c := range ref {
			assert.True(t, (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'),
				"unexpected character %q in %s", c, ref)
		}
		assert.False(t, seen[ref], "duplicate reference %s after %d draws", ref, i)
		seen[ref] = true
	}
}
