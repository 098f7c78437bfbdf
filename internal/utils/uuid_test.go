package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEntryID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewEntryID()
		require.Len(t, id, 12)
		require.NotContains(t, id, "-")
		require.False(t, seen[id], "ids must not repeat")
		seen[id] = true
	}
}
