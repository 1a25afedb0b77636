package samsara

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagIndexResolvesNamesCaseInsensitively(t *testing.T) {
	idx := NewTagIndex([]Tag{
		{ID: "t1", Name: "Austin"},
		{ID: "t2", Name: "ManagedBy:EncompassSync"},
	})

	for _, name := range []string{"Austin", "AUSTIN", "austin", " Austin "} {
		id, ok := idx.IDFor(name)
		assert.True(t, ok, name)
		assert.Equal(t, "t1", id, name)
	}

	id, ok := idx.IDFor("managedby:encompasssync")
	assert.True(t, ok)
	assert.Equal(t, "t2", id)

	_, ok = idx.IDFor("Dallas")
	assert.False(t, ok)
}

func TestTagIndexNameForKeepsOriginalCasing(t *testing.T) {
	idx := NewTagIndex([]Tag{{ID: "t1", Name: "Austin"}})
	name, ok := idx.NameFor("t1")
	assert.True(t, ok)
	assert.Equal(t, "Austin", name)
}
