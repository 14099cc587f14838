package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs(t *testing.T) {
	g := NewSequentialIDs("h")
	assert.Equal(t, "h-1", g.NewID())
	assert.Equal(t, "h-2", g.NewID())
	assert.Equal(t, "h-3", g.NewID())
}

func TestSequentialIDs_DefaultPrefix(t *testing.T) {
	g := NewSequentialIDs("")
	assert.Equal(t, "habit-1", g.NewID())
}
