package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue(t *testing.T) {
	var q Queue[string]
	assert.Equal(t, 0, q.Len())

	_, paired := q.Join("a")
	assert.False(t, paired)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, "a", q.waiting)

	partner, paired := q.Join("b")
	assert.True(t, paired)
	assert.Equal(t, "a", partner)
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.waiting)
}

func TestQueue_Remove(t *testing.T) {
	var q Queue[string]
	assert.False(t, q.Remove("a"))

	q.Join("a")
	assert.False(t, q.Remove("b"))
	assert.Equal(t, 1, q.Len())

	assert.True(t, q.Remove("a"))
	assert.Equal(t, 0, q.Len())

	// the slot is free again
	_, paired := q.Join("c")
	assert.False(t, paired)
}
