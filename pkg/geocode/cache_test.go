package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutOverwrites(t *testing.T) {
	c := newCache()

	_, ok := c.get("Fano")
	assert.False(t, ok)

	c.put("Fano", Result{Latitude: 43.84, Longitude: 13.01})
	c.put("Fano", Result{Latitude: 43.8396, Longitude: 13.0194})

	r, ok := c.get("Fano")
	require.True(t, ok)
	assert.Equal(t, 43.8396, r.Latitude)
	assert.Equal(t, 1, c.len())
}

func TestCache_KeyIsExact(t *testing.T) {
	c := newCache()
	c.put("Fano", Result{Latitude: 43.8396})

	_, ok := c.get("fano")
	assert.False(t, ok)
	_, ok = c.get("Fano ")
	assert.False(t, ok)
	assert.Equal(t, 1, c.len())
}
