package game_object

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-post/engine/renderer/material"
	"github.com/stretchr/testify/assert"
)

func TestNewGameObjectDefaults(t *testing.T) {
	g := NewGameObject()

	assert.True(t, g.Enabled())
	assert.NotNil(t, g.Material())
	assert.Equal(t, float32(1), g.Distance())

	x, y, w, h := g.Rect()
	assert.Equal(t, [4]float32{0, 0, 1, 1}, [4]float32{x, y, w, h})
}

func TestGameObjectOptions(t *testing.T) {
	m := material.NewMaterial(material.WithOpacity(0.5))
	g := NewGameObject(
		WithEnabled(false),
		WithMaterial(m),
		WithRect(0.25, 0.5, 0.5, 0.25),
		WithDistance(7),
	)

	assert.False(t, g.Enabled())
	assert.Same(t, m, g.Material())
	assert.Equal(t, float32(7), g.Distance())

	x, y, w, h := g.Rect()
	assert.Equal(t, [4]float32{0.25, 0.5, 0.5, 0.25}, [4]float32{x, y, w, h})
}

func TestGameObjectSetters(t *testing.T) {
	g := NewGameObject()
	g.SetID(42)
	g.SetEnabled(false)
	g.SetDistance(3)
	g.SetRect(0, 0, 0.5, 0.5)

	assert.Equal(t, uint64(42), g.ID())
	assert.False(t, g.Enabled())
	assert.Equal(t, float32(3), g.Distance())
	_, _, w, h := g.Rect()
	assert.Equal(t, float32(0.5), w)
	assert.Equal(t, float32(0.5), h)
}
