package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMaterialDefaults(t *testing.T) {
	m := NewMaterial()
	assert.Equal(t, [4]float32{1, 1, 1, 1}, m.Color())
	assert.Equal(t, float32(1), m.Opacity())
	_, ok := m.TargetOpacity()
	assert.False(t, ok)
}

func TestApplyTargetOpacity(t *testing.T) {
	m := NewMaterial(WithOpacity(1), WithTargetOpacity(0.25))

	assert.True(t, m.ApplyTargetOpacity())
	assert.Equal(t, float32(0.25), m.Opacity())
	assert.False(t, m.ApplyTargetOpacity(), "already equal")

	m.SetTargetOpacity(0.5)
	m.SetTargetOpacity(0.75)
	assert.Equal(t, float32(0.25), m.Opacity(), "writes stay pending until applied")
	assert.True(t, m.ApplyTargetOpacity())
	assert.Equal(t, float32(0.75), m.Opacity())
}

func TestApplyWithoutTargetOpacity(t *testing.T) {
	m := NewMaterial(WithOpacity(0.4))
	assert.False(t, m.ApplyTargetOpacity())
	assert.Equal(t, float32(0.4), m.Opacity())

	m.SetTargetOpacity(0.1)
	m.ClearTargetOpacity()
	assert.False(t, m.ApplyTargetOpacity())
	assert.Equal(t, float32(0.4), m.Opacity())
}
