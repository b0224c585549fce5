package scene

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-post/engine/camera"
	"github.com/Carmen-Shannon/oxy-post/engine/game_object"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene(t *testing.T, width, height uint32, options ...SceneBuilderOption) Scene {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil,
		renderer.WithHeadlessSize(width, height),
		renderer.WithWorkers(2),
		renderer.WithShaderValidation(false),
	)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return NewScene("test", camera.NewCamera(camera.WithClipPlanes(1, 10)), r, options...)
}

// recordingBehavior appends its name to a shared log on every hook.
type recordingBehavior struct {
	name      string
	stage     Stage
	log       *[]string
	attachErr error
	tockErr   error
	detached  bool
}

func (b *recordingBehavior) Stage() Stage { return b.stage }

func (b *recordingBehavior) Attach(s Scene) error {
	*b.log = append(*b.log, "attach:"+b.name)
	return b.attachErr
}

func (b *recordingBehavior) Detach(s Scene) {
	b.detached = true
	*b.log = append(*b.log, "detach:"+b.name)
}

func (b *recordingBehavior) Tick(s Scene, deltaTime float32) error {
	*b.log = append(*b.log, "tick:"+b.name)
	return nil
}

func (b *recordingBehavior) Tock(s Scene, deltaTime float32) error {
	*b.log = append(*b.log, "tock:"+b.name)
	return b.tockErr
}

func TestEventsDeliveredInSubscriptionOrder(t *testing.T) {
	s := newTestScene(t, 2, 2)
	var got []int
	s.On("changed", func() { got = append(got, 1) })
	unsubscribe := s.On("changed", func() { got = append(got, 2) })
	s.On("changed", func() { got = append(got, 3) })
	s.On("other", func() { got = append(got, 99) })

	s.Emit("changed")
	assert.Equal(t, []int{1, 2, 3}, got)

	got = nil
	unsubscribe()
	unsubscribe()
	s.Emit("changed")
	assert.Equal(t, []int{1, 3}, got)

	got = nil
	s.Emit("nobody-listens")
	assert.Empty(t, got)
}

func TestHandlerMayEmitAndSubscribe(t *testing.T) {
	s := newTestScene(t, 2, 2)
	count := 0
	s.On("outer", func() {
		s.On("inner", func() { count++ })
		s.Emit("inner")
	})
	s.Emit("outer")
	assert.Equal(t, 1, count)
}

func TestBehaviorsRunInStageOrder(t *testing.T) {
	s := newTestScene(t, 2, 2)
	var log []string
	composite := &recordingBehavior{name: "composite", stage: StageComposite, log: &log}
	bloom := &recordingBehavior{name: "bloom", stage: StageEffect, log: &log}
	glow := &recordingBehavior{name: "glow", stage: StageEffect, log: &log}

	require.NoError(t, s.AddBehavior(composite))
	require.NoError(t, s.AddBehavior(bloom))
	require.NoError(t, s.AddBehavior(glow))
	assert.ErrorIs(t, s.AddBehavior(bloom), ErrBehaviorAttached)

	log = nil
	require.NoError(t, s.Tick(0.016))
	require.NoError(t, s.Tock(0.016))
	assert.Equal(t, []string{
		"tick:bloom", "tick:glow", "tick:composite",
		"tock:bloom", "tock:glow", "tock:composite",
	}, log)

	s.RemoveBehavior(glow)
	assert.True(t, glow.detached)
	assert.Len(t, s.Behaviors(), 2)
}

func TestAttachFailureDoesNotRegister(t *testing.T) {
	s := newTestScene(t, 2, 2)
	var log []string
	b := &recordingBehavior{name: "broken", log: &log, attachErr: errors.New("no gpu")}
	assert.Error(t, s.AddBehavior(b))
	assert.Empty(t, s.Behaviors())
}

func TestTockStopsAtFirstError(t *testing.T) {
	s := newTestScene(t, 2, 2)
	var log []string
	boom := errors.New("compile failed")
	require.NoError(t, s.AddBehavior(&recordingBehavior{name: "a", log: &log, tockErr: boom}))
	require.NoError(t, s.AddBehavior(&recordingBehavior{name: "b", stage: StageComposite, log: &log}))

	log = nil
	assert.ErrorIs(t, s.Tock(0), boom)
	assert.Equal(t, []string{"tock:a"}, log)
}

func TestReleaseDetachesInReverseOrder(t *testing.T) {
	s := newTestScene(t, 2, 2)
	var log []string
	require.NoError(t, s.AddBehavior(&recordingBehavior{name: "a", log: &log}))
	require.NoError(t, s.AddBehavior(&recordingBehavior{name: "b", stage: StageComposite, log: &log}))

	log = nil
	s.Release()
	assert.Equal(t, []string{"detach:b", "detach:a"}, log)
	assert.Empty(t, s.Behaviors())
}

func TestObjectsRegistry(t *testing.T) {
	preset := game_object.NewGameObject()
	s := newTestScene(t, 2, 2, WithObjects(preset))
	assert.Equal(t, uint64(1), preset.ID())

	id := s.Add(game_object.NewGameObject())
	assert.Equal(t, uint64(2), id)
	assert.Equal(t, 2, s.Count())
	assert.NotNil(t, s.Get(id))

	objects := s.Objects()
	require.Len(t, objects, 2)
	assert.Equal(t, uint64(1), objects[0].ID())

	s.Remove(id)
	assert.Nil(t, s.Get(id))
	s.Clear()
	assert.Zero(t, s.Count())
}

func TestRenderDrawsNearestObject(t *testing.T) {
	s := newTestScene(t, 4, 4)
	rt, err := s.Renderer().CreateRenderTarget("scene", renderer.RenderTargetDescriptor{Width: 4, Height: 4, Depth: true})
	require.NoError(t, err)
	s.SetRenderTarget(rt)

	far := game_object.NewGameObject(
		game_object.WithMaterial(material.NewMaterial(material.WithColor([4]float32{1, 0, 0, 1}))),
		game_object.WithDistance(8),
	)
	near := game_object.NewGameObject(
		game_object.WithMaterial(material.NewMaterial(material.WithColor([4]float32{0, 1, 0, 1}), material.WithOpacity(0.5))),
		game_object.WithRect(0, 0, 0.5, 1),
		game_object.WithDistance(2),
	)
	hidden := game_object.NewGameObject(game_object.WithEnabled(false), game_object.WithDistance(1.5))
	s.Add(far)
	s.Add(near)
	s.Add(hidden)

	require.NoError(t, s.Render())
	st := rt.(renderer.SoftwareRenderTarget)

	// right half: only the far object, opaque over a transparent clear
	assert.Equal(t, [4]float32{1, 0, 0, 1}, st.Pixel(3, 1))
	assert.InDelta(t, s.Camera().DepthAt(8), st.Depth(3, 1), 1e-6)

	// left half: the near object blended over the far one
	left := st.Pixel(0, 2)
	assert.InDelta(t, 0.5, left[0], 1e-6)
	assert.InDelta(t, 0.5, left[1], 1e-6)
	assert.InDelta(t, 1.0, left[3], 1e-6)
	assert.InDelta(t, s.Camera().DepthAt(2), st.Depth(0, 2), 1e-6)
}

func TestRenderUncoveredPixelsKeepClearAlpha(t *testing.T) {
	s := newTestScene(t, 2, 2)
	s.Add(game_object.NewGameObject(game_object.WithRect(0, 0, 0.5, 0.5)))
	require.NoError(t, s.Render())

	surface, ok := renderer.SoftwareSurface(s.Renderer())
	require.True(t, ok)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, surface.Pixel(0, 0))
	assert.Equal(t, [4]float32{0, 0, 0, 0}, surface.Pixel(1, 1))
}

func TestRenderSkipsEmptyTarget(t *testing.T) {
	s := newTestScene(t, 2, 2)
	rt, err := s.Renderer().CreateRenderTarget("scene", renderer.RenderTargetDescriptor{Depth: true})
	require.NoError(t, err)
	s.SetRenderTarget(rt)
	assert.NoError(t, s.Render())
}
