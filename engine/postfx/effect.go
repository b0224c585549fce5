package postfx

import (
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-post/engine/scene"
)

// EventPipelineModified is emitted on a scene whenever the set of effects the compositor blends
// changes. The compositor only marks itself for reconfiguration when it sees it.
const EventPipelineModified = "post-pipeline-modified"

// Effect is a post-render behavior whose output the compositor blends into the final image.
// Each effect owns one feature flag of the composite program and the uniforms that go with it.
type Effect interface {
	scene.Behavior

	// Name returns a short identifier used in logs.
	//
	// Returns:
	//   - string: the effect name
	Name() string

	// Feature returns the composite program define the effect enables.
	//
	// Returns:
	//   - shader.Feature: the feature flag
	Feature() shader.Feature

	// Uniforms returns the uniforms the effect adds to the composite program.
	//
	// Returns:
	//   - []shader.Uniform: the uniform declarations
	Uniforms() []shader.Uniform

	// Bind writes the effect's current output and parameters into the composite pipeline.
	// Called every frame before the blend, whether or not the program was rebuilt.
	//
	// Parameters:
	//   - p: the composite pipeline
	//
	// Returns:
	//   - error: an error if a uniform is rejected
	Bind(p pipeline.Pipeline) error
}
