package pipeline

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithDepth controls the depth test (Less) and depth writes. Both only take effect when the
// bound target carries a depth attachment.
//
// Parameters:
//   - test: reject fragments behind the stored depth
//   - write: store the depth of fragments that pass
//
// Returns:
//   - PipelineBuilderOption: a function that sets the pipeline's depth state
func WithDepth(test, write bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = test
		p.depthWriteEnabled = write
	}
}

// WithAlphaBlend turns on source-over blending, so a fragment's alpha masks what it covers.
// Scene objects draw with it to leave transparent black wherever nothing was drawn.
func WithAlphaBlend() PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = true
	}
}
