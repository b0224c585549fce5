package postfx

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-post/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/shader"
)

// permutationCache keeps every compiled composite pipeline by feature set, so an effect set that
// recurs (bloom toggled off then on) swaps back to its pipeline without recompiling. The feature
// set fully determines the composite uniforms: configure skips any effect whose uniforms differ
// from featureUniforms.
type permutationCache struct {
	mu      sync.Mutex
	entries map[shader.FeatureSet]pipeline.Pipeline
	hits    int
	misses  int
}

func newPermutationCache() *permutationCache {
	return &permutationCache{entries: make(map[shader.FeatureSet]pipeline.Pipeline)}
}

// Get looks up the pipeline of a feature set and counts the hit or miss.
func (c *permutationCache) Get(features shader.FeatureSet) (pipeline.Pipeline, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[features]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return p, ok
}

// Put stores the pipeline of a feature set.
func (c *permutationCache) Put(features shader.FeatureSet, p pipeline.Pipeline) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[features] = p
}

// Stats returns the hit and miss counts.
func (c *permutationCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached permutations.
func (c *permutationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Drain empties the cache and returns what it held.
func (c *permutationCache) Drain() []pipeline.Pipeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]pipeline.Pipeline, 0, len(c.entries))
	for k, p := range c.entries {
		out = append(out, p)
		delete(c.entries, k)
	}
	return out
}
