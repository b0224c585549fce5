package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-post/common"
)

// cameraImpl is the implementation of the Camera interface.
type cameraImpl struct {
	mu *sync.Mutex

	fov    float32
	aspect float32
	near   float32
	far    float32

	projectionMatrix [16]float32
}

// Camera describes the perspective projection the scene is rendered with. The post-processing stage
// only needs its clip planes: depth samples are in the projection's [0, 1] range and are linearized
// back to view distance with the same near and far values.
type Camera interface {
	// Fov retrieves the vertical field of view in radians.
	//
	// Returns:
	//   - float32: the field of view
	Fov() float32

	// Aspect retrieves the viewport aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near retrieves the near clip plane distance.
	//
	// Returns:
	//   - float32: the near distance
	Near() float32

	// Far retrieves the far clip plane distance.
	//
	// Returns:
	//   - float32: the far distance
	Far() float32

	// ProjectionMatrix retrieves the column-major projection matrix.
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// DepthAt returns the depth buffer value the projection produces for a point at the given view distance.
	// Distances at or below near map to 0, at or beyond far to 1.
	//
	// Parameters:
	//   - dist: the view-space distance along the view direction
	//
	// Returns:
	//   - float32: the [0, 1] depth value
	DepthAt(dist float32) float32

	// LinearDistance inverts DepthAt, turning a [0, 1] depth value back into a view distance.
	//
	// Parameters:
	//   - depth: the depth buffer value
	//
	// Returns:
	//   - float32: the view distance between near and far
	LinearDistance(depth float32) float32

	// SetFov sets the vertical field of view in radians.
	SetFov(fov float32)

	// SetAspect sets the viewport aspect ratio. The engine calls it on every surface resize.
	SetAspect(aspect float32)

	// SetNear sets the near clip plane distance.
	SetNear(near float32)

	// SetFar sets the far clip plane distance.
	SetFar(far float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with a 45 degree field of view, square aspect, near 0.1 and far 100.
//
// Parameters:
//   - options: variadic list of CameraBuilderOption functions to configure the camera
//
// Returns:
//   - Camera: a new Camera instance
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		fov:    45.0 * (math.Pi / 180.0), // radians
		aspect: 1.0,
		near:   0.1,
		far:    100.0,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) DepthAt(dist float32) float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if dist <= c.near {
		return 0
	}
	if dist >= c.far {
		return 1
	}
	return c.far * (dist - c.near) / ((c.far - c.near) * dist)
}

func (c *cameraImpl) LinearDistance(depth float32) float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near * c.far / (c.far - depth*(c.far-c.near))
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

// updateMatrices rebuilds the projection matrix. Caller must hold c.mu.
func (c *cameraImpl) updateMatrices() {
	c.projectionMatrix = common.Perspective(c.fov, c.aspect, c.near, c.far)
}
