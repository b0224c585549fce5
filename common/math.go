package common

import "github.com/chewxy/math32"

// Perspective returns a column-major, right-handed projection with a [0, 1] depth range: view
// distance near lands on depth 0 and far on depth 1.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: width over height
//   - near: near plane distance, must be > 0
//   - far: far plane distance, must be > near
//
// Returns:
//   - [16]float32: the projection matrix
func Perspective(fovY, aspect, near, far float32) [16]float32 {
	focal := 1 / math32.Tan(fovY/2)
	depthRange := near - far

	var m [16]float32
	m[0] = focal / aspect
	m[5] = focal
	m[10] = far / depthRange
	m[11] = -1
	m[14] = near * far / depthRange
	return m
}
