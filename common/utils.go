package common

// Coalesce picks the first argument that is not the zero value of T, falling back to zero.
// Builder defaults and wgpu descriptors lean on it to fill unset fields.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
