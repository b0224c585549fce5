package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyB     = 66 // B key (ASCII), toggles the bloom effect in the demos
	KeyP     = 80 // P key (ASCII), toggles the post-processing stage in the demos
	KeyEqual = 61 // = key (ASCII), raises bloom intensity
	KeyMinus = 45 // - key (ASCII), lowers bloom intensity
)
