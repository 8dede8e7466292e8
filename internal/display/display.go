// Package display tracks the reader's cached view of the screen it maps
// touch and trackball coordinates onto.
package display

// Orientation is one of the four cardinal display rotations.
type Orientation int32

const (
	Rotation0 Orientation = iota
	Rotation90
	Rotation180
	Rotation270
)

// Properties is the reader's cached display geometry. The zero value is
// not meaningful on its own; use Unknown() for the "not yet refreshed"
// sentinel the reader resets to on failure.
type Properties struct {
	Width       int32
	Height      int32
	Orientation Orientation
}

// Unknown returns the initial/reset value: all-negative, meaning "no
// display info yet".
func Unknown() Properties {
	return Properties{Width: -1, Height: -1, Orientation: -1}
}

// Known reports whether a refresh has ever succeeded.
func (p Properties) Known() bool {
	return p.Width >= 0
}

// OrientedSize returns (width, height) swapped at 90/270 degrees, the
// dimensions edge-flag computation must use.
func (p Properties) OrientedSize() (width, height int32) {
	switch p.Orientation {
	case Rotation90, Rotation270:
		return p.Height, p.Width
	default:
		return p.Width, p.Height
	}
}
