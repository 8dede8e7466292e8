// Package touch implements the algorithmic core of touch handling: the
// coordinate mapper, pointer identity assignment, the optional filters,
// and the dispatch orchestrator
// that turns id-set diffs into an ordered sequence of motion events.
package touch

import (
	"github.com/char5742/inputreader/internal/device"
	"github.com/char5742/inputreader/internal/display"
	"github.com/char5742/inputreader/internal/dispatch"
)

// PrecalculatePressureSize derives the pressure/size origin and scale from
// axis calibration alone; these do not depend on display size.
func PrecalculatePressureSize(params device.TouchAxisParameters) (pressureOrigin int32, pressureScale float32, sizeOrigin int32, sizeScale float32) {
	if params.PressureAxis.Valid {
		pressureOrigin = params.PressureAxis.Min
		pressureScale = 1.0 / float32(params.PressureAxis.Range)
	} else {
		pressureOrigin = 0
		pressureScale = 1.0
	}
	if params.SizeAxis.Valid {
		sizeOrigin = params.SizeAxis.Min
		sizeScale = 1.0 / float32(params.SizeAxis.Range)
	} else {
		sizeOrigin = 0
		sizeScale = 1.0
	}
	return
}

// PrecalculateXY derives the x/y origin and scale from axis calibration
// and the current display size. When the display size is not yet known
// (width < 0), scale is identity so events still flow, just unmapped.
func PrecalculateXY(params device.TouchAxisParameters, displayWidth, displayHeight int32) (xOrigin int32, xScale float32, yOrigin int32, yScale float32, virtualKeysReady bool) {
	if !params.XAxis.Valid || !params.YAxis.Valid {
		return 0, 1, 0, 1, false
	}

	xOrigin = params.XAxis.Min
	yOrigin = params.YAxis.Min

	if displayWidth < 0 {
		return xOrigin, 1, yOrigin, 1, false
	}

	xScale = float32(displayWidth) / float32(params.XAxis.Range)
	yScale = float32(displayHeight) / float32(params.YAxis.Range)
	return xOrigin, xScale, yOrigin, yScale, true
}

// MapPoint maps one raw touch-screen pointer into display coordinates,
// applying the display's current rotation.
func MapPoint(p device.Pointer, precalc device.TouchPrecalculated, orientation display.Orientation, displayWidth, displayHeight int32) dispatch.PointerCoords {
	x := float32(p.X-precalc.XOrigin) * precalc.XScale
	y := float32(p.Y-precalc.YOrigin) * precalc.YScale
	pressure := float32(p.Pressure-precalc.PressureOrigin) * precalc.PressureScale
	size := float32(p.Size-precalc.SizeOrigin) * precalc.SizeScale

	switch orientation {
	case display.Rotation90:
		x, y = y, float32(displayWidth)-x
	case display.Rotation180:
		x, y = float32(displayWidth)-x, float32(displayHeight)-y
	case display.Rotation270:
		x, y = float32(displayHeight)-y, x
	}

	return dispatch.PointerCoords{X: x, Y: y, Pressure: pressure, Size: size}
}

// MapTrackballDelta maps one trackball frame's relative motion into
// display-space deltas, applying the display's current rotation with the
// sign flips appropriate for deltas rather than absolute positions.
func MapTrackballDelta(relX, relY int32, precalc device.TrackballPrecalculated, orientation display.Orientation) dispatch.PointerCoords {
	x := float32(relX) * precalc.XScale
	y := float32(relY) * precalc.YScale

	switch orientation {
	case display.Rotation90:
		x, y = y, -x
	case display.Rotation180:
		x, y = -x, -y
	case display.Rotation270:
		x, y = -y, x
	}

	return dispatch.PointerCoords{X: x, Y: y, Pressure: 1.0, Size: 0}
}

// EdgeFlags computes the DOWN-only edge flags from the first emitted
// pointer's mapped coordinates, per the fixed contract: flags are global
// to the event and only ever derived from pointer index 0.
func EdgeFlags(first dispatch.PointerCoords, orientedWidth, orientedHeight int32) int32 {
	var flags int32
	if first.X <= 0 {
		flags |= dispatch.EdgeFlagLeft
	} else if first.X >= float32(orientedWidth) {
		flags |= dispatch.EdgeFlagRight
	}
	if first.Y <= 0 {
		flags |= dispatch.EdgeFlagTop
	} else if first.Y >= float32(orientedHeight) {
		flags |= dispatch.EdgeFlagBottom
	}
	return flags
}
