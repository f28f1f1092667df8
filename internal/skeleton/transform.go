package skeleton

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SensorTransform converts sensor-space positions into world space.
// The sensor sits Height metres above the floor, tilted by AngleDegrees.
type SensorTransform struct {
	Height       float64
	AngleDegrees float64
}

// Apply maps a sensor-space point into world space.
func (t SensorTransform) Apply(p r3.Vec) r3.Vec {
	if t.AngleDegrees != 0 {
		p = r3.Rotate(p, -t.AngleDegrees*math.Pi/180, r3.Vec{X: 1})
	}
	return r3.Add(p, r3.Vec{Y: t.Height})
}
