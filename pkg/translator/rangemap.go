package translator

import "fmt"

// Output range of every mapped value
const (
	MinValue = 0
	MaxValue = 127
)

// MapRange clamps value into [minIn, maxIn] and scales it linearly onto the
// MIDI value range, truncating toward zero.
func MapRange(value, minIn, maxIn int) int {
	return MapRangeOut(value, minIn, maxIn, MinValue, MaxValue)
}

// MapRangeOut clamps value into [minIn, maxIn] and scales it linearly onto
// [minOut, maxOut], truncating toward zero. Readings past the calibrated
// bounds saturate. A degenerate input range maps everything to minOut.
func MapRangeOut(value, minIn, maxIn, minOut, maxOut int) int {
	if maxIn <= minIn {
		return minOut
	}
	if value < minIn {
		value = minIn
	}
	if value > maxIn {
		value = maxIn
	}
	scaled := float64(value-minIn) / float64(maxIn-minIn)
	return int(float64(minOut) + scaled*float64(maxOut-minOut))
}

// Calibration holds the device-native bounds of one physical axis
type Calibration struct {
	MinIn int `json:"min_in"`
	MaxIn int `json:"max_in"`
}

// Calibration bounds measured on a right Joy-Con
var (
	CalibrationRightStickHorizontal = Calibration{MinIn: 786, MaxIn: 3682}
	CalibrationRightStickVertical   = Calibration{MinIn: 586, MaxIn: 3007}
	CalibrationGyro                 = Calibration{MinIn: -8000, MaxIn: 8000}
	CalibrationPointer              = Calibration{MinIn: -5000, MaxIn: 5000}
)

// Validate checks that the bounds describe a non-empty range
func (c Calibration) Validate() error {
	if c.MinIn >= c.MaxIn {
		return &ConfigurationError{
			Field:  "calibration",
			Reason: fmt.Sprintf("min %d must be below max %d", c.MinIn, c.MaxIn),
		}
	}
	return nil
}

// Map scales a raw reading onto the MIDI value range
func (c Calibration) Map(value int) int {
	return MapRange(value, c.MinIn, c.MaxIn)
}
