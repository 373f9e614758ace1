// Package joycon models the input state of a Joy-Con style controller
package joycon

// ButtonID identifies one button of the controller
type ButtonID int

// Buttons, grouped the way the controller reports them
const (
	ButtonRightY ButtonID = iota
	ButtonRightX
	ButtonRightB
	ButtonRightA
	ButtonRightSR
	ButtonRightSL
	ButtonRightR
	ButtonRightZR

	ButtonMinus
	ButtonPlus
	ButtonRStick
	ButtonLStick
	ButtonHome
	ButtonCapture
	ButtonChargingGrip

	ButtonLeftDown
	ButtonLeftUp
	ButtonLeftRight
	ButtonLeftLeft
	ButtonLeftSR
	ButtonLeftSL
	ButtonLeftL
	ButtonLeftZL

	NumButtons
)

// buttonKey is the (group, key) location of a button in a status document
type buttonKey struct {
	group string
	key   string
}

var buttonKeys = [NumButtons]buttonKey{
	ButtonRightY:  {"right", "y"},
	ButtonRightX:  {"right", "x"},
	ButtonRightB:  {"right", "b"},
	ButtonRightA:  {"right", "a"},
	ButtonRightSR: {"right", "sr"},
	ButtonRightSL: {"right", "sl"},
	ButtonRightR:  {"right", "r"},
	ButtonRightZR: {"right", "zr"},

	ButtonMinus:        {"shared", "minus"},
	ButtonPlus:         {"shared", "plus"},
	ButtonRStick:       {"shared", "r-stick"},
	ButtonLStick:       {"shared", "l-stick"},
	ButtonHome:         {"shared", "home"},
	ButtonCapture:      {"shared", "capture"},
	ButtonChargingGrip: {"shared", "charging-grip"},

	ButtonLeftDown:  {"left", "down"},
	ButtonLeftUp:    {"left", "up"},
	ButtonLeftRight: {"left", "right"},
	ButtonLeftLeft:  {"left", "left"},
	ButtonLeftSR:    {"left", "sr"},
	ButtonLeftSL:    {"left", "sl"},
	ButtonLeftL:     {"left", "l"},
	ButtonLeftZL:    {"left", "zl"},
}

// String returns the dotted path of the button, e.g. "right.a"
func (b ButtonID) String() string {
	if b < 0 || b >= NumButtons {
		return "unknown"
	}
	k := buttonKeys[b]
	return k.group + "." + k.key
}

// Axis identifies one numeric reading of the controller
type Axis int

// Axes
const (
	AxisLeftStickHorizontal Axis = iota
	AxisLeftStickVertical
	AxisRightStickHorizontal
	AxisRightStickVertical
	AxisAccelX
	AxisAccelY
	AxisAccelZ
	AxisGyroX
	AxisGyroY
	AxisGyroZ

	NumAxes
)

var axisNames = [NumAxes]string{
	AxisLeftStickHorizontal:  "analog-sticks.left.horizontal",
	AxisLeftStickVertical:    "analog-sticks.left.vertical",
	AxisRightStickHorizontal: "analog-sticks.right.horizontal",
	AxisRightStickVertical:   "analog-sticks.right.vertical",
	AxisAccelX:               "accel.x",
	AxisAccelY:               "accel.y",
	AxisAccelZ:               "accel.z",
	AxisGyroX:                "gyro.x",
	AxisGyroY:                "gyro.y",
	AxisGyroZ:                "gyro.z",
}

// String returns the dotted path of the axis
func (a Axis) String() string {
	if a < 0 || a >= NumAxes {
		return "unknown"
	}
	return axisNames[a]
}

// Battery is the battery report of the controller
type Battery struct {
	Charging bool `json:"charging"`
	Level    int  `json:"level"` // 0-4
}

// Stick is a two-axis analog stick reading
type Stick struct {
	Horizontal int
	Vertical   int
}

// Vector3 is a three-axis motion sensor reading
type Vector3 struct {
	X int
	Y int
	Z int
}

// Snapshot is one instant of controller state. It is a plain value:
// copying it copies every reading.
type Snapshot struct {
	Battery Battery
	Buttons [NumButtons]bool
	Left    Stick
	Right   Stick
	Accel   Vector3
	Gyro    Vector3
}

// Pressed reports whether a button is held down
func (s Snapshot) Pressed(b ButtonID) bool {
	if b < 0 || b >= NumButtons {
		return false
	}
	return s.Buttons[b]
}

// Axis returns the raw device-native value of an axis
func (s Snapshot) Axis(a Axis) int {
	switch a {
	case AxisLeftStickHorizontal:
		return s.Left.Horizontal
	case AxisLeftStickVertical:
		return s.Left.Vertical
	case AxisRightStickHorizontal:
		return s.Right.Horizontal
	case AxisRightStickVertical:
		return s.Right.Vertical
	case AxisAccelX:
		return s.Accel.X
	case AxisAccelY:
		return s.Accel.Y
	case AxisAccelZ:
		return s.Accel.Z
	case AxisGyroX:
		return s.Gyro.X
	case AxisGyroY:
		return s.Gyro.Y
	case AxisGyroZ:
		return s.Gyro.Z
	}
	return 0
}

// WithButton returns a copy of the snapshot with one button set
func (s Snapshot) WithButton(b ButtonID, pressed bool) Snapshot {
	if b >= 0 && b < NumButtons {
		s.Buttons[b] = pressed
	}
	return s
}

// WithAxis returns a copy of the snapshot with one axis set
func (s Snapshot) WithAxis(a Axis, v int) Snapshot {
	switch a {
	case AxisLeftStickHorizontal:
		s.Left.Horizontal = v
	case AxisLeftStickVertical:
		s.Left.Vertical = v
	case AxisRightStickHorizontal:
		s.Right.Horizontal = v
	case AxisRightStickVertical:
		s.Right.Vertical = v
	case AxisAccelX:
		s.Accel.X = v
	case AxisAccelY:
		s.Accel.Y = v
	case AxisAccelZ:
		s.Accel.Z = v
	case AxisGyroX:
		s.Gyro.X = v
	case AxisGyroY:
		s.Gyro.Y = v
	case AxisGyroZ:
		s.Gyro.Z = v
	}
	return s
}
