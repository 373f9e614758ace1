package joycon

// Range is the observed minimum and maximum of one axis
type Range struct {
	Min int
	Max int
}

// Extrema tracks the observed range of every axis over a run of snapshots.
// It is used to derive calibration bounds for a particular controller.
type Extrema struct {
	ranges [NumAxes]Range
	count  int
}

// Observe widens the tracked ranges with a snapshot
func (e *Extrema) Observe(s Snapshot) {
	for a := Axis(0); a < NumAxes; a++ {
		v := s.Axis(a)
		if e.count == 0 {
			e.ranges[a] = Range{Min: v, Max: v}
			continue
		}
		if v < e.ranges[a].Min {
			e.ranges[a].Min = v
		}
		if v > e.ranges[a].Max {
			e.ranges[a].Max = v
		}
	}
	e.count++
}

// Range returns the observed range of an axis
func (e *Extrema) Range(a Axis) Range {
	if a < 0 || a >= NumAxes {
		return Range{}
	}
	return e.ranges[a]
}

// Count returns the number of observed snapshots
func (e *Extrema) Count() int {
	return e.count
}
