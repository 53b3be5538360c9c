package rescore

import "math"

// Wife3 curve constants. Weights are expressed in points per note, where a
// perfect hit is worth maxPoints.
const (
	maxPoints       = 2.0
	missWeight      = -5.5
	mineHitWeight   = -7.0
	holdDropWeight  = -4.5
	ridiculousBase  = 5.0   // ms, scaled linearly with the judge
	zeroBase        = 65.0  // ms, scaled with ts^0.75
	deviationBase   = 22.7  // ms, scaled with ts^0.75
	booWindowBase   = 180.0 // ms, scaled linearly with the judge
	timingScalePow  = 0.75
	millisPerSecond = 1000.0
)

// Judge scales the timing windows. J4 is the neutral baseline.
type Judge struct {
	Name        string
	TimingScale float64
}

// The standard judge presets.
var (
	Judge1 = Judge{Name: "J1", TimingScale: 1.50}
	Judge2 = Judge{Name: "J2", TimingScale: 1.33}
	Judge3 = Judge{Name: "J3", TimingScale: 1.16}
	Judge4 = Judge{Name: "J4", TimingScale: 1.00}
	Judge5 = Judge{Name: "J5", TimingScale: 0.84}
	Judge6 = Judge{Name: "J6", TimingScale: 0.66}
	Judge7 = Judge{Name: "J7", TimingScale: 0.50}
	Judge8 = Judge{Name: "J8", TimingScale: 0.33}
	Judge9 = Judge{Name: "J9", TimingScale: 0.20}
)

// wife3 returns the points for a hit with the given absolute deviation in
// milliseconds: full points inside the ridiculous window, an erf falloff
// through the timing window, a linear descent to the miss weight across the
// boo window, and the miss weight beyond it.
func wife3(absDeviationMS float64, judge Judge) float64 {
	ts := judge.TimingScale
	ridiculous := ridiculousBase * ts
	zero := zeroBase * math.Pow(ts, timingScalePow)
	dev := deviationBase * math.Pow(ts, timingScalePow)
	maxBoo := booWindowBase * ts

	switch {
	case absDeviationMS <= ridiculous:
		return maxPoints
	case absDeviationMS <= zero:
		return maxPoints * math.Erf((zero-absDeviationMS)/dev)
	case absDeviationMS <= maxBoo:
		return (absDeviationMS - zero) * missWeight / (maxBoo - zero)
	default:
		return missWeight
	}
}
