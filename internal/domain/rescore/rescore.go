// Package rescore recomputes the normalized accuracy score ("wifescore") of
// a replay under a configurable judge and scoring policy.
//
// Only 4k replays are supported: all notes beyond the first four lanes are
// discarded.
package rescore

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/riff/internal/domain/model"
)

// NumLanes is the number of lanes this path supports.
const NumLanes = 4

// LaneSeries holds one lane's note positions and hit instants, both in
// seconds. The two series intentionally differ in length when notes were
// missed; misses contribute no hit entry.
type LaneSeries struct {
	NoteSeconds []float32
	HitSeconds  []float32
}

// SplitIntoLanes distributes a replay's notes across the four lanes.
//
// Every note must carry a lane and a note type; if the replay's schema lacks
// either, the second return is false and the caller must treat the replay as
// unscorable rather than as a zero score. Only taps and hold heads count
// toward tap accuracy; mines, lifts, fakes and hold tails are excluded, as
// are notes beyond lane 3.
func SplitIntoLanes(r *model.Replay) ([NumLanes]LaneSeries, bool) {
	var lanes [NumLanes]LaneSeries

	for _, note := range r.Notes {
		if note.Lane == nil || note.NoteType == nil {
			return lanes, false
		}

		if *note.NoteType != model.NoteTypeTap && *note.NoteType != model.NoteTypeHoldHead {
			continue
		}
		if *note.Lane >= NumLanes {
			continue
		}

		lane := &lanes[*note.Lane]
		lane.NoteSeconds = append(lane.NoteSeconds, note.Time)
		if deviation, ok := note.Hit.Deviation(); ok {
			lane.HitSeconds = append(lane.HitSeconds, note.Time+deviation)
		}
	}

	return lanes, true
}

// Rescore recomputes the replay's wifescore.
//
// The second return is false when the replay lacks the lane/note-type schema
// required by SplitIntoLanes. Note and hit series are sorted separately; the
// scoring systems match by time proximity, not by index, so losing positional
// correspondence is fine.
//
// Panics if any time value is NaN: that indicates a parser defect upstream
// and must not propagate silently into a score.
func Rescore(r *model.Replay, numHitMines, numDroppedHolds uint32, judge Judge, system ScoringSystem) (model.Wifescore, bool) {
	lanes, ok := SplitIntoLanes(r)
	if !ok {
		return 0, false
	}

	var points float64
	var numNotes int
	for i := range lanes {
		sortSeconds(lanes[i].NoteSeconds)
		sortSeconds(lanes[i].HitSeconds)
		points += system.EvaluateLane(lanes[i], judge)
		numNotes += len(lanes[i].NoteSeconds)
	}

	points += float64(numHitMines) * mineHitWeight
	points += float64(numDroppedHolds) * holdDropWeight

	if numNotes == 0 {
		return model.WifescoreFromProportion(0), true
	}
	return model.WifescoreFromProportion(float32(points / (maxPoints * float64(numNotes)))), true
}

func sortSeconds(s []float32) {
	for _, v := range s {
		if math.IsNaN(float64(v)) {
			panic(fmt.Sprintf("NaN time value in replay lane series: %v", s))
		}
	}
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}
