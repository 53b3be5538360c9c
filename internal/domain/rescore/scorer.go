package rescore

import "math"

// ScoringSystem turns one lane's note and hit series into wife3 points.
// Both series arrive sorted ascending; their lengths may differ because
// misses contribute no hit entry. Notes the system leaves unmatched carry
// the miss weight.
type ScoringSystem interface {
	// EvaluateLane returns the summed points for the lane, miss penalties
	// included.
	EvaluateLane(lane LaneSeries, judge Judge) float64
}

// NaiveScorer pairs the k-th hit with the k-th note. Cheap, and accurate as
// long as the player didn't drop whole sections.
type NaiveScorer struct{}

func (NaiveScorer) EvaluateLane(lane LaneSeries, judge Judge) float64 {
	var points float64
	for i, hit := range lane.HitSeconds {
		if i >= len(lane.NoteSeconds) {
			break
		}
		deviationMS := math.Abs(float64(hit-lane.NoteSeconds[i])) * millisPerSecond
		points += wife3(deviationMS, judge)
	}

	if unmatched := len(lane.NoteSeconds) - len(lane.HitSeconds); unmatched > 0 {
		points += float64(unmatched) * missWeight
	}
	return points
}

// MatchingScorer assigns each hit to the nearest not-yet-consumed note by
// time proximity. Stray hits beyond the note count are ignored; leftover
// notes carry the miss weight.
type MatchingScorer struct{}

func (MatchingScorer) EvaluateLane(lane LaneSeries, judge Judge) float64 {
	notes := lane.NoteSeconds
	var points float64

	next := 0
	for _, hit := range lane.HitSeconds {
		if next >= len(notes) {
			break
		}
		// Advance while the following note is at least as close to the hit;
		// every note skipped over goes unmatched.
		for next+1 < len(notes) &&
			math.Abs(float64(notes[next+1]-hit)) <= math.Abs(float64(notes[next]-hit)) {
			points += missWeight
			next++
		}
		deviationMS := math.Abs(float64(hit-notes[next])) * millisPerSecond
		points += wife3(deviationMS, judge)
		next++
	}

	if unmatched := len(notes) - next; unmatched > 0 {
		points += float64(unmatched) * missWeight
	}
	return points
}
