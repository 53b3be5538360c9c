// Package replay turns the service's embedded note-log payloads into
// normalized note sequences.
//
// The payload has drifted over the years: the outer JSON value is a bare
// string, or a single-element array containing the string, or null, or an
// occasional garbled placeholder. The inner string is a JSON array of
// positional rows whose width depends on when the replay was recorded. All
// of that raggedness is absorbed here; callers only ever see a normalized
// *model.Replay or nil.
package replay

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/okian/riff/internal/domain/model"
)

const (
	// The service encodes a miss as a fixed 180ms deviation rather than a
	// real timing value.
	missSentinelSeconds = 0.18
	missSentinelEpsilon = 1e-7

	// A lane of -1 means "present but unknown"; it collapses into the same
	// nil as an absent slot.
	laneUnknown = -1

	millisPerSecond = 1000
)

// rowShape tags the historical row widths, detected purely by length.
type rowShape uint8

const (
	// shapeBare is [time, deviation_ms].
	shapeBare rowShape = iota
	// shapeLegacy3 is [time, deviation_ms, tick]. The third slot is a tick,
	// not a lane.
	shapeLegacy3
	// shapeTagged4 is [time, deviation_ms, lane, note_type].
	shapeTagged4
	// shapeCanonical5 is [time, deviation_ms, lane, note_type, tick].
	shapeCanonical5
)

// shapeOf maps a row width to its shape. The second return is false when the
// row is too narrow to carry the required time and deviation slots.
func shapeOf(width int) (rowShape, bool) {
	switch {
	case width < 2:
		return 0, false
	case width == 2:
		return shapeBare, true
	case width == 3:
		return shapeLegacy3, true
	case width == 4:
		return shapeTagged4, true
	default:
		return shapeCanonical5, true
	}
}

// Parse decodes the outer replay value of a score payload.
//
// A nil result with a nil error means "no usable replay": the outer value was
// null or an unrecognized placeholder, or the decoded note list was empty.
// Once the outer shape promises a replay, any decoding failure is a hard
// ErrInvalidEncoding.
func Parse(raw json.RawMessage) (*model.Replay, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var outer any
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, fmt.Errorf("%w: outer value: %v", ErrInvalidEncoding, err)
	}

	inner, ok := unwrap(outer)
	if !ok {
		return nil, nil
	}

	var rows [][]float64
	if err := json.Unmarshal([]byte(inner), &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}

	notes := make([]model.ReplayNote, 0, len(rows))
	for i, row := range rows {
		note, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidEncoding, i, err)
		}
		notes = append(notes, note)
	}

	// Some endpoints return a syntactically valid but semantically empty
	// replay for invalid scores; normalize that to "no replay".
	if len(notes) == 0 {
		return nil, nil
	}

	return &model.Replay{Notes: notes}, nil
}

// unwrap extracts the inner note-log string from the accepted outer shapes.
func unwrap(outer any) (string, bool) {
	switch v := outer.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case []any:
		if len(v) == 0 {
			return "", false
		}
		s, ok := v[0].(string)
		return s, ok
	default:
		return "", false
	}
}

func decodeRow(row []float64) (model.ReplayNote, error) {
	shape, ok := shapeOf(len(row))
	if !ok {
		return model.ReplayNote{}, fmt.Errorf("row too short (%d slots)", len(row))
	}

	note := model.ReplayNote{
		Time: float32(row[0]),
		Hit:  decodeHit(row[1]),
	}

	switch shape {
	case shapeBare:
	case shapeLegacy3:
		tick, err := decodeTick(row[2])
		if err != nil {
			return model.ReplayNote{}, err
		}
		note.Tick = tick
	case shapeTagged4, shapeCanonical5:
		lane, err := decodeLane(row[2])
		if err != nil {
			return model.ReplayNote{}, err
		}
		note.Lane = lane

		noteType, err := model.NoteTypeFromWire(int64(row[3]))
		if err != nil {
			return model.ReplayNote{}, err
		}
		note.NoteType = &noteType

		if shape == shapeCanonical5 {
			tick, err := decodeTick(row[4])
			if err != nil {
				return model.ReplayNote{}, err
			}
			note.Tick = tick
		}
	}

	return note, nil
}

func decodeHit(deviationMS float64) model.Hit {
	deviation := deviationMS / millisPerSecond
	if math.Abs(deviation-missSentinelSeconds) < missSentinelEpsilon {
		return model.Missed()
	}
	return model.HitAt(float32(deviation))
}

func decodeLane(v float64) (*uint8, error) {
	if v == laneUnknown {
		return nil, nil
	}
	if v < 0 || v != math.Trunc(v) || v > math.MaxUint8 {
		return nil, fmt.Errorf("unexpected lane value %v", v)
	}
	lane := uint8(v)
	return &lane, nil
}

func decodeTick(v float64) (*uint32, error) {
	if v < 0 || v != math.Trunc(v) || v > math.MaxUint32 {
		return nil, fmt.Errorf("unexpected tick value %v", v)
	}
	tick := uint32(v)
	return &tick, nil
}
