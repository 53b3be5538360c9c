// Package model contains domain models passed between layers.
package model

import "fmt"

// NoteType identifies what kind of note a replay row describes. Values mirror
// the service's wire encoding (1..7).
type NoteType uint8

const (
	NoteTypeTap NoteType = iota + 1
	NoteTypeHoldHead
	NoteTypeHoldTail
	NoteTypeMine
	NoteTypeLift
	NoteTypeKeysound
	NoteTypeFake
)

// NoteTypeFromWire converts the service's note type integer. Unknown values
// are a hard error; the wire format has never grown past 7.
func NoteTypeFromWire(v int64) (NoteType, error) {
	if v < 1 || v > 7 {
		return 0, fmt.Errorf("unexpected note type integer %d", v)
	}
	return NoteType(v), nil
}

func (t NoteType) String() string {
	switch t {
	case NoteTypeTap:
		return "tap"
	case NoteTypeHoldHead:
		return "hold-head"
	case NoteTypeHoldTail:
		return "hold-tail"
	case NoteTypeMine:
		return "mine"
	case NoteTypeLift:
		return "lift"
	case NoteTypeKeysound:
		return "keysound"
	case NoteTypeFake:
		return "fake"
	default:
		return fmt.Sprintf("note-type(%d)", uint8(t))
	}
}

// Hit is the outcome of a single note: either a miss, or a hit with a timing
// deviation in seconds (a 50ms early hit is -0.05).
type Hit struct {
	deviation float32
	hit       bool
}

// Missed returns the miss variant.
func Missed() Hit { return Hit{} }

// HitAt returns the hit variant with the given deviation in seconds.
func HitAt(deviation float32) Hit { return Hit{deviation: deviation, hit: true} }

// IsMiss reports whether the note was missed.
func (h Hit) IsMiss() bool { return !h.hit }

// Deviation returns the timing deviation in seconds. The second return is
// false for misses, which carry no real timing value.
func (h Hit) Deviation() (float32, bool) { return h.deviation, h.hit }

// ReplayNote is a single row of a replay.
//
// Lane, NoteType and Tick presence is schema-wide: within one Replay either
// all notes carry them or none do, depending on which historical format the
// service encoded the replay in. A lane sent as -1 ("present but unknown")
// collapses into the same nil as an absent slot; the distinction is not
// preserved downstream.
type ReplayNote struct {
	// Time is the position of the note inside the chart, in seconds.
	Time float32
	// Hit is how the note was (or wasn't) struck.
	Hit Hit
	// Lane is the column the note appears on, 0-3 for 4k. Nil when the
	// replay's schema doesn't carry lanes.
	Lane *uint8
	// NoteType is nil when the replay's schema doesn't carry note types.
	NoteType *NoteType
	// Tick is the chart position in 192nds. If Tick is present, Lane and
	// NoteType are guaranteed present; the reverse does not hold.
	Tick *uint32
}

// Replay is the note-by-note record of a play, in chart order (not
// necessarily time-sorted for held and mine rows). Immutable after parsing.
type Replay struct {
	Notes []ReplayNote
}

// Wifescore is a normalized accuracy score as a proportion in 0..1.
type Wifescore float32

// WifescoreFromProportion builds a Wifescore from a 0..1 value.
func WifescoreFromProportion(v float32) Wifescore { return Wifescore(v) }

// WifescoreFromPercent builds a Wifescore from a 0..100 value.
func WifescoreFromPercent(v float32) Wifescore { return Wifescore(v / 100) }

// Percent returns the score as a 0..100 value.
func (w Wifescore) Percent() float32 { return float32(w) * 100 }

// Proportion returns the score as a 0..1 value.
func (w Wifescore) Proportion() float32 { return float32(w) }

// Judgements counts every judgement category of a score.
type Judgements struct {
	Marvelouses uint32
	Perfects    uint32
	Greats      uint32
	Goods       uint32
	Bads        uint32
	Misses      uint32
	HitMines    uint32
	HeldHolds   uint32
	LetGoHolds  uint32
	MissedHolds uint32
}

// Difficulty is the chart difficulty slot.
type Difficulty uint8

const (
	DifficultyBeginner Difficulty = iota
	DifficultyEasy
	DifficultyMedium
	DifficultyHard
	DifficultyChallenge
	DifficultyEdit
)

// DifficultyFromString parses the long difficulty names the service uses,
// including the legacy aliases.
func DifficultyFromString(s string) (Difficulty, error) {
	switch s {
	case "Beginner", "Novice":
		return DifficultyBeginner, nil
	case "Easy":
		return DifficultyEasy, nil
	case "Medium", "Normal":
		return DifficultyMedium, nil
	case "Hard":
		return DifficultyHard, nil
	case "Challenge", "Expert", "Insane":
		return DifficultyChallenge, nil
	case "Edit":
		return DifficultyEdit, nil
	default:
		return 0, fmt.Errorf("unexpected difficulty name %q", s)
	}
}

func (d Difficulty) String() string {
	switch d {
	case DifficultyBeginner:
		return "Beginner"
	case DifficultyEasy:
		return "Easy"
	case DifficultyMedium:
		return "Medium"
	case DifficultyHard:
		return "Hard"
	case DifficultyChallenge:
		return "Challenge"
	case DifficultyEdit:
		return "Edit"
	default:
		return fmt.Sprintf("difficulty(%d)", uint8(d))
	}
}
