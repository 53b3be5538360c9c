package model

import (
	"strings"

	"github.com/okian/riff/internal/domain/rating"
)

// Skillset identifies one of the seven skill categories.
type Skillset uint8

const (
	SkillsetStream Skillset = iota
	SkillsetJumpstream
	SkillsetHandstream
	SkillsetStamina
	SkillsetJackspeed
	SkillsetChordjack
	SkillsetTechnical
)

// Skillsets lists all seven categories in canonical order.
func Skillsets() [7]Skillset {
	return [7]Skillset{
		SkillsetStream, SkillsetJumpstream, SkillsetHandstream,
		SkillsetStamina, SkillsetJackspeed, SkillsetChordjack,
		SkillsetTechnical,
	}
}

// String returns the category name as the service spells it.
func (s Skillset) String() string {
	switch s {
	case SkillsetStream:
		return "Stream"
	case SkillsetJumpstream:
		return "Jumpstream"
	case SkillsetHandstream:
		return "Handstream"
	case SkillsetStamina:
		return "Stamina"
	case SkillsetJackspeed:
		return "JackSpeed"
	case SkillsetChordjack:
		return "Chordjack"
	case SkillsetTechnical:
		return "Technical"
	default:
		return "Unknown"
	}
}

// SkillsetFromUserInput parses community-accepted spellings of the
// categories, case-insensitively. Returns false if nothing matches.
func SkillsetFromUserInput(input string) (Skillset, bool) {
	switch strings.ToLower(input) {
	case "stream":
		return SkillsetStream, true
	case "js", "jumpstream":
		return SkillsetJumpstream, true
	case "hs", "handstream":
		return SkillsetHandstream, true
	case "stam", "stamina":
		return SkillsetStamina, true
	case "jack", "jacks", "jackspeed":
		return SkillsetJackspeed, true
	case "cj", "chordjack", "chordjacks":
		return SkillsetChordjack, true
	case "tech", "technical":
		return SkillsetTechnical, true
	default:
		return 0, false
	}
}

// SkillsetValues holds the seven per-category values of a chart (MSD) or a
// player (rating). The eighth "overall" value is never stored; it is always
// recomputed from the seven.
type SkillsetValues struct {
	Stream     float32
	Jumpstream float32
	Handstream float32
	Stamina    float32
	Jackspeed  float32
	Chordjack  float32
	Technical  float32
}

// Values returns the categories in canonical order.
func (s SkillsetValues) Values() [7]float32 {
	return [7]float32{
		s.Stream, s.Jumpstream, s.Handstream,
		s.Stamina, s.Jackspeed, s.Chordjack,
		s.Technical,
	}
}

// Get returns the value for one category.
func (s SkillsetValues) Get(ss Skillset) float32 {
	return s.Values()[ss]
}

// ChartOverall derives the overall chart difficulty from the seven
// categories.
func (s SkillsetValues) ChartOverall() float32 {
	return rating.ChartOverall(s.Values())
}

// PlayerOverall derives the overall player rating from the seven categories.
func (s SkillsetValues) PlayerOverall() float32 {
	return rating.PlayerOverall(s.Values())
}
