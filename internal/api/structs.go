package api

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/okian/riff/internal/domain/model"
)

// UserDetails is a user's public profile.
type UserDetails struct {
	Username         string
	AboutMe          string
	IsModerator      bool
	IsPatreon        bool
	AvatarURL        string
	CountryCode      string
	PlayerRating     float32
	DefaultModifiers string
	Rating           model.SkillsetValues
}

// TopScore is one entry of a user's best scores.
type TopScore struct {
	Scorekey   string
	SongName   string
	SSROverall float32
	Wifescore  model.Wifescore
	Rate       float32
	Difficulty model.Difficulty
	Chartkey   string
	BaseMSD    model.SkillsetValues
}

// LatestScore is one entry of a user's most recent scores.
type LatestScore struct {
	Scorekey   string
	SongName   string
	SSROverall float32
	Wifescore  model.Wifescore
	Rate       float32
	Difficulty model.Difficulty
}

// TopScorePerSkillset is one entry of the per-category best-scores
// listing. The wifescore arrives as a proportion on this endpoint.
type TopScorePerSkillset struct {
	Scorekey   string
	SongName   string
	Rate       float32
	Wifescore  model.Wifescore
	Chartkey   string
	Difficulty model.Difficulty
	SSROverall float32
	SSR        model.SkillsetValues
}

// UserTopScoresPerSkillset groups a user's best scores by skill
// category. The per-category count is not documented; the service
// yields around 25 in practice.
type UserTopScoresPerSkillset struct {
	Overall    []TopScorePerSkillset
	Stream     []TopScorePerSkillset
	Jumpstream []TopScorePerSkillset
	Handstream []TopScorePerSkillset
	Stamina    []TopScorePerSkillset
	Jackspeed  []TopScorePerSkillset
	Chordjack  []TopScorePerSkillset
	Technical  []TopScorePerSkillset
}

// UserRanks is a user's leaderboard position per skill category.
type UserRanks struct {
	Overall    uint32
	Stream     uint32
	Jumpstream uint32
	Handstream uint32
	Stamina    uint32
	Jackspeed  uint32
	Chordjack  uint32
	Technical  uint32
}

// ScoreUser is the user block embedded in score payloads.
type ScoreUser struct {
	Username      string
	Avatar        string
	CountryCode   string
	OverallRating float32
}

// ScoreData is the detailed record of a single score, including the
// parsed replay when the service stored one.
type ScoreData struct {
	Scorekey         string
	Modifiers        string
	SSR              model.SkillsetValues
	SSROverall       float32
	Wifescore        model.Wifescore
	Rate             float32
	MaxCombo         uint32
	IsValid          bool
	HasChordCohesion bool
	Judgements       model.Judgements
	Replay           *model.Replay
	User             ScoreUser
	SongName         string
	Artist           string
	SongID           uint32
}

// ChartLeaderboardScore is one entry of a chart's leaderboard.
type ChartLeaderboardScore struct {
	Scorekey         string
	SSR              model.SkillsetValues
	SSROverall       float32
	Wifescore        model.Wifescore
	Rate             float32
	MaxCombo         uint32
	IsValid          bool
	HasChordCohesion bool
	Datetime         string
	Modifiers        string
	HasReplay        bool
	Judgements       model.Judgements
	User             ScoreUser
}

// LeaderboardEntry is one entry of a country or world player leaderboard.
type LeaderboardEntry struct {
	User   ScoreUser
	Rating model.SkillsetValues
}

// ScoreGoal is a score target a user set on a chart. TimeAchieved is
// empty while the goal is open.
type ScoreGoal struct {
	Chartkey     string
	Rate         float32
	Wifescore    model.Wifescore
	TimeAssigned string
	TimeAchieved string
}

// floatNumber tolerates the service's habit of sending numbers either
// bare or wrapped in a string ("12.34").
type floatNumber float32

func (f *floatNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return err
		}
		*f = floatNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = floatNumber(v)
	return nil
}

// intBool tolerates booleans sent as 0/1, "0"/"1" or true/false.
type intBool bool

func (ib *intBool) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "0", `"0"`, "false":
		*ib = false
	case "1", `"1"`, "true":
		*ib = true
	default:
		var v int
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*ib = v != 0
	}
	return nil
}

// resource is the JSON:API-ish wrapper every v2 payload object uses.
type resource struct {
	ID         string          `json:"id"`
	Attributes json.RawMessage `json:"attributes"`
}

type wireSkillsets struct {
	Stream     floatNumber `json:"Stream"`
	Jumpstream floatNumber `json:"Jumpstream"`
	Handstream floatNumber `json:"Handstream"`
	Stamina    floatNumber `json:"Stamina"`
	JackSpeed  floatNumber `json:"JackSpeed"`
	Chordjack  floatNumber `json:"Chordjack"`
	Technical  floatNumber `json:"Technical"`
}

func (w wireSkillsets) toValues() model.SkillsetValues {
	return model.SkillsetValues{
		Stream:     float32(w.Stream),
		Jumpstream: float32(w.Jumpstream),
		Handstream: float32(w.Handstream),
		Stamina:    float32(w.Stamina),
		Jackspeed:  float32(w.JackSpeed),
		Chordjack:  float32(w.Chordjack),
		Technical:  float32(w.Technical),
	}
}

type wireJudgements struct {
	Marvelous  uint32 `json:"marvelous"`
	Perfect    uint32 `json:"perfect"`
	Great      uint32 `json:"great"`
	Good       uint32 `json:"good"`
	Bad        uint32 `json:"bad"`
	Miss       uint32 `json:"miss"`
	HitMines   uint32 `json:"hitMines"`
	HeldHold   uint32 `json:"heldHold"`
	LetGoHold  uint32 `json:"letGoHold"`
	MissedHold uint32 `json:"missedHold"`
}

func (w wireJudgements) toJudgements() model.Judgements {
	return model.Judgements{
		Marvelouses: w.Marvelous,
		Perfects:    w.Perfect,
		Greats:      w.Great,
		Goods:       w.Good,
		Bads:        w.Bad,
		Misses:      w.Miss,
		HitMines:    w.HitMines,
		HeldHolds:   w.HeldHold,
		LetGoHolds:  w.LetGoHold,
		MissedHolds: w.MissedHold,
	}
}

type wireScoreUser struct {
	Username     string      `json:"username"`
	UserName     string      `json:"userName"`
	Avatar       string      `json:"avatar"`
	CountryCode  string      `json:"countryCode"`
	Overall      floatNumber `json:"Overall"`
	PlayerRating floatNumber `json:"playerRating"`
}

// toUser folds the two historical spellings of the username and rating
// fields into one struct.
func (w wireScoreUser) toUser() ScoreUser {
	name := w.Username
	if name == "" {
		name = w.UserName
	}
	rating := float32(w.Overall)
	if rating == 0 {
		rating = float32(w.PlayerRating)
	}
	return ScoreUser{
		Username:      name,
		Avatar:        w.Avatar,
		CountryCode:   w.CountryCode,
		OverallRating: rating,
	}
}
