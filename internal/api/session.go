// Package api provides typed access to the scoring service's v2
// endpoints over the shared request pipeline.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/okian/riff/internal/auth"
	"github.com/okian/riff/internal/domain/model"
	"github.com/okian/riff/internal/domain/replay"
	"github.com/okian/riff/internal/pipeline"
	"github.com/okian/riff/pkg/metrics"
)

// caller is the slice of the pipeline a session needs. Tests substitute
// their own.
type caller interface {
	Do(ctx context.Context, call pipeline.Call) (json.RawMessage, error)
	SetLogin(fn auth.LoginFunc)
	Authenticate(ctx context.Context) error
}

// Session exposes the service's endpoints as typed methods. All calls
// share one rate gate and one bearer token.
type Session struct {
	p        caller
	baseURL  string
	username string
	password string

	// clientData is the opaque blob the service demands on login.
	clientData string
}

// ErrorMapper returns the domain error table for the pipeline.
func ErrorMapper() pipeline.ErrorMapper {
	return mapErrorTitle
}

// NewSession wires a session over the pipeline and installs its login
// routine for re-authentication.
func NewSession(p caller, baseURL, username, password, clientData string) *Session {
	s := &Session{
		p:          p,
		baseURL:    baseURL,
		username:   username,
		password:   password,
		clientData: clientData,
	}
	p.SetLogin(s.login)
	return s
}

// Login performs the initial authentication. Later token refreshes
// happen transparently inside the pipeline.
func (s *Session) Login(ctx context.Context) error {
	return s.p.Authenticate(ctx)
}

// login posts the credentials and extracts the bearer token. It goes
// through the pipeline like any other call, but unauthorized: a rejected
// login must never trigger another login.
func (s *Session) login(ctx context.Context) (auth.Credential, error) {
	metrics.RecordLogin()

	form := url.Values{}
	form.Set("username", s.username)
	form.Set("password", s.password)
	form.Set("clientData", s.clientData)

	data, err := s.p.Do(ctx, pipeline.Call{
		Method: "POST",
		URL:    s.endpoint("login"),
		Form:   form,
	})
	if err != nil {
		return "", err
	}

	var body struct {
		Attributes struct {
			AccessToken string `json:"accessToken"`
		} `json:"attributes"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return "", fmt.Errorf("login response: %w", err)
	}
	if body.Attributes.AccessToken == "" {
		return "", errors.New("login response carried no access token")
	}
	return auth.Credential(body.Attributes.AccessToken), nil
}

func (s *Session) endpoint(path string) string {
	return s.baseURL + "/" + path
}

func (s *Session) get(ctx context.Context, path string, out any) error {
	data, err := s.p.Do(ctx, pipeline.Call{
		Method:     "GET",
		URL:        s.endpoint(path),
		Authorized: true,
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s response: %w", path, err)
	}
	return nil
}

// UserDetails retrieves the profile of the given user.
func (s *Session) UserDetails(ctx context.Context, username string) (*UserDetails, error) {
	var res resource
	if err := s.get(ctx, "user/"+url.PathEscape(username), &res); err != nil {
		return nil, err
	}

	var attrs struct {
		UserName         string        `json:"userName"`
		AboutMe          string        `json:"aboutMe"`
		Moderator        bool          `json:"moderator"`
		Patreon          bool          `json:"patreon"`
		Avatar           string        `json:"avatar"`
		CountryCode      string        `json:"countryCode"`
		PlayerRating     floatNumber   `json:"playerRating"`
		DefaultModifiers string        `json:"defaultModifiers"`
		Skillsets        wireSkillsets `json:"skillsets"`
	}
	if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
		return nil, fmt.Errorf("user details: %w", err)
	}

	return &UserDetails{
		Username:         attrs.UserName,
		AboutMe:          attrs.AboutMe,
		IsModerator:      attrs.Moderator,
		IsPatreon:        attrs.Patreon,
		AvatarURL:        attrs.Avatar,
		CountryCode:      attrs.CountryCode,
		PlayerRating:     float32(attrs.PlayerRating),
		DefaultModifiers: attrs.DefaultModifiers,
		Rating:           attrs.Skillsets.toValues(),
	}, nil
}

type wireTopScore struct {
	SongName   string        `json:"songName"`
	Overall    floatNumber   `json:"Overall"`
	Wife       floatNumber   `json:"wife"`
	Rate       floatNumber   `json:"rate"`
	Difficulty string        `json:"difficulty"`
	ChartKey   string        `json:"chartKey"`
	Skillsets  wireSkillsets `json:"skillsets"`
}

func (s *Session) topScores(ctx context.Context, path string) ([]TopScore, error) {
	var resources []resource
	if err := s.get(ctx, path, &resources); err != nil {
		return nil, err
	}

	scores := make([]TopScore, 0, len(resources))
	for _, res := range resources {
		var attrs wireTopScore
		if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("top score: %w", err)
		}
		difficulty, err := model.DifficultyFromString(attrs.Difficulty)
		if err != nil {
			return nil, err
		}
		scores = append(scores, TopScore{
			Scorekey:   res.ID,
			SongName:   attrs.SongName,
			SSROverall: float32(attrs.Overall),
			Wifescore:  model.WifescoreFromPercent(float32(attrs.Wife)),
			Rate:       float32(attrs.Rate),
			Difficulty: difficulty,
			Chartkey:   attrs.ChartKey,
			BaseMSD:    attrs.Skillsets.toValues(),
		})
	}
	return scores, nil
}

// UserTopScores retrieves the user's best scores in one skill category.
func (s *Session) UserTopScores(ctx context.Context, username string, skillset model.Skillset, limit uint32) ([]TopScore, error) {
	path := fmt.Sprintf("user/%s/top/%s/%d", url.PathEscape(username), skillset, limit)
	return s.topScores(ctx, path)
}

// UserTopTenScores retrieves the user's overall top 10. The count is
// fixed server-side.
func (s *Session) UserTopTenScores(ctx context.Context, username string) ([]TopScore, error) {
	return s.topScores(ctx, fmt.Sprintf("user/%s/top//", url.PathEscape(username)))
}

// wireSkillsetTopScore is the entry shape of the per-skillset listing,
// which predates the JSON:API wrapper and uses older field names.
type wireSkillsetTopScore struct {
	wireSkillsets
	SongName   string      `json:"songname"`
	Rate       floatNumber `json:"user_chart_rate_rate"`
	Wife       floatNumber `json:"wifescore"`
	Chartkey   string      `json:"chartkey"`
	Scorekey   string      `json:"scorekey"`
	Difficulty string      `json:"difficulty"`
	Overall    floatNumber `json:"Overall"`
}

func (w wireSkillsetTopScore) toScore() (TopScorePerSkillset, error) {
	difficulty, err := model.DifficultyFromString(w.Difficulty)
	if err != nil {
		return TopScorePerSkillset{}, err
	}
	return TopScorePerSkillset{
		Scorekey:   w.Scorekey,
		SongName:   w.SongName,
		Rate:       float32(w.Rate),
		Wifescore:  model.WifescoreFromProportion(float32(w.Wife)),
		Chartkey:   w.Chartkey,
		Difficulty: difficulty,
		SSROverall: float32(w.Overall),
		SSR:        w.wireSkillsets.toValues(),
	}, nil
}

// UserTopScoresPerSkillset retrieves the user's best scores in every
// skill category at once.
func (s *Session) UserTopScoresPerSkillset(ctx context.Context, username string) (*UserTopScoresPerSkillset, error) {
	var res resource
	if err := s.get(ctx, fmt.Sprintf("user/%s/all", url.PathEscape(username)), &res); err != nil {
		return nil, err
	}

	var attrs struct {
		Overall    []wireSkillsetTopScore `json:"Overall"`
		Stream     []wireSkillsetTopScore `json:"Stream"`
		Jumpstream []wireSkillsetTopScore `json:"Jumpstream"`
		Handstream []wireSkillsetTopScore `json:"Handstream"`
		Stamina    []wireSkillsetTopScore `json:"Stamina"`
		JackSpeed  []wireSkillsetTopScore `json:"JackSpeed"`
		Chordjack  []wireSkillsetTopScore `json:"Chordjack"`
		Technical  []wireSkillsetTopScore `json:"Technical"`
	}
	if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
		return nil, fmt.Errorf("top scores per skillset: %w", err)
	}

	out := &UserTopScoresPerSkillset{}
	for _, group := range []struct {
		src []wireSkillsetTopScore
		dst *[]TopScorePerSkillset
	}{
		{attrs.Overall, &out.Overall},
		{attrs.Stream, &out.Stream},
		{attrs.Jumpstream, &out.Jumpstream},
		{attrs.Handstream, &out.Handstream},
		{attrs.Stamina, &out.Stamina},
		{attrs.JackSpeed, &out.Jackspeed},
		{attrs.Chordjack, &out.Chordjack},
		{attrs.Technical, &out.Technical},
	} {
		scores := make([]TopScorePerSkillset, 0, len(group.src))
		for _, w := range group.src {
			score, err := w.toScore()
			if err != nil {
				return nil, err
			}
			scores = append(scores, score)
		}
		*group.dst = scores
	}
	return out, nil
}

// UserLatestScores retrieves the user's latest 10 scores.
func (s *Session) UserLatestScores(ctx context.Context, username string) ([]LatestScore, error) {
	var resources []resource
	if err := s.get(ctx, fmt.Sprintf("user/%s/latest", url.PathEscape(username)), &resources); err != nil {
		return nil, err
	}

	scores := make([]LatestScore, 0, len(resources))
	for _, res := range resources {
		var attrs wireTopScore
		if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("latest score: %w", err)
		}
		difficulty, err := model.DifficultyFromString(attrs.Difficulty)
		if err != nil {
			return nil, err
		}
		scores = append(scores, LatestScore{
			Scorekey:   res.ID,
			SongName:   attrs.SongName,
			SSROverall: float32(attrs.Overall),
			Wifescore:  model.WifescoreFromPercent(float32(attrs.Wife)),
			Rate:       float32(attrs.Rate),
			Difficulty: difficulty,
		})
	}
	return scores, nil
}

// UserRanks retrieves the user's leaderboard position per skill category.
func (s *Session) UserRanks(ctx context.Context, username string) (*UserRanks, error) {
	var res resource
	if err := s.get(ctx, fmt.Sprintf("user/%s/ranks", url.PathEscape(username)), &res); err != nil {
		return nil, err
	}

	var attrs struct {
		Overall    uint32 `json:"Overall"`
		Stream     uint32 `json:"Stream"`
		Jumpstream uint32 `json:"Jumpstream"`
		Handstream uint32 `json:"Handstream"`
		Stamina    uint32 `json:"Stamina"`
		JackSpeed  uint32 `json:"JackSpeed"`
		Chordjack  uint32 `json:"Chordjack"`
		Technical  uint32 `json:"Technical"`
	}
	if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
		return nil, fmt.Errorf("user ranks: %w", err)
	}

	return &UserRanks{
		Overall:    attrs.Overall,
		Stream:     attrs.Stream,
		Jumpstream: attrs.Jumpstream,
		Handstream: attrs.Handstream,
		Stamina:    attrs.Stamina,
		Jackspeed:  attrs.JackSpeed,
		Chordjack:  attrs.Chordjack,
		Technical:  attrs.Technical,
	}, nil
}

// ScoreData retrieves a score's detailed record. An unparseable-but-present
// replay payload fails the whole call; an absent one leaves Replay nil.
func (s *Session) ScoreData(ctx context.Context, scorekey string) (*ScoreData, error) {
	var res resource
	if err := s.get(ctx, "score/"+url.PathEscape(scorekey), &res); err != nil {
		return nil, err
	}

	var attrs struct {
		Modifiers string      `json:"modifiers"`
		Wife      floatNumber `json:"wife"`
		Rate      floatNumber `json:"rate"`
		MaxCombo  uint32      `json:"maxCombo"`
		Valid     bool        `json:"valid"`
		NoCC      bool        `json:"nocc"`
		Song      struct {
			SongName string `json:"songName"`
			Artist   string `json:"artist"`
			ID       uint32 `json:"id"`
		} `json:"song"`
		Skillsets struct {
			wireSkillsets
			Overall floatNumber `json:"Overall"`
		} `json:"skillsets"`
		Judgements wireJudgements  `json:"judgements"`
		Replay     json.RawMessage `json:"replay"`
		User       wireScoreUser   `json:"user"`
	}
	if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
		return nil, fmt.Errorf("score data: %w", err)
	}

	parsed, err := replay.Parse(attrs.Replay)
	switch {
	case err != nil:
		metrics.RecordReplayParse("invalid")
		return nil, err
	case parsed == nil:
		metrics.RecordReplayParse("absent")
	default:
		metrics.RecordReplayParse("ok")
	}

	return &ScoreData{
		Scorekey:         res.ID,
		Modifiers:        attrs.Modifiers,
		SSR:              attrs.Skillsets.toValues(),
		SSROverall:       float32(attrs.Skillsets.Overall),
		Wifescore:        model.WifescoreFromProportion(float32(attrs.Wife)),
		Rate:             float32(attrs.Rate),
		MaxCombo:         attrs.MaxCombo,
		IsValid:          attrs.Valid,
		HasChordCohesion: !attrs.NoCC,
		Judgements:       attrs.Judgements.toJudgements(),
		Replay:           parsed,
		User:             attrs.User.toUser(),
		SongName:         attrs.Song.SongName,
		Artist:           attrs.Song.Artist,
		SongID:           attrs.Song.ID,
	}, nil
}

// ChartLeaderboard retrieves the per-chart score leaderboard.
func (s *Session) ChartLeaderboard(ctx context.Context, chartkey string) ([]ChartLeaderboardScore, error) {
	var resources []resource
	path := fmt.Sprintf("charts/%s/leaderboards", url.PathEscape(chartkey))
	if err := s.get(ctx, path, &resources); err != nil {
		return nil, err
	}

	entries := make([]ChartLeaderboardScore, 0, len(resources))
	for _, res := range resources {
		var attrs struct {
			Wife      floatNumber `json:"wife"`
			MaxCombo  uint32      `json:"maxCombo"`
			Valid     bool        `json:"valid"`
			Modifiers string      `json:"modifiers"`
			NoCC      bool        `json:"noCC"`
			Rate      floatNumber `json:"rate"`
			Datetime  string      `json:"datetime"`
			Skillsets struct {
				wireSkillsets
				Overall floatNumber `json:"Overall"`
			} `json:"skillsets"`
			Judgements wireJudgements `json:"judgements"`
			HasReplay  bool           `json:"hasReplay"`
			User       wireScoreUser  `json:"user"`
		}
		if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("chart leaderboard: %w", err)
		}
		entries = append(entries, ChartLeaderboardScore{
			Scorekey:         res.ID,
			SSR:              attrs.Skillsets.toValues(),
			SSROverall:       float32(attrs.Skillsets.Overall),
			Wifescore:        model.WifescoreFromPercent(float32(attrs.Wife)),
			Rate:             float32(attrs.Rate),
			MaxCombo:         attrs.MaxCombo,
			IsValid:          attrs.Valid,
			HasChordCohesion: !attrs.NoCC,
			Datetime:         attrs.Datetime,
			Modifiers:        attrs.Modifiers,
			HasReplay:        attrs.HasReplay,
			Judgements:       attrs.Judgements.toJudgements(),
			User:             attrs.User.toUser(),
		})
	}
	return entries, nil
}

// CountryLeaderboard retrieves the player leaderboard for a country code.
func (s *Session) CountryLeaderboard(ctx context.Context, countryCode string) ([]LeaderboardEntry, error) {
	var resources []resource
	if err := s.get(ctx, "leaderboard/"+url.PathEscape(countryCode), &resources); err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(resources))
	for _, res := range resources {
		var attrs struct {
			User      wireScoreUser `json:"user"`
			Skillsets wireSkillsets `json:"skillsets"`
		}
		if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("leaderboard: %w", err)
		}
		entries = append(entries, LeaderboardEntry{
			User:   attrs.User.toUser(),
			Rating: attrs.Skillsets.toValues(),
		})
	}
	return entries, nil
}

// WorldLeaderboard retrieves the global player leaderboard.
func (s *Session) WorldLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	return s.CountryLeaderboard(ctx, "")
}

// UserFavorites retrieves the chartkeys of the user's favorites.
func (s *Session) UserFavorites(ctx context.Context, username string) ([]string, error) {
	var resources []resource
	if err := s.get(ctx, fmt.Sprintf("user/%s/favorites", url.PathEscape(username)), &resources); err != nil {
		return nil, err
	}

	chartkeys := make([]string, 0, len(resources))
	for _, res := range resources {
		var attrs struct {
			Chartkey string `json:"chartkey"`
		}
		if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("favorite: %w", err)
		}
		chartkeys = append(chartkeys, attrs.Chartkey)
	}
	return chartkeys, nil
}

// AddFavorite adds a chart to the user's favorites.
func (s *Session) AddFavorite(ctx context.Context, username, chartkey string) error {
	form := url.Values{}
	form.Set("chartkey", chartkey)
	_, err := s.p.Do(ctx, pipeline.Call{
		Method:     "POST",
		URL:        s.endpoint(fmt.Sprintf("user/%s/favorites", url.PathEscape(username))),
		Form:       form,
		Authorized: true,
	})
	return err
}

// RemoveFavorite removes a chart from the user's favorites.
func (s *Session) RemoveFavorite(ctx context.Context, username, chartkey string) error {
	_, err := s.p.Do(ctx, pipeline.Call{
		Method:     "DELETE",
		URL:        s.endpoint(fmt.Sprintf("user/%s/favorites/%s", url.PathEscape(username), url.PathEscape(chartkey))),
		Authorized: true,
	})
	return err
}

// UserGoals retrieves the user's score goals.
func (s *Session) UserGoals(ctx context.Context, username string) ([]ScoreGoal, error) {
	var resources []resource
	if err := s.get(ctx, fmt.Sprintf("user/%s/goals", url.PathEscape(username)), &resources); err != nil {
		return nil, err
	}

	goals := make([]ScoreGoal, 0, len(resources))
	for _, res := range resources {
		var attrs struct {
			Chartkey     string      `json:"chartkey"`
			Rate         floatNumber `json:"rate"`
			Wife         floatNumber `json:"wife"`
			TimeAssigned string      `json:"timeAssigned"`
			Achieved     intBool     `json:"achieved"`
			TimeAchieved string      `json:"timeAchieved"`
		}
		if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("goal: %w", err)
		}
		goal := ScoreGoal{
			Chartkey:     attrs.Chartkey,
			Rate:         float32(attrs.Rate),
			Wifescore:    model.WifescoreFromProportion(float32(attrs.Wife)),
			TimeAssigned: attrs.TimeAssigned,
		}
		if attrs.Achieved {
			goal.TimeAchieved = attrs.TimeAchieved
		}
		goals = append(goals, goal)
	}
	return goals, nil
}

// AddGoal creates a score goal on a chart.
func (s *Session) AddGoal(ctx context.Context, username, chartkey string, rate float32, wifescore model.Wifescore, timeAssigned string) error {
	form := url.Values{}
	form.Set("chartkey", chartkey)
	form.Set("rate", formatFloat(rate))
	form.Set("wife", formatFloat(wifescore.Proportion()))
	form.Set("timeAssigned", timeAssigned)

	_, err := s.p.Do(ctx, pipeline.Call{
		Method:     "POST",
		URL:        s.endpoint(fmt.Sprintf("user/%s/goals", url.PathEscape(username))),
		Form:       form,
		Authorized: true,
	})
	return err
}

// UpdateGoal replaces a goal's attributes with the given ones.
func (s *Session) UpdateGoal(ctx context.Context, username string, goal ScoreGoal) error {
	achieved := "0"
	timeAchieved := "0000-00-00 00:00:00"
	if goal.TimeAchieved != "" {
		achieved = "1"
		timeAchieved = goal.TimeAchieved
	}

	form := url.Values{}
	form.Set("chartkey", goal.Chartkey)
	form.Set("timeAssigned", goal.TimeAssigned)
	form.Set("achieved", achieved)
	form.Set("rate", formatFloat(goal.Rate))
	form.Set("wife", formatFloat(goal.Wifescore.Proportion()))
	form.Set("timeAchieved", timeAchieved)

	_, err := s.p.Do(ctx, pipeline.Call{
		Method:     "POST",
		URL:        s.endpoint(fmt.Sprintf("user/%s/goals/update", url.PathEscape(username))),
		Form:       form,
		Authorized: true,
	})
	return err
}

// RemoveGoal deletes the goal identified by chartkey, rate and wifescore.
func (s *Session) RemoveGoal(ctx context.Context, username, chartkey string, rate float32, wifescore model.Wifescore) error {
	path := fmt.Sprintf("user/%s/goals/%s/%s/%s",
		url.PathEscape(username),
		url.PathEscape(chartkey),
		formatFloat(wifescore.Proportion()),
		formatFloat(rate),
	)
	_, err := s.p.Do(ctx, pipeline.Call{
		Method:     "DELETE",
		URL:        s.endpoint(path),
		Authorized: true,
	})
	return err
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
