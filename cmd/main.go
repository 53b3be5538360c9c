// Command riff is a small CLI over the scoring service client: it logs
// in, runs one query, prints the result and exits.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/riff/internal/api"
	"github.com/okian/riff/internal/auth"
	"github.com/okian/riff/internal/config"
	"github.com/okian/riff/internal/domain/model"
	"github.com/okian/riff/internal/domain/rescore"
	"github.com/okian/riff/internal/pipeline"
	"github.com/okian/riff/internal/ratelimit"
	"github.com/okian/riff/internal/transport"
	"github.com/okian/riff/pkg/logger"
	"github.com/okian/riff/pkg/metrics"
)

const (
	metricsReadHeaderTimeout = 5 * time.Second
	defaultTopScoresLimit    = 10
)

var errUsage = errors.New(`usage: riff <command> [args]

commands:
  user <username>                     profile and rating
  top <username> [skillset] [limit]   best scores
  latest <username>                   most recent scores
  ranks <username>                    per-skillset ranks
  score <scorekey>                    score details, rescored if replayed
  chart <chartkey>                    chart leaderboard
  leaderboard [country]               player leaderboard
  favorites <username>                favorited charts
  goals <username>                    score goals`)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	cmd, err := parseCommand(args)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}

	tr := transport.NewHTTPTransport()
	gate := ratelimit.New(cfg.Cooldown())
	mgr := auth.NewManager()
	p := pipeline.New(tr, gate, mgr,
		pipeline.WithTimeout(cfg.Timeout()),
		pipeline.WithErrorMapper(api.ErrorMapper()),
	)
	session := api.NewSession(p, cfg.BaseURL, cfg.Username, cfg.Password, cfg.ClientData)

	if err := session.Login(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	return cmd(ctx, session, out)
}

type command func(ctx context.Context, s *api.Session, out io.Writer) error

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return nil, errUsage
	}

	name, rest := args[0], args[1:]
	switch name {
	case "user":
		username, err := oneArg(rest)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, s *api.Session, out io.Writer) error {
			return printUser(ctx, s, username, out)
		}, nil
	case "top":
		if len(rest) < 1 || len(rest) > 3 {
			return nil, errUsage
		}
		username := rest[0]
		skillset, limit, err := parseTopArgs(rest[1:])
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, s *api.Session, out io.Writer) error {
			return printTopScores(ctx, s, username, skillset, limit, out)
		}, nil
	case "latest":
		username, err := oneArg(rest)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, s *api.Session, out io.Writer) error {
			return printLatest(ctx, s, username, out)
		}, nil
	case "ranks":
		username, err := oneArg(rest)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, s *api.Session, out io.Writer) error {
			return printRanks(ctx, s, username, out)
		}, nil
	case "score":
		scorekey, err := oneArg(rest)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, s *api.Session, out io.Writer) error {
			return printScore(ctx, s, scorekey, out)
		}, nil
	case "chart":
		chartkey, err := oneArg(rest)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, s *api.Session, out io.Writer) error {
			return printChartLeaderboard(ctx, s, chartkey, out)
		}, nil
	case "leaderboard":
		if len(rest) > 1 {
			return nil, errUsage
		}
		country := ""
		if len(rest) == 1 {
			country = rest[0]
		}
		return func(ctx context.Context, s *api.Session, out io.Writer) error {
			return printLeaderboard(ctx, s, country, out)
		}, nil
	case "favorites":
		username, err := oneArg(rest)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, s *api.Session, out io.Writer) error {
			return printFavorites(ctx, s, username, out)
		}, nil
	case "goals":
		username, err := oneArg(rest)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, s *api.Session, out io.Writer) error {
			return printGoals(ctx, s, username, out)
		}, nil
	default:
		return nil, fmt.Errorf("unknown command %q\n%w", name, errUsage)
	}
}

func oneArg(rest []string) (string, error) {
	if len(rest) != 1 {
		return "", errUsage
	}
	return rest[0], nil
}

// parseTopArgs accepts an optional skillset name and an optional limit,
// in that order.
func parseTopArgs(rest []string) (*model.Skillset, uint32, error) {
	var skillset *model.Skillset
	limit := uint32(defaultTopScoresLimit)

	if len(rest) >= 1 {
		ss, ok := model.SkillsetFromUserInput(rest[0])
		if !ok {
			return nil, 0, fmt.Errorf("unknown skillset %q", rest[0])
		}
		skillset = &ss
	}
	if len(rest) == 2 {
		n, err := strconv.ParseUint(rest[1], 10, 32)
		if err != nil || n == 0 {
			return nil, 0, fmt.Errorf("invalid limit %q", rest[1])
		}
		limit = uint32(n)
	}
	return skillset, limit, nil
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	logger.Get().Info(ctx, "serving metrics", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Get().Error(ctx, "metrics server failed", logger.Error(err))
	}
}

func printUser(ctx context.Context, s *api.Session, username string, out io.Writer) error {
	details, err := s.UserDetails(ctx, username)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (%s) rating %.2f\n", details.Username, details.CountryCode, details.PlayerRating)
	for _, ss := range model.Skillsets() {
		fmt.Fprintf(out, "  %-10s %.2f\n", ss, details.Rating.Get(ss))
	}
	fmt.Fprintf(out, "  overall (derived) %.2f\n", details.Rating.PlayerOverall())
	return nil
}

func printTopScores(ctx context.Context, s *api.Session, username string, skillset *model.Skillset, limit uint32, out io.Writer) error {
	var scores []api.TopScore
	var err error
	if skillset != nil {
		scores, err = s.UserTopScores(ctx, username, *skillset, limit)
	} else {
		scores, err = s.UserTopTenScores(ctx, username)
	}
	if err != nil {
		return err
	}

	for _, score := range scores {
		fmt.Fprintf(out, "%.2f  %6.2f%%  %.2fx  %s\n",
			score.SSROverall, score.Wifescore.Percent(), score.Rate, score.SongName)
	}
	return nil
}

func printLatest(ctx context.Context, s *api.Session, username string, out io.Writer) error {
	scores, err := s.UserLatestScores(ctx, username)
	if err != nil {
		return err
	}

	for _, score := range scores {
		fmt.Fprintf(out, "%.2f  %6.2f%%  %.2fx  %s (%s)\n",
			score.SSROverall, score.Wifescore.Percent(), score.Rate, score.SongName, score.Difficulty)
	}
	return nil
}

func printRanks(ctx context.Context, s *api.Session, username string, out io.Writer) error {
	ranks, err := s.UserRanks(ctx, username)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Overall    #%d\n", ranks.Overall)
	fmt.Fprintf(out, "Stream     #%d\n", ranks.Stream)
	fmt.Fprintf(out, "Jumpstream #%d\n", ranks.Jumpstream)
	fmt.Fprintf(out, "Handstream #%d\n", ranks.Handstream)
	fmt.Fprintf(out, "Stamina    #%d\n", ranks.Stamina)
	fmt.Fprintf(out, "JackSpeed  #%d\n", ranks.Jackspeed)
	fmt.Fprintf(out, "Chordjack  #%d\n", ranks.Chordjack)
	fmt.Fprintf(out, "Technical  #%d\n", ranks.Technical)
	return nil
}

func printScore(ctx context.Context, s *api.Session, scorekey string, out io.Writer) error {
	data, err := s.ScoreData(ctx, scorekey)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s - %s by %s\n", data.Scorekey, data.SongName, data.User.Username)
	fmt.Fprintf(out, "  wifescore %.2f%%  rate %.2fx  combo %d\n",
		data.Wifescore.Percent(), data.Rate, data.MaxCombo)
	fmt.Fprintf(out, "  judgements: %d/%d/%d/%d/%d/%d\n",
		data.Judgements.Marvelouses, data.Judgements.Perfects, data.Judgements.Greats,
		data.Judgements.Goods, data.Judgements.Bads, data.Judgements.Misses)

	if data.Replay == nil {
		fmt.Fprintln(out, "  no replay stored")
		return nil
	}

	rescored, ok := rescore.Rescore(
		data.Replay,
		data.Judgements.HitMines,
		data.Judgements.LetGoHolds+data.Judgements.MissedHolds,
		rescore.Judge4,
		rescore.MatchingScorer{},
	)
	if !ok {
		fmt.Fprintln(out, "  replay lacks lane data; cannot rescore")
		return nil
	}
	fmt.Fprintf(out, "  rescored (J4): %.2f%%\n", rescored.Percent())
	return nil
}

func printChartLeaderboard(ctx context.Context, s *api.Session, chartkey string, out io.Writer) error {
	entries, err := s.ChartLeaderboard(ctx, chartkey)
	if err != nil {
		return err
	}

	for i, entry := range entries {
		fmt.Fprintf(out, "%3d. %6.2f%%  %.2fx  %s\n",
			i+1, entry.Wifescore.Percent(), entry.Rate, entry.User.Username)
	}
	return nil
}

func printLeaderboard(ctx context.Context, s *api.Session, country string, out io.Writer) error {
	var entries []api.LeaderboardEntry
	var err error
	if country == "" {
		entries, err = s.WorldLeaderboard(ctx)
	} else {
		entries, err = s.CountryLeaderboard(ctx, country)
	}
	if err != nil {
		return err
	}

	for i, entry := range entries {
		fmt.Fprintf(out, "%3d. %.2f  %s (%s)\n",
			i+1, entry.Rating.PlayerOverall(), entry.User.Username, entry.User.CountryCode)
	}
	return nil
}

func printFavorites(ctx context.Context, s *api.Session, username string, out io.Writer) error {
	favorites, err := s.UserFavorites(ctx, username)
	if err != nil {
		return err
	}

	for _, chartkey := range favorites {
		fmt.Fprintln(out, chartkey)
	}
	return nil
}

func printGoals(ctx context.Context, s *api.Session, username string, out io.Writer) error {
	goals, err := s.UserGoals(ctx, username)
	if err != nil {
		return err
	}

	for _, goal := range goals {
		status := "open"
		if goal.TimeAchieved != "" {
			status = "achieved " + goal.TimeAchieved
		}
		fmt.Fprintf(out, "%s  %.2f%% at %.2fx  (%s)\n",
			goal.Chartkey, goal.Wifescore.Percent(), goal.Rate, status)
	}
	return nil
}
