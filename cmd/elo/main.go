package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"league-elo/internal/config"
	"league-elo/internal/constants"
	fxmodules "league-elo/internal/fx"
	"league-elo/internal/repository"
	"league-elo/internal/service"
)

const usage = `Usage: elo [-force] <command> [args]

Commands:
  all                            import the games directory and rate every pending game
  single <gameId>                rate one game (stored, or read from the games directory)
  compare [gameId]               compare all rating methods without saving
  import [dir]                   store game directories as pending games
  fetch <gameName> <tagLine> [n] fetch recent matches from the Riot API
  leaderboard [minGames]         show the leaderboard
  top <category> [limit]         top players by elo, games, winrate or kills
  player <name>                  show one player's record
  stats                          show database totals
  transfer <driver> <path>       copy all data into another database (sqlite or bolt)
`

type app struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Stores  *repository.Stores
	Matches *service.MatchService
	Fetcher *service.FetchService
	Players *service.PlayerService
}

func main() {
	force := flag.Bool("force", false, "reprocess games that were already rated")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var a app
	fxApp := fx.New(
		fxmodules.Core,
		fx.NopLogger,
		fx.Populate(&a.Config, &a.Logger, &a.Stores, &a.Matches, &a.Fetcher, &a.Players),
	)

	ctx := context.Background()
	if err := fxApp.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err := run(ctx, &a, args, *force)

	stopCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if stopErr := fxApp.Stop(stopCtx); stopErr != nil {
		a.Logger.Warn().Err(stopErr).Msg("shutdown failed")
	}

	if err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, a *app, args []string, force bool) error {
	cmd, args := args[0], args[1:]
	out := newPrinter(os.Stdout)

	switch cmd {
	case "all":
		if _, err := a.Matches.Import(ctx, a.Config.GamesDir); err != nil {
			a.Logger.Warn().Err(err).Str("dir", a.Config.GamesDir).Msg("games directory not imported")
		}
		items, err := a.Matches.ProcessPending(ctx)
		out.batch(items)
		return err

	case "single":
		if len(args) != 1 {
			return errUsage
		}
		res, err := a.Matches.ProcessGame(ctx, args[0], force)
		if errors.Is(err, repository.ErrNotFound) {
			if _, err = a.Matches.ImportGame(ctx, a.Config.GamesDir, args[0]); err != nil {
				return err
			}
			res, err = a.Matches.ProcessGame(ctx, args[0], force)
		}
		if err != nil {
			return err
		}
		out.results(res.GameID, res.Method, res.Results)
		return nil

	case "compare":
		ids := args
		if len(ids) == 0 {
			games, err := a.Stores.Games.List(ctx)
			if err != nil {
				return err
			}
			for _, g := range games {
				ids = append(ids, g.GameID)
			}
		}
		for _, id := range ids {
			outcome, err := a.Matches.Compare(ctx, id, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "game %s: %v\n", id, err)
				continue
			}
			out.comparison(id, outcome)
		}
		return nil

	case "import":
		dir := a.Config.GamesDir
		if len(args) > 0 {
			dir = args[0]
		}
		summary, err := a.Matches.Import(ctx, dir)
		if err != nil {
			return err
		}
		out.printf("imported %d games from %s, %d failed\n", summary.Imported, dir, len(summary.Failed))
		return nil

	case "fetch":
		if len(args) < 2 {
			return errUsage
		}
		count := constants.RiotDefaultCount
		if len(args) > 2 {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				return errUsage
			}
			count = n
		}
		res, err := a.Fetcher.FetchByRiotID(ctx, args[0], args[1], count)
		if err != nil {
			return err
		}
		for _, g := range res.Games {
			out.printf("%s\t%s\t%s\t%d participants\n", g.GameID, g.MatchID, g.StartedAt.Format("2006-01-02 15:04"), len(g.Participants))
		}
		return nil

	case "leaderboard":
		minGames := constants.DefaultLeaderboardMinGames
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return errUsage
			}
			minGames = n
		}
		lb, err := a.Players.Leaderboard(ctx, minGames)
		if err != nil {
			return err
		}
		out.leaderboard(lb)
		return nil

	case "top":
		if len(args) < 1 {
			return errUsage
		}
		limit := constants.DefaultTopLimit
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return errUsage
			}
			limit = n
		}
		entries, err := a.Players.Top(ctx, args[0], limit)
		if err != nil {
			return err
		}
		out.entries(entries)
		return nil

	case "player":
		if len(args) != 1 {
			return errUsage
		}
		detail, err := a.Players.Player(ctx, args[0])
		if err != nil {
			return err
		}
		out.player(detail)
		return nil

	case "stats":
		stats, err := a.Players.Stats(ctx)
		if err != nil {
			return err
		}
		out.printf("players %d, games %d (%d processed, %d pending), average elo %d\n",
			stats.Players, stats.Games, stats.ProcessedGames, stats.PendingGames, stats.AverageRating)
		if limit := a.Fetcher.RateLimit(); limit != nil && limit.AppLimit != "" {
			out.printf("riot rate limit: app %s (used %s), method %s (used %s)\n",
				limit.AppLimit, limit.AppCount, limit.MethodLimit, limit.MethodCount)
		}
		return nil

	case "transfer":
		if len(args) != 2 {
			return errUsage
		}
		target, err := repository.Open(args[0], args[1], a.Logger)
		if err != nil {
			return err
		}
		defer target.Close()

		summary, err := repository.Transfer(ctx, a.Stores, target, a.Logger)
		if err != nil {
			return err
		}
		out.printf("transferred %d players and %d games to %s\n", summary.Players, summary.Games, args[1])
		return nil
	}

	return errUsage
}
