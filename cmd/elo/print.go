package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"league-elo/internal/domain"
	"league-elo/internal/rating"
	"league-elo/internal/service"
)

type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) table(fn func(tw *tabwriter.Writer)) {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fn(tw)
	tw.Flush()
}

func (p *printer) results(gameID, method string, results []domain.MatchResult) {
	p.printf("game %s (%s)\n", gameID, method)
	p.table(func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "PLAYER\tTEAM\tROLE\tRESULT\tPERF\tELO\tCHANGE")
		for _, r := range results {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%.2f\t%d -> %d\t%+d\n",
				r.Name, r.Team, r.Role, outcome(r.Win), r.PerformanceScore, r.OldRating, r.NewRating, r.Delta)
		}
	})
}

func (p *printer) batch(items []service.BatchItem) {
	var failed int
	for _, it := range items {
		if it.Err != nil {
			failed++
			p.printf("game %s failed: %v\n", it.GameID, it.Err)
			continue
		}
		p.results(it.GameID, it.Method, it.Results)
	}
	p.printf("processed %d games, %d failed\n", len(items)-failed, failed)
}

func (p *printer) comparison(gameID string, o *rating.Outcome) {
	methods := make([]string, 0)
	if len(o.Results) > 0 {
		for m := range o.Results[0].Methods {
			methods = append(methods, m)
		}
	}
	sort.Strings(methods)

	p.printf("game %s (authoritative: %s)\n", gameID, o.Method)
	p.table(func(tw *tabwriter.Writer) {
		fmt.Fprint(tw, "PLAYER\tRESULT\tPERF\tLANE")
		for _, m := range methods {
			fmt.Fprintf(tw, "\t%s", m)
		}
		fmt.Fprintln(tw)

		for _, r := range o.Results {
			lane := "-"
			if r.LaneRank != nil {
				lane = fmt.Sprintf("#%d", *r.LaneRank)
			}
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s", r.Name, outcome(r.Win), r.PerformanceScore, lane)
			for _, m := range methods {
				fmt.Fprintf(tw, "\t%+d", r.Methods[m].Delta)
			}
			fmt.Fprintln(tw)
		}
	})
}

func (p *printer) entries(entries []service.LeaderboardEntry) {
	p.table(func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "#\tPLAYER\tELO\tGAMES\tW:L\tWIN%\tAVG K")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%.1f\t%.1f\n",
				e.Rank, e.Name, e.Rating, e.Games, e.WinLoss, e.WinRate*100, e.AvgKills)
		}
	})
}

func (p *printer) leaderboard(lb *service.Leaderboard) {
	if len(lb.Players) == 0 {
		p.printf("no players with at least %d games\n", lb.MinGames)
		return
	}
	p.entries(lb.Players)

	s := lb.Summary
	p.printf("\n%d players, %d games, average elo %d\n", s.TotalPlayers, s.TotalGames, s.AverageRating)
	if s.HighestRating != nil {
		p.printf("highest elo: %s (%d)\n", s.HighestRating.Name, s.HighestRating.Rating)
	}
	if s.MostGames != nil {
		p.printf("most games: %s (%d)\n", s.MostGames.Name, s.MostGames.Games)
	}
	if s.BestWinRate != nil {
		p.printf("best win rate: %s (%.1f%%)\n", s.BestWinRate.Name, s.BestWinRate.WinRate*100)
	}
}

func (p *printer) player(d *service.PlayerDetail) {
	p.printf("%s: %d elo, %d games (%s, %.1f%%)\n", d.Name, d.Rating, d.Games, d.WinLoss, d.WinRate*100)
	p.printf("avg %.1f / %.1f / %.1f, kda %.2f, avg gold %.0f\n", d.AvgKills, d.AvgDeaths, d.AvgAssists, d.KDA, d.AvgGold)
	if len(d.Recent) == 0 {
		return
	}
	p.printf("\nrecent games\n")
	p.table(func(tw *tabwriter.Writer) {
		for _, h := range d.Recent {
			fmt.Fprintf(tw, "%s\t%s\t%d -> %d\t%+d\t%s\n",
				h.Timestamp.Format("2006-01-02 15:04"), h.GameID, h.OldRating, h.NewRating, h.Delta, h.Method)
		}
	})
}

func outcome(win bool) string {
	if win {
		return "W"
	}
	return "L"
}
