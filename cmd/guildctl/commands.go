package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/guildgrid/internal/engine"
	"github.com/talgya/guildgrid/internal/progression"
	"github.com/talgya/guildgrid/internal/roster"
	"github.com/talgya/guildgrid/internal/scoring"
	"github.com/talgya/guildgrid/internal/store"
)

// openService opens the database and builds a quiet service around it.
func openService() (*engine.Service, func(), error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	svc := engine.New(st, logger, 42)
	return svc, func() { st.Close() }, nil
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <roster.yaml>",
		Short: "Load squads and players from a roster file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := roster.LoadSeed(args[0])
			if err != nil {
				return err
			}
			svc, cleanup, err := openService()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.SeedRoster(context.Background(), seed); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d squad(s) and %d player(s)\n",
				len(seed.Squads), len(seed.Players))
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the sprint, squads, and player standings",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openService()
			if err != nil {
				return err
			}
			defer cleanup()
			ctx := context.Background()
			out := cmd.OutOrStdout()

			sprint, err := svc.CurrentSprint(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s - day %d of %d (%d remaining)\n\n",
				sprint.Label, sprint.DaysElapsed+1, engine.SprintDays, sprint.DaysRemaining)

			squads, err := svc.Squads(ctx)
			if err != nil {
				return err
			}
			for _, sq := range squads {
				stats, err := svc.SquadStats(ctx, sq.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "squad %-20s lvl %-3d xp %s/%s  concluded %s pts  planned %s pts\n",
					sq.Name, stats.Level,
					humanize.Comma(int64(stats.XPInLevel)), humanize.Comma(int64(stats.NextLevelXP)),
					humanize.Comma(int64(stats.ConcludedPoints)), humanize.Comma(int64(stats.PlannedPoints)))
			}
			fmt.Fprintln(out)

			players, err := svc.Players(ctx)
			if err != nil {
				return err
			}
			for _, p := range players {
				fmt.Fprintf(out, "%-20s %-9s lvl %-3d xp %s/%s  %s pts  %s coins  %d★\n",
					p.Name, p.Role, p.Level,
					humanize.Comma(int64(p.CurrentXP)), humanize.Comma(int64(p.NextLevelXP)),
					humanize.Comma(int64(p.TotalPoints)), humanize.Comma(int64(p.Coins)),
					progression.Stars(p.Reputation))
			}
			return nil
		},
	}
}

func newEstimateCmd() *cobra.Command {
	var mult float64
	cmd := &cobra.Command{
		Use:   "estimate <size> <complexity>",
		Short: "Preview the reward table for a task shape",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("size: %w", err)
			}
			complexity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("complexity: %w", err)
			}
			est, err := engine.EstimatePoints(size, complexity, mult)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "base points: %d\n", est.BasePoints)
			for r := scoring.RatingHarmful; r <= scoring.RatingOutstanding; r++ {
				rw := est.ByRating[r]
				fmt.Fprintf(out, "  %d (%s): %d pts, %d coins, %s xp\n",
					int(r), r.Label(), rw.Points, rw.Coins, humanize.Comma(int64(rw.XP)))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&mult, "multiplier", 1.0, "rule multiplier")
	return cmd
}
