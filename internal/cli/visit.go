package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/appshell/pkg/cache"
	"github.com/matzehuels/appshell/pkg/visits"
)

// visitorCacheKey stores the local visitor ID.
const visitorCacheKey = "visitor:id"

// visitCommand creates the visit command with subcommands.
func (c *CLI) visitCommand() *cobra.Command {
	var visitor string

	cmd := &cobra.Command{
		Use:   "visit",
		Short: "Record daily visits and show streaks",
		Long: `Record daily visits and show streaks.

Without --visitor a local visitor ID is generated on first use and kept in the
cache.`,
	}
	cmd.PersistentFlags().StringVar(&visitor, "visitor", "", "visitor ID (default: local visitor)")

	cmd.AddCommand(&cobra.Command{
		Use:   "record",
		Short: "Record a visit for today",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVisit(cmd.Context(), visitor, true)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "streak",
		Short: "Show the visit streak",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVisit(cmd.Context(), visitor, false)
		},
	})

	return cmd
}

func (c *CLI) runVisit(ctx context.Context, visitor string, record bool) error {
	store, err := c.openCache(ctx)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer closeQuietly(ctx, store)

	if visitor == "" {
		visitor, err = localVisitorID(ctx, store)
		if err != nil {
			return err
		}
	}

	tracker := visits.NewTracker(store)
	now := time.Now()

	if record {
		added, err := tracker.Record(ctx, visitor, now)
		if err != nil {
			return err
		}
		if added {
			printSuccess("Recorded visit for %s", now.Format(visits.DateLayout))
		} else {
			printInfo("Already visited today")
		}
	}

	streak, err := tracker.Streak(ctx, visitor, now)
	if err != nil {
		return err
	}
	printStreak(visitor, streak)
	return nil
}

// localVisitorID returns the visitor ID kept in store, generating one on
// first use.
func localVisitorID(ctx context.Context, store cache.Cache) (string, error) {
	data, err := cache.Require(ctx, store, visitorCacheKey)
	switch {
	case err == nil && len(data) > 0:
		return string(data), nil
	case err != nil && !errors.Is(err, cache.ErrCacheMiss):
		return "", fmt.Errorf("read visitor id: %w", err)
	}
	id := visits.NewVisitorID()
	if err := store.Set(ctx, visitorCacheKey, []byte(id), 0); err != nil {
		return "", fmt.Errorf("store visitor id: %w", err)
	}
	loggerFromContext(ctx).Debug("generated visitor id", "visitor", id)
	return id, nil
}

func printStreak(visitor string, s visits.Streak) {
	printKeyValue("Visitor", visitor)
	printKeyValue("Current", StyleNumber.Render(strconv.Itoa(s.Current)))
	printKeyValue("Longest", StyleNumber.Render(strconv.Itoa(s.Longest)))
	printKeyValue("Total", StyleNumber.Render(strconv.Itoa(s.Total)))
	if s.LastVisit != "" {
		printKeyValue("Last visit", s.LastVisit)
	}
}
