package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/brk3/habitkit/internal/tracker"
	"github.com/brk3/habitkit/pkg/habit"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals and streak records across all habits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := client().Stats(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, stats)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total completions: %d\n", stats.TotalCompletions)
		fmt.Fprintf(out, "Longest streak:    %d%s\n", stats.LongestStreakEver, holderSuffix(stats.LongestStreakHabit))
		fmt.Fprintf(out, "Current best:      %d%s\n", stats.CurrentLongestStreak, holderSuffix(stats.CurrentLongestStreakHabit))
		return nil
	},
}

func holderSuffix(h *habit.StreakHolder) string {
	if h == nil {
		return ""
	}
	if h.Icon != "" {
		return fmt.Sprintf(" (%s %s)", h.Icon, h.Name)
	}
	return fmt.Sprintf(" (%s)", h.Name)
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show goal progress for every active habit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client()
		res, err := c.Today(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, res)
		}
		habits, err := c.ListHabits(cmd.Context())
		if err != nil {
			return err
		}
		names := make(map[string]string, len(habits))
		for _, h := range habits {
			names[h.ID] = h.Name
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Progress for %s\n", res.Day)
		for _, p := range res.Progress {
			printProgress(cmd.OutOrStdout(), names[p.HabitID], p)
		}
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary <habit>",
	Short: "Show streaks and history for one habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client()
		h, err := resolveHabit(cmd.Context(), c, args[0])
		if err != nil {
			return err
		}
		sum, err := c.GetHabitSummary(cmd.Context(), h.ID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, sum)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "Habit:\t%s\n", sum.Name)
		fmt.Fprintf(tw, "Current streak:\t%d\n", sum.CurrentStreak)
		fmt.Fprintf(tw, "Longest streak:\t%d\n", sum.LongestStreak)
		fmt.Fprintf(tw, "Days done:\t%d\n", sum.TotalDaysDone)
		fmt.Fprintf(tw, "This month:\t%d\n", sum.ThisMonth)
		fmt.Fprintf(tw, "Best month:\t%d\n", sum.BestMonth)
		if sum.FirstLogged != "" {
			fmt.Fprintf(tw, "Logged:\t%s to %s\n", sum.FirstLogged, sum.LastLogged)
		}
		return tw.Flush()
	},
}

var seriesFlags tracker.SeriesRequest

var seriesCmd = &cobra.Command{
	Use:   "series [habit]",
	Short: "Show completion percentages per day, week or month",
	Long: `Without a habit, each point is the share of active habits with a matching
goal period that met their goal. With a habit, each point is 100 or 0.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client()
		var (
			s   *habit.Series
			err error
		)
		if len(args) == 1 {
			h, rerr := resolveHabit(cmd.Context(), c, args[0])
			if rerr != nil {
				return rerr
			}
			s, err = c.HabitSeries(cmd.Context(), h.ID, seriesFlags)
		} else {
			s, err = c.OverallSeries(cmd.Context(), seriesFlags)
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, s)
		}
		printSeries(cmd.OutOrStdout(), s)
		return nil
	},
}

func printSeries(w io.Writer, s *habit.Series) {
	const width = 20
	for _, p := range s.Points {
		bar := strings.Repeat("#", p.CompletionPercentage*width/100)
		fmt.Fprintf(w, "%s  %-*s %3d%%\n", p.BucketStart, width, bar, p.CompletionPercentage)
	}
	fmt.Fprintf(w, "Average: %d%% (%s to %s)\n", s.Average, s.Start, s.End)
}

func init() {
	seriesCmd.Flags().StringVar(&seriesFlags.Bucket, "bucket", "day", "Bucket size: day, week or month")
	seriesCmd.Flags().IntVar(&seriesFlags.N, "n", 0, "Number of buckets (default 7 days, 4 weeks or 6 months)")
	seriesCmd.Flags().StringVar(&seriesFlags.End, "end", "", "Last day of the window YYYY-MM-DD (default today)")
	seriesCmd.Flags().StringVar(&seriesFlags.Dir, "dir", "", "Page the window: prev or next")

	rootCmd.AddCommand(statsCmd, todayCmd, summaryCmd, seriesCmd)
}
