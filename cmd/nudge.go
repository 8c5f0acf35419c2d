package cmd

import (
	"fmt"
	"time"

	"github.com/brk3/habitkit/internal/nudge"

	"github.com/spf13/cobra"
)

var nudgeWithin time.Duration

var nudgeCmd = &cobra.Command{
	Use:   "nudge",
	Short: "Print a reminder for habit streaks that end at midnight",
	Long: `The "nudge" command lists habits done yesterday but not yet today. With
--within it stays quiet until midnight is at most that far away, which suits a
cron job.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		n := &nudge.WriterNotifier{W: cmd.OutOrStdout()}
		_, err = nudge.Nudge(cmd.Context(), client(), n, time.Now().In(loc), nudgeWithin)
		return err
	},
}

var atRiskCmd = &cobra.Command{
	Use:   "at-risk",
	Short: "List streaks that break unless completed today",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		risky, err := client().AtRisk(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, risky)
		}
		if len(risky) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No streaks at risk")
			return nil
		}
		for _, r := range risky {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d day streak, last done %s\n", r.Name, r.CurrentStreak, r.LastCompleted)
		}
		return nil
	},
}

func init() {
	nudgeCmd.Flags().DurationVar(&nudgeWithin, "within", 0, "Only nudge when midnight is at most this far away, e.g. 3h")
	rootCmd.AddCommand(nudgeCmd, atRiskCmd)
}
