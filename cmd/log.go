package cmd

import (
	"fmt"
	"io"

	"github.com/brk3/habitkit/pkg/habit"
	"github.com/spf13/cobra"
)

var logDay string

func printProgress(w io.Writer, name string, p habit.Progress) {
	state := "in progress"
	if p.IsCompleted {
		state = "done"
	}
	fmt.Fprintf(w, "%s: %d/%d for %s..%s (%s)\n", name, p.Count, p.Goal, p.PeriodStart, p.PeriodEnd, state)
}

var toggleCmd = &cobra.Command{
	Use:     "toggle <habit>",
	Aliases: []string{"log"},
	Short:   "Mark a day done, or undo it if it already is",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client()
		h, err := resolveHabit(cmd.Context(), c, args[0])
		if err != nil {
			return err
		}
		res, err := c.Toggle(cmd.Context(), h.ID, logDay)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, res)
		}
		verb := "Unmarked"
		if res.Completed {
			verb = "Marked"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s\n", verb, h.Name, res.Day)
		return nil
	},
}

var incCmd = &cobra.Command{
	Use:   "inc <habit>",
	Short: "Record one more completion toward the goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client()
		h, err := resolveHabit(cmd.Context(), c, args[0])
		if err != nil {
			return err
		}
		p, err := c.Increment(cmd.Context(), h.ID, logDay)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, p)
		}
		printProgress(cmd.OutOrStdout(), h.Name, *p)
		return nil
	},
}

var decCmd = &cobra.Command{
	Use:   "dec <habit>",
	Short: "Remove the latest completion in the goal period",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client()
		h, err := resolveHabit(cmd.Context(), c, args[0])
		if err != nil {
			return err
		}
		res, err := c.Decrement(cmd.Context(), h.ID, logDay)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, res)
		}
		if !res.Decremented {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: nothing to remove for %s..%s\n", h.Name, res.Progress.PeriodStart, res.Progress.PeriodEnd)
			return nil
		}
		printProgress(cmd.OutOrStdout(), h.Name, res.Progress)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{toggleCmd, incCmd, decCmd} {
		c.Flags().StringVar(&logDay, "day", "", "Day YYYY-MM-DD (default today)")
		rootCmd.AddCommand(c)
	}
}
