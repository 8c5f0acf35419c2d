package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/brk3/habitkit/internal/apiclient"
	"github.com/brk3/habitkit/internal/config"
	"github.com/brk3/habitkit/internal/logger"
	"github.com/brk3/habitkit/pkg/habit"

	"github.com/spf13/cobra"
)

var (
	cfg        *config.Config
	configPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "habits",
	Short: "Track habits, goals and streaks",
	Long: `
	Habits tracks recurring activities against daily, weekly or monthly goals and
	reports streaks and completion rates. Run "habits server" to host the API, then
	use the other commands against it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			if err := os.Setenv("HABITS_CONFIG", configPath); err != nil {
				return err
			}
		}
		var err error
		if cfg, err = config.Load(); err != nil {
			return fmt.Errorf("error loading config file: %w", err)
		}
		level, _ := cfg.Level()
		logger.Setup(level, cfg.LogFormat)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $HABITS_CONFIG or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print raw JSON responses")
}

func client() *apiclient.Client {
	return apiclient.New(cfg.APIBaseURL, cfg.APIKey)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// resolveHabit accepts a habit id or a case-insensitive name. Archived
// habits are matched too so they can be unarchived by name.
func resolveHabit(ctx context.Context, c *apiclient.Client, ref string) (*habit.Habit, error) {
	active, err := c.ListHabits(ctx)
	if err != nil {
		return nil, err
	}
	archived, err := c.ListArchivedHabits(ctx)
	if err != nil {
		return nil, err
	}
	all := append(active, archived...)

	for i := range all {
		if all[i].ID == ref {
			return &all[i], nil
		}
	}
	var match *habit.Habit
	for i := range all {
		if strings.EqualFold(all[i].Name, ref) {
			if match != nil {
				return nil, fmt.Errorf("more than one habit is named %q, use its id", ref)
			}
			match = &all[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no habit %q", ref)
	}
	return match, nil
}
