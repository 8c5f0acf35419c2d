package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/brk3/habitkit/pkg/habit"
	"github.com/spf13/cobra"
)

var listArchived bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List habits",
	Long:  `The "list" command lets you list your tracked habits.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client()
		list := c.ListHabits
		if listArchived {
			list = c.ListArchivedHabits
		}
		habits, err := list(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, habits)
		}
		if len(habits) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No habits")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tGOAL\tREMINDERS")
		for _, h := range habits {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.ID, h.Name, goalString(h), strings.Join(h.Reminders, ","))
		}
		return tw.Flush()
	},
}

func goalString(h habit.Habit) string {
	if h.IsSimple() {
		return "daily"
	}
	period := "day"
	switch h.GoalType {
	case habit.GoalWeekly:
		period = "week"
	case habit.GoalMonthly:
		period = "month"
	}
	return fmt.Sprintf("%d/%s", h.GoalValue, period)
}

var habitFlags struct {
	description string
	icon        string
	color       string
	goal        string
	target      int
	reminders   []string
}

func addHabitFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&habitFlags.description, "description", "", "Free text description")
	cmd.Flags().StringVar(&habitFlags.icon, "icon", "", "Icon shown next to the habit")
	cmd.Flags().StringVar(&habitFlags.color, "color", "", "Display color")
	cmd.Flags().StringVar(&habitFlags.goal, "goal", "daily", "Goal period: daily, weekly or monthly")
	cmd.Flags().IntVar(&habitFlags.target, "target", 1, "Completions needed per goal period")
	cmd.Flags().StringSliceVar(&habitFlags.reminders, "reminder", nil, "Reminder time HH:MM, repeatable")
}

// applyHabitFlags copies the flags the user set onto h.
func applyHabitFlags(cmd *cobra.Command, h *habit.Habit) error {
	f := cmd.Flags()
	if f.Changed("description") {
		h.Description = habitFlags.description
	}
	if f.Changed("icon") {
		h.Icon = habitFlags.icon
	}
	if f.Changed("color") {
		h.Color = habitFlags.color
	}
	if f.Changed("goal") || h.GoalType == "" {
		g, err := habit.ParseGoalType(habitFlags.goal)
		if err != nil {
			return err
		}
		h.GoalType = g
	}
	if f.Changed("target") || h.GoalValue == 0 {
		h.GoalValue = habitFlags.target
	}
	if f.Changed("reminder") {
		h.Reminders = habitFlags.reminders
	}
	return nil
}

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h := habit.Habit{Name: args[0]}
		if err := applyHabitFlags(cmd, &h); err != nil {
			return err
		}
		if err := h.Validate(); err != nil {
			return err
		}
		created, err := client().CreateHabit(cmd.Context(), h)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, created)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var editName string

var editCmd = &cobra.Command{
	Use:   "edit <habit>",
	Short: "Change a habit's name, goal or appearance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client()
		h, err := resolveHabit(cmd.Context(), c, args[0])
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("name") {
			h.Name = editName
		}
		if err := applyHabitFlags(cmd, h); err != nil {
			return err
		}
		updated, err := c.UpdateHabit(cmd.Context(), h.ID, *h)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, updated)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", updated.Name)
		return nil
	},
}

func archiveCommand(use, short string, archived bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <habit>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			h, err := resolveHabit(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			if _, err := c.SetArchived(cmd.Context(), h.ID, archived); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%sd %s\n", strings.ToUpper(use[:1])+use[1:], h.Name)
			return nil
		},
	}
}

var deleteCmd = &cobra.Command{
	Use:   "delete <habit>",
	Short: "Delete a habit and all of its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client()
		h, err := resolveHabit(cmd.Context(), c, args[0])
		if err != nil {
			return err
		}
		if err := c.DeleteHabit(cmd.Context(), h.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", h.Name)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listArchived, "archived", false, "List archived habits instead")
	addHabitFlags(addCmd)
	addHabitFlags(editCmd)
	editCmd.Flags().StringVar(&editName, "name", "", "New name")

	rootCmd.AddCommand(listCmd, addCmd, editCmd, deleteCmd,
		archiveCommand("archive", "Hide a habit without losing its history", true),
		archiveCommand("unarchive", "Restore an archived habit", false),
	)
}
