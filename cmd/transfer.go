package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/brk3/habitkit/pkg/habit"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write habit definitions as JSON, to stdout or a file",
	Long: `Exports every habit, archived ones included. Completion history is not
exported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		habits, err := client().Export(cmd.Context())
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return printJSON(cmd, habits)
		}
		data, err := json.MarshalIndent(habits, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], append(data, '\n'), 0o600); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d habits to %s\n", len(habits), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Create habits from an export file, - reads stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("read import: %w", err)
		}
		var habits []habit.Habit
		if err := json.Unmarshal(data, &habits); err != nil {
			return fmt.Errorf("parse import: %w", err)
		}
		res, err := client().Import(cmd.Context(), habits)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, res)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d habits, %d failed\n", res.Imported, res.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
}
