package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/callscope/internal/export"
)

var exportOut string

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Inspect and manage stored calls",
}

var callsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		calls, err := a.proc.List(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), calls)
	},
}

var callsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid call id %q", args[0])
		}

		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		deleted, err := a.proc.Delete(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("call %d not found", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted call %d\n", id)
		return nil
	},
}

var callsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show sentiment, urgency and outcome distributions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := a.proc.Summary(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), sum)
	},
}

var callsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored calls and their summary to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		calls, err := a.proc.List(cmd.Context())
		if err != nil {
			return err
		}
		sum, err := a.proc.Summary(cmd.Context())
		if err != nil {
			return err
		}

		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		if err := export.WriteCalls(f, calls, sum); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d calls to %s\n", len(calls), exportOut)
		return nil
	},
}

func init() {
	callsExportCmd.Flags().StringVarP(&exportOut, "out", "o", "support_calls.xlsx", "output workbook path")
	callsCmd.AddCommand(callsListCmd, callsDeleteCmd, callsSummaryCmd, callsExportCmd)
	rootCmd.AddCommand(callsCmd)
}
