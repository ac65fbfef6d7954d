package main

import (
	"github.com/spf13/cobra"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Score operational risk over the stored call history",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		assessment, err := a.proc.Risk(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), assessment)
	},
}

func init() {
	rootCmd.AddCommand(riskCmd)
}
