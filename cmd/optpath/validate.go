package main

import (
	"fmt"

	"github.com/delmic/odemis-sub008/internal/topology"
	"github.com/delmic/odemis-sub008/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the mode table against the instrument",
	Long: `Reports the modes whose detector is missing, the components that are not on the path
to the detector of their mode, and the positions the components cannot reach.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		out := cmd.OutOrStdout()
		for _, name := range app.Manager.Pruned() {
			fmt.Fprintf(out, "[warning] mode %s: no detector, the mode is unavailable\n", name)
		}

		report := validator.ValidateTable(app.Manager.Table(), topology.NewRegistry(app.Manager.Components()))
		for _, issue := range report.Warnings() {
			fmt.Fprintln(out, issue)
		}
		if err := report.Err(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(out, "Mode table is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
