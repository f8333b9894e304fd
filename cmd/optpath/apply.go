package main

import (
	"fmt"

	"github.com/delmic/odemis-sub008/internal/presentation/tui"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <mode>",
	Short: "Switch the optical path to a mode",
	Long: `Moves every component on the way to the detector of the mode and waits for the moves
to finish. With --detector, the path is set towards that detector instead of the default one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if q, _ := cmd.Flags().GetString("quality"); q != "" {
			app.Manager.SetAcquisitionQuality(domain.Quality(q))
		}

		name, _ := cmd.Flags().GetString("detector")
		det, err := app.Detector(name)
		if err != nil {
			return err
		}
		if err := app.Manager.ApplyMode(args[0], det).Wait(ctx); err != nil {
			return fmt.Errorf("failed to apply %q: %w", args[0], err)
		}

		out, err := renderer()(tui.StateMarkdown(app.Manager.State()))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringP("detector", "d", "", "Detector to direct the light to")
	applyCmd.Flags().StringP("quality", "q", "", "Acquisition quality (fast or best)")
}
