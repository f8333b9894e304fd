package main

import (
	"fmt"

	"github.com/delmic/odemis-sub008/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the component graph visualization",
	Long: `Outputs a Mermaid diagram (graph LR) of the components and the detectors they affect.
The path to the detector of the current mode is highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		components := app.Manager.Components()
		var overlay *graph.GraphOverlay
		if target := app.CurrentTarget(); target != "" {
			overlay = graph.PathOverlay(app.Manager.Graph(), components, target)
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(components, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
