package main

import (
	"fmt"
	"os"

	"github.com/delmic/odemis-sub008/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List the modes of the instrument",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		mgr := app.Manager
		md := tui.ModesMarkdown(mgr.Table(), mgr.State().LastMode, mgr.Pruned())
		if all, _ := cmd.Flags().GetBool("components"); all {
			md += "\n" + tui.ComponentsMarkdown(mgr.Components(), mgr.Table())
		}
		out, err := renderer()(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the persisted path state",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		out, err := renderer()(tui.StateMarkdown(app.Manager.State()))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modesCmd)
	rootCmd.AddCommand(stateCmd)
	modesCmd.Flags().Bool("components", false, "Also list the components and the modes using them")
}

// renderer styles markdown only when stdout is a terminal.
func renderer() func(string) (string, error) {
	return tui.NewRenderer(term.IsTerminal(int(os.Stdout.Fd())))
}
