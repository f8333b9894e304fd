package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/delmic/odemis-sub008/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive session on the instrument",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		quiet, _ := cmd.Flags().GetBool("quiet")
		return cli.RunShell(ctx, app, cli.ShellOptions{
			In:     os.Stdin,
			Out:    cmd.OutOrStdout(),
			Render: renderer(),
			Quiet:  quiet || !term.IsTerminal(int(os.Stdin.Fd())),
		})
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().Bool("quiet", false, "Hide the banner and the prompt")
}
