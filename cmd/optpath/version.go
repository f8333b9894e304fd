package main

import (
	"fmt"
	"strings"

	"github.com/delmic/odemis-sub008"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of optpath",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "optpath version %s\n", strings.TrimSpace(optpath.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
