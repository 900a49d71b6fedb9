package main

import (
	"context"
	"fmt"
	"os"

	"github.com/influxdata/userd"
	"github.com/influxdata/userd/cmd/userd/launcher"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = ""
)

func main() {
	userd.SetBuildInfo(version, commit, date)

	rootCmd, err := launcher.NewCommand(context.Background(), viper.New())
	if err != nil {
		handleErr(err)
	}
	rootCmd.AddCommand(newVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		handleErr(err)
	}
}

func handleErr(err error) {
	_, _ = fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the userd server version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := userd.GetBuildInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "userd %s (git: %s) build_date: %s\n", info.Version, info.Commit, info.Date)
		},
	}
}
