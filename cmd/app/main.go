package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wichananm65/user-records/internal/config"
)

const version = "1.0.0"

var (
	rootCmd = &cobra.Command{
		Use:   "user-records",
		Short: "user record management service",
		Long: fmt.Sprintf(`user-records (v%s)

Stores user records keyed by email and serves create, update, delete and
birth date range search over HTTP. Settings can be given as flags or as
%s_<FLAG> environment variables (e.g. %s_MIN_AGE=21).`, version, config.EnvPrefix, config.EnvPrefix),
		SilenceUsage: true,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("user-records v%s\n", version)
		},
	}
)

func init() {
	config.RegisterFlags(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
