// Command stratum-demo runs a small server exercising a full composition
// pipeline: a tenant layout fetch feeding a cached project page fetch, served
// as JSON data endpoints with Prometheus metrics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stratum-demo",
		Short: "Demo server for the stratum composition pipeline",
		Long: `stratum-demo serves a worked example of the stratum pipeline:

  • A tenant layout fetch stage deriving a locals context
  • A cached page fetch stage keyed on route parameters
  • Serialized composed props as JSON data endpoints
  • Prometheus metrics on /metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stratum-demo %s (%s)\n", version, commit)
		},
	}
}
