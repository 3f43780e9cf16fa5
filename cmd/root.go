package cmd

import (
	"fmt"
	"github.com/ValentinKolb/xferbench/cmd/client"
	"github.com/ValentinKolb/xferbench/cmd/serve"
	"github.com/ValentinKolb/xferbench/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "xferbench",
		Short: "TCP send strategy benchmark",
		Long: fmt.Sprintf(`xferbench (v%s)

A micro-benchmark comparing how per-segment sends (two-copy), a single
gathering sendmsg (one-copy) and MSG_ZEROCOPY sends (zero-copy) affect
throughput and latency of fixed-size messages streamed over TCP.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of xferbench",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("xferbench v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(client.ClientCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
