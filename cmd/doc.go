// Package cmd implements the command-line interface of xferbench. It provides
// the two halves of the benchmark as subcommands of a single binary.
//
// The package is organized into several subpackages:
//
//   - serve: Starts the benchmark server (xferbench serve <port> <message_size_bytes>)
//   - client: Runs the receiving client (xferbench client <server_address> <port> <message_size_bytes> <thread_count> <duration_seconds>)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See xferbench -help for a list of all commands.
package cmd
