package client

import (
	"context"
	"fmt"
	benchClient "github.com/ValentinKolb/xferbench/bench/client"
	"github.com/ValentinKolb/xferbench/bench/common"
	"github.com/ValentinKolb/xferbench/bench/transport/tcp"
	cmdUtil "github.com/ValentinKolb/xferbench/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	clientCmdConfig = common.NewClientConfig()
	ClientCmd       = &cobra.Command{
		Use:   "client <server_address> <port> <message_size_bytes> <thread_count> <duration_seconds>",
		Short: "Run the benchmark client",
		Long: `Run the benchmark client. <thread_count> workers each open a connection to the server and
receive messages of <message_size_bytes> bytes for <duration_seconds> seconds. Afterwards a line per
worker and the aggregate results are printed. Optional settings can be given as flags or as
environment variables in the format XFERBENCH_<flag> (e.g. XFERBENCH_READ_BUFFER=4096).`,
		Args:    cobra.ExactArgs(5),
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "tcp-nodelay"
	ClientCmd.Flags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY on the client connections"))

	key = "read-buffer"
	ClientCmd.Flags().Int(key, 0, cmdUtil.WrapString("The size of the socket receive buffer in KB (0 keeps the kernel default)"))

	key = "progress-interval"
	ClientCmd.Flags().Int(key, 0, cmdUtil.WrapString("Seconds between two progress lines (0 disables progress output)"))

	key = "pin-cpus"
	ClientCmd.Flags().Bool(key, false, cmdUtil.WrapString("Pin every receive worker to a CPU (round-robin)"))
}

// processConfig reads the positional arguments, command line flags and environment variables and converts them to the client configuration
func processConfig(cmd *cobra.Command, args []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	clientCmdConfig.Address = args[0]

	port, err := cmdUtil.ParseIntArg("port", args[1])
	if err != nil {
		return err
	}
	size, err := cmdUtil.ParsePositiveIntArg("message size", args[2])
	if err != nil {
		return err
	}
	threads, err := cmdUtil.ParsePositiveIntArg("thread count", args[3])
	if err != nil {
		return err
	}
	seconds, err := cmdUtil.ParsePositiveIntArg("duration", args[4])
	if err != nil {
		return err
	}

	clientCmdConfig.Port = port
	clientCmdConfig.MessageSize = size
	clientCmdConfig.Threads = threads
	clientCmdConfig.Duration = time.Duration(seconds) * time.Second

	clientCmdConfig.Socket.TCPNoDelay = viper.GetBool("tcp-nodelay")
	clientCmdConfig.Socket.ReadBufferSize = viper.GetInt("read-buffer") * 1024
	clientCmdConfig.ProgressInterval = time.Duration(viper.GetInt("progress-interval")) * time.Second
	clientCmdConfig.PinCPUs = viper.GetBool("pin-cpus")
	clientCmdConfig.LogLevel = viper.GetString("log-level")

	return clientCmdConfig.Validate()
}

// run starts the receive workers and prints the report
func run(cmd *cobra.Command, _ []string) error {
	if err := common.InitLoggers(clientCmdConfig.LogLevel); err != nil {
		return err
	}
	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("[Client] Connecting to %s | msg_size=%d | threads=%d | duration=%s\n",
		clientCmdConfig.Endpoint(), clientCmdConfig.MessageSize, clientCmdConfig.Threads, clientCmdConfig.Duration)
	benchClient.Logger.Debugf("Client config:\n%s", clientCmdConfig.String())

	results := benchClient.Run(ctx, clientCmdConfig, tcp.NewTCPClientTransport())
	summary := benchClient.Aggregate(results)
	benchClient.PrintReport(os.Stdout, results, summary)

	if summary.Failed == summary.Workers {
		return fmt.Errorf("no worker could receive from %s", clientCmdConfig.Endpoint())
	}
	return nil
}
