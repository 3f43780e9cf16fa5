package serve

import (
	"github.com/ValentinKolb/xferbench/bench/common"
	"github.com/ValentinKolb/xferbench/bench/server"
	"github.com/ValentinKolb/xferbench/bench/transport/tcp"
	cmdUtil "github.com/ValentinKolb/xferbench/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"time"
)

var (
	serveCmdConfig = common.NewServerConfig()
	ServeCmd       = &cobra.Command{
		Use:   "serve <port> <message_size_bytes>",
		Short: "Start the benchmark server",
		Long: `Start the benchmark server. Every accepted connection gets its own worker that streams
messages of <message_size_bytes> bytes (split into 8 segments) with the selected send strategy until
the client disconnects. Optional settings can be given as flags or as environment variables in the
format XFERBENCH_<flag> (e.g. XFERBENCH_STRATEGY=zero-copy).`,
		Args:    cobra.ExactArgs(2),
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "strategy"
	ServeCmd.Flags().String(key, "two-copy", cmdUtil.WrapString("The send strategy (two-copy: one send per segment, one-copy: one gathering sendmsg per message, zero-copy: gathering sendmsg with MSG_ZEROCOPY)"))

	key = "bind"
	ServeCmd.Flags().String(key, common.DefaultBindAddress, cmdUtil.WrapString("The address the server listens on"))

	key = "tcp-nodelay"
	ServeCmd.Flags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY on accepted connections"))

	key = "write-buffer"
	ServeCmd.Flags().Int(key, 0, cmdUtil.WrapString("The size of the socket send buffer in KB (0 keeps the kernel default)"))

	key = "drain-threshold"
	ServeCmd.Flags().Int(key, common.DefaultDrainThreshold, cmdUtil.WrapString("(zero-copy) Number of in-flight sends at which completion notifications are drained"))

	key = "drain-retries"
	ServeCmd.Flags().Int(key, common.DefaultDrainRetries, cmdUtil.WrapString("(zero-copy) Maximum number of drain attempts before the buffer of a closing connection is released anyway"))

	key = "drain-interval-us"
	ServeCmd.Flags().Int(key, int(common.DefaultDrainInterval/time.Microsecond), cmdUtil.WrapString("(zero-copy) Sleep between two drain attempts in microseconds"))

	key = "enobufs-backoff-us"
	ServeCmd.Flags().Int(key, int(common.DefaultENOBUFSBackoff/time.Microsecond), cmdUtil.WrapString("(zero-copy) Sleep after the kernel rejected a send with ENOBUFS in microseconds"))

	key = "confirmed-only"
	ServeCmd.Flags().Bool(key, false, cmdUtil.WrapString("(zero-copy) Count a message only after its completion notification was received"))

	key = "shutdown-grace"
	ServeCmd.Flags().Int(key, int(common.DefaultShutdownGrace/time.Second), cmdUtil.WrapString("Seconds to wait for connection workers on shutdown before their sockets are shut down"))

	key = "pin-cpus"
	ServeCmd.Flags().Bool(key, false, cmdUtil.WrapString("Pin every connection worker to a CPU (round-robin)"))

	key = "metrics-endpoint"
	ServeCmd.Flags().String(key, "", cmdUtil.WrapString("The address of the Prometheus metrics endpoint (e.g. :9100, empty to disable)"))
}

// processConfig reads the positional arguments, command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, args []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	// positional arguments
	port, err := cmdUtil.ParseIntArg("port", args[0])
	if err != nil {
		return err
	}
	size, err := cmdUtil.ParsePositiveIntArg("message size", args[1])
	if err != nil {
		return err
	}
	serveCmdConfig.Port = port
	serveCmdConfig.MessageSize = size

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Strategy = viper.GetString("strategy")
	serveCmdConfig.BindAddress = viper.GetString("bind")
	serveCmdConfig.Socket.TCPNoDelay = viper.GetBool("tcp-nodelay")
	serveCmdConfig.Socket.WriteBufferSize = viper.GetInt("write-buffer") * 1024
	serveCmdConfig.ZeroCopy.DrainThreshold = viper.GetInt("drain-threshold")
	serveCmdConfig.ZeroCopy.DrainRetries = viper.GetInt("drain-retries")
	serveCmdConfig.ZeroCopy.DrainInterval = time.Duration(viper.GetInt("drain-interval-us")) * time.Microsecond
	serveCmdConfig.ZeroCopy.ENOBUFSBackoff = time.Duration(viper.GetInt("enobufs-backoff-us")) * time.Microsecond
	serveCmdConfig.ZeroCopy.ConfirmedOnly = viper.GetBool("confirmed-only")
	serveCmdConfig.ShutdownGrace = time.Duration(viper.GetInt("shutdown-grace")) * time.Second
	serveCmdConfig.PinCPUs = viper.GetBool("pin-cpus")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return serveCmdConfig.Validate()
}

// run starts the benchmark server
func run(cmd *cobra.Command, _ []string) error {
	if err := common.InitLoggers(serveCmdConfig.LogLevel); err != nil {
		return err
	}

	// setup errors are reported by cobra, usage is not helpful anymore
	cmd.SilenceUsage = true

	serv, err := server.NewBenchServer(serveCmdConfig, tcp.NewTCPServerTransport(), common.NewShutdown())
	if err != nil {
		return err
	}

	return serv.Serve()
}
