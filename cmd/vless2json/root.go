package main

import (
	"fmt"
	"os"

	"vless2json/internal/config"
	"vless2json/internal/link"
	"vless2json/internal/logger"
	"vless2json/internal/xray"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	flagHTTPPort  int
	flagSocksPort int
	flagOutput    string
	flagSettings  string
	verbose       bool
	logFile       string
)

var rootCmd = &cobra.Command{
	Use:   "vless2json [flags] VLESS_LINK",
	Short: "Convert a VLESS share link into an Xray daemon config",
	Long: `Takes a vless://<uuid>@host:port?[query...]#name share link and writes a
complete, ready-to-run Xray configuration: local socks/http listeners, the
proxy/direct/block outbounds and the fixed routing rule set. Optional link
parameters missing from the query string get sensible defaults.`,
	Example: `  vless2json 'vless://<UUID>@example.com:443?security=reality&encryption=none'
  vless2json --http-proxy 1080 'vless://<UUID>@example.com:443?...'
  vless2json --socks5-proxy 1090 'vless://<UUID>@example.com:443?...'`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(verbose, logFile)
	},
	RunE: runConvert,
}

func Execute() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute runs the root command and flushes the logger on success and
// failure alike.
func execute() error {
	defer logger.Sync()
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().IntVar(&flagHTTPPort, "http-proxy", 0, "Local HTTP-proxy port (8108 by default)")
	rootCmd.Flags().IntVar(&flagSocksPort, "socks5-proxy", 0, "Local SOCKS5-proxy port (8107 by default)")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file path (config.json by default)")
	rootCmd.Flags().StringVar(&flagSettings, "settings", "", "Optional YAML settings file with default ports/output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr (overwrites file)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	// Flag validation comes first: a bad local port must fail before the
	// link is even looked at.
	if err := checkPortFlag(cmd, "http-proxy", flagHTTPPort); err != nil {
		return err
	}
	if err := checkPortFlag(cmd, "socks5-proxy", flagSocksPort); err != nil {
		return err
	}

	settings, err := config.Load(flagSettings)
	if err != nil {
		return err
	}

	ports := xray.ListenPorts{
		HTTP:  firstPort(flagHTTPPort, settings.Proxies.HTTPPort),
		Socks: firstPort(flagSocksPort, settings.Proxies.SocksPort),
	}
	output := flagOutput
	if output == "" {
		output = settings.Output
	}

	rec, err := link.Parse(args[0])
	if err != nil {
		return err
	}

	if _, err := uuid.Parse(rec.Identity); err != nil {
		logger.Log.Warnf("user id %q is not a UUID, the daemon may reject it", rec.Identity)
	}
	if rec.DisplayName != "" {
		logger.Log.Infof("Converting node %q", rec.DisplayName)
	}

	doc := xray.Build(rec, ports)
	data, err := xray.Encode(doc)
	if err != nil {
		return err
	}
	if err := xray.WriteFile(output, data); err != nil {
		return err
	}

	logger.Log.Infof("Config written to %s", output)
	return nil
}

// checkPortFlag validates an explicitly supplied listener port. Changed
// distinguishes "--http-proxy 0" from the flag being absent: any supplied
// value outside [1,65535], zero included, is a usage error.
func checkPortFlag(cmd *cobra.Command, name string, port int) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("--%s should be in range of 1..65535", name)
	}
	return nil
}

// firstPort picks the flag value when set, else the settings-file value.
// Zero from both means the synthesizer applies its built-in default.
func firstPort(flagVal, settingsVal int) int {
	if flagVal != 0 {
		return flagVal
	}
	return settingsVal
}
