// Attrstore-server serves a runtime-configurable set of typed attributes
// over WebSocket and persists their values to a JSON state file.
//
// Usage:
//
//	attrstore-server serve [flags]
//
// See 'attrstore-server serve --help' for available options.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/attrstore/internal/config"
	"github.com/muurk/attrstore/internal/device"
	"github.com/muurk/attrstore/internal/logging"
	"github.com/muurk/attrstore/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "attrstore-server",
	Short: "Typed attribute server",
	Long: `A device server exposing a runtime-configurable set of typed attributes.

Attributes are declared in the configuration file or in the
INIT_DYNAMIC_ATTRIBUTES environment variable. Values are kept as text,
coerced to the declared type on read, and saved to a JSON state file on
every write so they survive restarts.

Use the separate 'attrstore-ctl' utility to read and write attributes.`,
	Version: version.Get().Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command flags
var (
	configPath string
	name       string
	attributes string
	host       string
	port       int
	certPath   string
	keyPath    string
	stateFile  string
	logLevel   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attribute server",
	Long: `Start the attribute server.

Configuration is read from --config, or from the default location in the
user config directory when it exists. Environment variables
DEVICE_SERVER_NAME, STATE_FILE, INIT_DYNAMIC_ATTRIBUTES and
ATTRSTORE_LOG_LEVEL override the file; flags override both.`,
	Example: `  # Serve attributes declared in the environment
  INIT_DYNAMIC_ATTRIBUTES='[{"name":"setpoint","data_type":"DevDouble"}]' attrstore-server serve

  # Legacy name list, every attribute a string
  INIT_DYNAMIC_ATTRIBUTES='enabled,mode,note' attrstore-server serve --port 9000

  # Declarations on the command line
  attrstore-server serve --name lab --attributes 'enabled,mode' --state-file /tmp/lab.json

  # Explicit configuration file and TLS
  attrstore-server serve --config ./attrstore.yaml --cert cert.pem --key key.pem`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to configuration file (default: user config directory)")
	serveCmd.Flags().StringVar(&name, "name", "", "Device server instance name")
	serveCmd.Flags().StringVar(&attributes, "attributes", "", "Attribute declarations (JSON array or comma-separated names)")
	serveCmd.Flags().StringVar(&host, "host", "", "Listen host (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", config.DefaultPort, "Listen port")
	serveCmd.Flags().StringVar(&certPath, "cert", "", "Path to TLS certificate file")
	serveCmd.Flags().StringVar(&keyPath, "key", "", "Path to TLS private key file")
	serveCmd.Flags().StringVar(&stateFile, "state-file", "", "Path to the JSON state file")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv(os.Getenv)

	flags := cmd.Flags()
	if flags.Changed("name") {
		cfg.DeviceServerName = name
	}
	if flags.Changed("attributes") {
		cfg.InitDynamicAttributes = attributes
	}
	if flags.Changed("host") {
		cfg.Listen.Host = host
	}
	if flags.Changed("port") {
		cfg.Listen.Port = port
	}
	if flags.Changed("cert") {
		cfg.TLS.CertFile = certPath
	}
	if flags.Changed("key") {
		cfg.TLS.KeyFile = keyPath
	}
	if flags.Changed("state-file") {
		cfg.StateFile = stateFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return err
	}
	defer logging.Sync()

	dev, err := device.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize device server: %w", err)
	}

	if err := dev.Run(context.Background()); err != nil {
		logging.Error("Server stopped with error", zap.Error(err))
		return err
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("attrstore-server %s\n", version.Full())
	},
}
