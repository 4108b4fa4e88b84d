package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/attrstore/internal/attribute"
	"github.com/muurk/attrstore/internal/client"
	"github.com/muurk/attrstore/internal/config"
	"github.com/muurk/attrstore/internal/protocol"
	"github.com/muurk/attrstore/internal/state"
	"github.com/muurk/attrstore/internal/ui"
)

// Common flags
var (
	serverURL    string
	timeout      time.Duration
	insecure     bool
	outputFormat string
)

// Offline command flags
var (
	configPath    string
	stateFilePath string
	declFile      string
	emitPayload   bool
	force         bool
	watchInterval time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "ws://localhost:8080/ws", "Attribute server WebSocket URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification for wss:// URLs")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format (table, json)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(stateCmd)
}

// connect dials the server named by --url.
func connect(ctx context.Context) (*client.Client, error) {
	opts := &client.Options{Timeout: timeout}
	if insecure {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --insecure
	}
	return client.Dial(ctx, serverURL, opts)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func wantJSON() bool {
	return outputFormat == "json"
}

// listCmd shows every attribute with its current value
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List attributes and their values",
	Example: `  attrstore-ctl list
  attrstore-ctl list --url wss://plant-3:8443/ws --format json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	descs, values, readErrs, err := c.Snapshot(ctx)
	if err != nil {
		return err
	}

	if wantJSON() {
		type entry struct {
			attribute.Descriptor
			Value *string `json:"value,omitempty"`
			Error string  `json:"error,omitempty"`
		}
		out := make([]entry, 0, len(descs))
		for _, d := range descs {
			e := entry{Descriptor: d}
			if v, ok := values[d.Name]; ok {
				e.Value = &v
			}
			if readErrs[d.Name] != nil {
				e.Error = readErrs[d.Name].Error()
			}
			out = append(out, e)
		}
		return printJSON(cmd.OutOrStdout(), out)
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("Attributes", c.URL())
	p.PrintAttributes(descs, values)
	for _, d := range descs {
		if readErrs[d.Name] != nil {
			p.Println(ui.ErrorMessageStyle.Render(fmt.Sprintf("  %s %s", ui.FailureMarker, readErrs[d.Name])))
		}
	}
	return nil
}

// describeCmd shows one attribute's metadata
var describeCmd = &cobra.Command{
	Use:   "describe <name>",
	Short: "Show an attribute's type, access mode and metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		d, err := c.Describe(ctx, args[0])
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), d)
		}

		result := ui.NewSuccessResult(d.Name,
			ui.Detail{Key: "Type", Value: d.Type.String()},
			ui.Detail{Key: "Access", Value: d.Access.String()},
		)
		if d.Bounds != nil {
			result.AddDetail("Bounds", ui.FormatBounds(d.Bounds))
		}
		for _, kv := range []ui.Detail{
			{Key: "Unit", Value: d.Unit},
			{Key: "Label", Value: d.Label},
			{Key: "Modifier", Value: d.Modifier},
			{Key: "Min alarm", Value: d.Alarms.MinAlarm},
			{Key: "Max alarm", Value: d.Alarms.MaxAlarm},
			{Key: "Min warning", Value: d.Alarms.MinWarning},
			{Key: "Max warning", Value: d.Alarms.MaxWarning},
		} {
			if kv.Value != "" {
				result.AddDetail(kv.Key, kv.Value)
			}
		}
		ui.NewPrinter(cmd.OutOrStdout()).Println(result.Render())
		return nil
	},
}

// getCmd reads one attribute
var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Read an attribute's typed value",
	Long: `Read an attribute's current value, coerced to its declared type.

The value is printed on its own so the command can be used in scripts.
With --format json the JSON scalar sent by the server is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		raw, err := c.Read(ctx, args[0])
		if err != nil {
			return err
		}
		if wantJSON() {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return err
		}
		text, err := client.ValueText(raw)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	},
}

// setCmd writes one attribute
var setCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Write an attribute's value",
	Long: `Write an attribute's value.

The value is stored as text and checked against the declared type only
when it is read back.`,
	Example: `  attrstore-ctl set setpoint 21.5
  attrstore-ctl set enabled true`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		p := ui.NewPrinter(cmd.OutOrStdout())
		name, value := args[0], args[1]

		err = c.Write(ctx, name, value)
		switch {
		case client.HasCode(err, protocol.CodePersistence):
			p.PrintWarning("Value written but not saved",
				ui.Detail{Key: "Attribute", Value: name},
				ui.Detail{Key: "Value", Value: value},
				ui.Detail{Key: "Problem", Value: err.Error()},
			)
			return nil
		case client.HasCode(err, protocol.CodeAccessDenied):
			p.PrintError("Write refused", err, "attrstore-ctl describe "+name)
			return err
		case err != nil:
			return err
		}

		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), map[string]string{"name": name, "value": value})
		}
		p.PrintSuccess("Value written",
			ui.Detail{Key: "Attribute", Value: name},
			ui.Detail{Key: "Value", Value: value},
		)
		return nil
	},
}

// watchCmd polls the server and shows a live table
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch attribute values live",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		fetch := func(ctx context.Context) (ui.Snapshot, error) {
			descs, values, errs, err := c.Snapshot(ctx)
			return ui.Snapshot{Descriptors: descs, Values: values, Errors: errs}, err
		}
		return ui.RunWatch(ctx, "Watching "+c.URL(), fetch, watchInterval)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "Poll interval")
}

// parseCmd shows how a declaration payload is interpreted
var parseCmd = &cobra.Command{
	Use:   "parse [payload]",
	Short: "Show how a declaration payload is interpreted",
	Long: `Parse an INIT_DYNAMIC_ATTRIBUTES payload and show the attributes it
declares, without contacting a server.

The payload is taken from the argument, from --file, or from standard input
when the argument is "-". Declarations that would be rejected at startup
are reported.

With --emit the accepted declarations are printed as a JSON record payload,
which converts a legacy name list to the structured form.`,
	Example: `  attrstore-ctl parse 'enabled,mode'
  attrstore-ctl parse '[{"name":"setpoint","data_type":"DevDouble","min_value":"0","max_value":"100"}]'
  echo "$INIT_DYNAMIC_ATTRIBUTES" | attrstore-ctl parse -
  attrstore-ctl parse --emit 'enabled,mode'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVar(&declFile, "file", "", "Read the payload from a file")
	parseCmd.Flags().BoolVar(&emitPayload, "emit", false, "Print the accepted declarations as a JSON record payload")
}

func readPayload(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case declFile != "":
		data, err := os.ReadFile(declFile)
		if err != nil {
			return "", fmt.Errorf("failed to read payload: %w", err)
		}
		return string(data), nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read payload: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return os.Getenv(config.EnvInitDynamicAttributes), nil
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	payload, err := readPayload(cmd, args)
	if err != nil {
		return err
	}

	decls := attribute.ParseDeclarations(payload)

	// A registry without a store shows exactly what startup would register.
	reg := attribute.NewRegistry(nil)
	accepted := make([]attribute.Declaration, 0, len(decls))
	var problems []error
	for _, d := range decls {
		if err := reg.Register(d); err != nil {
			problems = append(problems, err)
			continue
		}
		if d.Name != "" {
			accepted = append(accepted, d)
		}
	}
	regErr := errors.Join(problems...)

	if emitPayload {
		payload, err := attribute.FormatDeclarations(accepted)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), payload)
		return err
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), reg.Descriptors())
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("Declarations", fmt.Sprintf("%d parsed, %d registered", len(decls), reg.Len()))
	p.PrintAttributes(reg.Descriptors(), nil)
	if regErr != nil {
		p.PrintWarning("Some declarations were rejected",
			ui.Detail{Key: "Problems", Value: regErr.Error()})
	}
	return nil
}

// configCmd groups configuration file commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create and inspect server configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.ExampleConfig().Save(path); err != nil {
			return err
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Configuration written",
			ui.Detail{Key: "Path", Value: path})
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective server configuration",
	Long: `Show the configuration the server would start with: the file, then
environment overrides, with the declared attributes resolved.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg.ApplyEnv(os.Getenv)
		if _, err := cfg.ResolveStateFile(); err != nil {
			return err
		}

		reg := attribute.NewRegistry(nil)
		regErr := reg.RegisterAll(cfg.Declarations())

		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), struct {
				*config.Config
				Resolved []attribute.Descriptor `json:"resolved_attributes"`
			}{cfg, reg.Descriptors()})
		}

		p := ui.NewPrinter(cmd.OutOrStdout())
		details := []ui.Detail{
			{Key: "Name", Value: cfg.DeviceServerName},
			{Key: "Listen", Value: fmt.Sprintf("%s:%d", cfg.Listen.Host, cfg.Listen.Port)},
			{Key: "TLS", Value: fmt.Sprintf("%t", cfg.TLS.Enabled())},
			{Key: "State file", Value: cfg.StateFile},
			{Key: "Log level", Value: cfg.LogLevel},
		}
		if err := cfg.Validate(); err != nil {
			p.PrintError("Configuration is invalid", err)
		} else {
			p.PrintSuccess("Configuration", details...)
		}
		p.PrintAttributes(reg.Descriptors(), nil)
		if regErr != nil {
			p.PrintWarning("Some declarations were rejected",
				ui.Detail{Key: "Problems", Value: regErr.Error()})
		}
		return nil
	},
}

func init() {
	configCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (default: user config directory)")
	configInitCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

// stateCmd groups state file commands
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and reset a server's state file",
	Long: `Inspect and reset a server's state file directly.

The file is found from --state-file, or from the server configuration
(--config plus environment overrides). Stop the server before clearing
its state.`,
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show persisted values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStateStore()
		if err != nil {
			return err
		}

		f, err := store.LoadFile()
		if err != nil {
			return err
		}

		p := ui.NewPrinter(cmd.OutOrStdout())
		if f == nil {
			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), state.File{Values: map[string]string{}})
			}
			p.PrintWarning("No state file",
				ui.Detail{Key: "Path", Value: store.Path()})
			return nil
		}

		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), f)
		}

		result := ui.NewSuccessResult("State file",
			ui.Detail{Key: "Path", Value: store.Path()},
			ui.Detail{Key: "Version", Value: fmt.Sprintf("%d", f.Version)},
		)
		if !f.SavedAt.IsZero() {
			result.AddDetail("Saved", f.SavedAt.Local().Format(time.RFC1123))
		}
		result.AddDetail("Values", fmt.Sprintf("%d", len(f.Values)))

		names := make([]string, 0, len(f.Values))
		for name := range f.Values {
			names = append(names, name)
		}
		slices.Sort(names)

		var b strings.Builder
		for _, name := range names {
			fmt.Fprintf(&b, "  %s = %q\n", name, f.Values[name])
		}

		p.Println(result.Render())
		p.Print(b.String())
		return nil
	},
}

var stateClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the state file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStateStore()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear state: %w", err)
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("State cleared",
			ui.Detail{Key: "Path", Value: store.Path()})
		return nil
	},
}

func init() {
	stateCmd.PersistentFlags().StringVar(&stateFilePath, "state-file", "", "Path to the JSON state file")
	stateCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (default: user config directory)")

	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateClearCmd)
}

func openStateStore() (*state.Store, error) {
	if stateFilePath != "" {
		return state.NewStore(stateFilePath), nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	path, err := cfg.ResolveStateFile()
	if err != nil {
		return nil, err
	}
	return state.NewStore(path), nil
}
