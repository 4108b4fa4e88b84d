package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/muurk/attrstore/internal/attribute"
	"github.com/muurk/attrstore/internal/config"
	"github.com/muurk/attrstore/internal/logging"
	"github.com/muurk/attrstore/internal/protocol"
	"github.com/muurk/attrstore/internal/server"
	"github.com/muurk/attrstore/internal/state"
	"go.uber.org/zap"
)

// State is the device server lifecycle state.
type State int

const (
	StateInit State = iota // Registering attributes and restoring values
	StateOn                // Serving
	StateOff               // Stopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateOn:
		return "ON"
	case StateOff:
		return "OFF"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Device is one attribute server instance: a registry built from
// configuration, its state file, and the transport serving it.
type Device struct {
	config   *config.Config
	store    *state.Store
	registry *attribute.Registry
	handler  *protocol.Handler

	mu    sync.RWMutex
	state State
}

// New builds a device from cfg: it registers every configured attribute
// and restores persisted values. Declarations that cannot be registered
// are logged and skipped.
func New(cfg *config.Config) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stateFile, err := cfg.ResolveStateFile()
	if err != nil {
		return nil, err
	}

	store := state.NewStore(stateFile)
	registry := attribute.NewRegistry(store)

	d := &Device{
		config:   cfg,
		store:    store,
		registry: registry,
		handler:  protocol.NewHandler(registry),
		state:    StateInit,
	}

	logging.Info("Initializing device server",
		zap.String("name", cfg.DeviceServerName),
		zap.String("state_file", stateFile),
	)

	if err := registry.RegisterAll(cfg.Declarations()); err != nil {
		logging.Warn("Some attributes were not registered", zap.Error(err))
	}

	restored, err := registry.Restore()
	if attribute.IsPersistenceLoadError(err) {
		logging.Warn("Ignoring unreadable state file, starting with empty values",
			zap.String("state_file", stateFile),
			zap.Error(err),
		)
	}
	for _, name := range registry.Names() {
		raw, _ := registry.RawValue(name)
		logging.LogAttributeAccess("restore", name, raw)
	}

	d.setState(StateOn)
	logging.Info("Device server ready",
		zap.String("name", cfg.DeviceServerName),
		zap.Int("attributes", registry.Len()),
		zap.Bool("state_restored", restored),
	)

	return d, nil
}

// Name returns the device server instance name.
func (d *Device) Name() string {
	return d.config.DeviceServerName
}

// Registry returns the attribute registry.
func (d *Device) Registry() *attribute.Registry {
	return d.registry
}

// Handler returns the protocol handler serving the registry.
func (d *Device) Handler() *protocol.Handler {
	return d.handler
}

// StateFile returns the path values are persisted to.
func (d *Device) StateFile() string {
	return d.store.Path()
}

// State returns the lifecycle state.
func (d *Device) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Device) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// NewServer creates the transport for this device from its configuration.
func (d *Device) NewServer() (*server.Server, error) {
	return server.New(&server.Config{
		Name:     d.config.DeviceServerName,
		Host:     d.config.Listen.Host,
		Port:     d.config.Listen.Port,
		CertPath: d.config.TLS.CertFile,
		KeyPath:  d.config.TLS.KeyFile,
	}, d.handler)
}

// Run serves the registry until ctx is cancelled or a shutdown signal
// arrives.
func (d *Device) Run(ctx context.Context) error {
	srv, err := d.NewServer()
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	defer d.setState(StateOff)
	return srv.Start(ctx)
}
