package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/muurk/attrstore/internal/attribute"
	"github.com/muurk/attrstore/internal/config"
	"github.com/muurk/attrstore/internal/logging"
	"github.com/muurk/attrstore/internal/protocol"
	"github.com/muurk/attrstore/internal/state"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.StateFile = filepath.Join(t.TempDir(), "state.json")
	cfg.InitDynamicAttributes = `[{"name":"enabled","data_type":"DevBoolean"},{"name":"setpoint","data_type":"DevDouble"}]`
	cfg.Attributes = []attribute.Declaration{
		{Name: "label"},
	}
	return cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)

	d, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, StateOn, d.State())
	assert.Equal(t, config.DefaultDeviceServerName, d.Name())
	assert.Equal(t, cfg.StateFile, d.StateFile())
	assert.Equal(t, []string{"enabled", "setpoint", "label"}, d.Registry().Names())
	assert.NotNil(t, d.Handler())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Listen.Port = 0

	_, err := New(cfg)
	assert.ErrorContains(t, err, "listen.port")
}

func TestNew_SkipsBadDeclarations(t *testing.T) {
	cfg := testConfig(t)
	cfg.Attributes = append(cfg.Attributes,
		attribute.Declaration{Name: "bad_type", DataType: "DevComplex"},
		attribute.Declaration{Name: "bad_mode", WriteType: "SOMETIMES"},
	)

	d, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, 3, d.Registry().Len())
	_, ok := d.Registry().Descriptor("bad_type")
	assert.False(t, ok)
}

func TestNew_RestoresState(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, state.NewStore(cfg.StateFile).Save(map[string]string{
		"enabled":  "true",
		"setpoint": "21.5",
	}))

	d, err := New(cfg)
	require.NoError(t, err)

	v, err := d.Registry().Read("setpoint")
	require.NoError(t, err)
	assert.Equal(t, 21.5, v.Float())

	v, err = d.Registry().Read("enabled")
	require.NoError(t, err)
	assert.True(t, v.Bool())
}

func TestNew_CorruptStateStartsEmpty(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.StateFile, []byte("{not json"), 0644))

	core, logs := observer.New(zapcore.WarnLevel)
	logging.SetLogger(zap.New(core))
	t.Cleanup(func() { logging.SetLogger(nil) })

	d, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, StateOn, d.State())

	raw, ok := d.Registry().RawValue("label")
	assert.True(t, ok)
	assert.Equal(t, "", raw)

	warnings := logs.FilterField(zap.String("state_file", cfg.StateFile)).All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "unreadable state file")
}

func TestDevice_WritesPersistAcrossRestart(t *testing.T) {
	cfg := testConfig(t)

	d, err := New(cfg)
	require.NoError(t, err)

	resp := d.Handler().HandleMessage("test", []byte(`{"id":"1","op":"write","name":"label","value":"garage"}`))
	require.True(t, resp.OK())

	restarted, err := New(cfg)
	require.NoError(t, err)

	resp = restarted.Handler().Handle(&protocol.Request{ID: "2", Op: protocol.OpRead, Name: "label"})
	require.True(t, resp.OK())
	assert.JSONEq(t, `"garage"`, string(resp.Value))
}

func TestDevice_NewServer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Listen.Host = "127.0.0.1"
	cfg.Listen.Port = 9090

	d, err := New(cfg)
	require.NoError(t, err)

	srv, err := d.NewServer()
	require.NoError(t, err)
	assert.NotNil(t, srv)
	assert.Nil(t, srv.Addr(), "server should not listen before Start")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "INIT", StateInit.String())
	assert.Equal(t, "ON", StateOn.String())
	assert.Equal(t, "OFF", StateOff.String())
	assert.Equal(t, "State(7)", State(7).String())
}
