// Package config provides configuration management for the attribute server.
//
// This package reads a YAML configuration file that names the device server
// instance, its transport listen address, its state file and the attributes
// it exposes. Environment variables override the file so the server can be
// configured entirely from its process environment.
//
// # Configuration File Location
//
// Without an explicit --config path the file is looked up in
// platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/attrstore/config.yaml or $HOME/.config/attrstore/config.yaml
//   - macOS: $HOME/.config/attrstore/config.yaml
//   - Windows: %LOCALAPPDATA%\attrstore\config.yaml
//
// A missing default file is not an error; built-in defaults apply.
//
// # Example
//
//	version: 1
//	device_server_name: storage
//	listen:
//	  host: ""
//	  port: 8080
//	state_file: /var/lib/attrstore/state.json
//	attributes:
//	  - name: enabled
//	    data_type: DevBoolean
//	  - name: setpoint
//	    data_type: DevDouble
//	    min_value: 0
//	    max_value: 100
//	    unit: C
//
// # Environment Overrides
//
//	DEVICE_SERVER_NAME        instance name
//	STATE_FILE                state file path
//	INIT_DYNAMIC_ATTRIBUTES   declaration payload (JSON array or name list)
//	ATTRSTORE_LOG_LEVEL       log level
//
// When no state file is configured it defaults to
// <config dir>/<device_server_name>/state.json.
package config
