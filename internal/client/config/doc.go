// Package config loads runtime configuration for the spendkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. SPENDKEEPER_SERVER_ADDR, SPENDKEEPER_ONLINE_CHECK_INTERVAL and
//     SPENDKEEPER_DATA_DIR environment variables.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-i int      online status check interval (seconds)
//	-f string   directory holding the local session database
//
// # JSON schema
//
// Intervals are timex.Duration values, so they may be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "data_dir": ".spendkeeper"
//	}
package config
