package config

import "time"

// Config holds runtime settings for the spendkeeper CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - OnlineCheckInterval: how often the client probes server health.
//   - DataDir: directory of the local SQLite database keeping the session.
type Config struct {
	ServerEndpointAddr  string        `env:"SPENDKEEPER_SERVER_ADDR"`
	OnlineCheckInterval time.Duration `env:"SPENDKEEPER_ONLINE_CHECK_INTERVAL"`
	DataDir             string        `env:"SPENDKEEPER_DATA_DIR"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DataDir = ".spendkeeper"
}

// LoadConfig builds a Config from defaults, the JSON file, SPENDKEEPER_*
// environment variables and flags, in that order.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
