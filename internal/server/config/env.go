package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays SPENDKEEPER_* environment variables. Only variables that
// are set replace the current values; durations use Go syntax ("90s", "1h").
// A malformed value panics, as with the other sources.
func parseEnv(config *Config) {
	if err := cleanenv.ReadEnv(config); err != nil {
		panic(err)
	}
}
