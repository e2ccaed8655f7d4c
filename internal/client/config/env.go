package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays the variables that are set. A malformed value panics.
func parseEnv(config *Config) {
	if err := cleanenv.ReadEnv(config); err != nil {
		panic(err)
	}
}
