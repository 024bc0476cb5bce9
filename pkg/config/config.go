// Package config resolves runtime configuration for the controller and
// scheduler processes from environment variables, with the same
// defaults-if-unset convention the original Python services used.
// Values are exposed as cobra flag defaults in cmd/, not read directly
// by business logic, so components stay constructor-injected rather
// than reaching for a package global.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds everything the supervisors need to construct the
// broker, state store, and domain components.
type Config struct {
	NumFloors    int
	NumElevators int
	SchedulerID  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StateStorePath string

	LogLevel  string
	LogFormat string
}

// Load reads Config from the environment, applying defaults for
// anything unset.
func Load() Config {
	return Config{
		NumFloors:      envInt("NUM_FLOORS", 10),
		NumElevators:   envInt("NUM_ELEVATORS", 3),
		SchedulerID:    envString("SCHEDULER_ID", "1"),
		RedisAddr:      envString("REDIS_ADDR", envHostPort()),
		RedisPassword:  envString("REDIS_PASSWORD", ""),
		RedisDB:        envInt("REDIS_DB", 0),
		StateStorePath: envString("STATE_STORE_PATH", "./elevator-state.db"),
		LogLevel:       envString("LOG_LEVEL", "info"),
		LogFormat:      envString("LOG_FORMAT", "console"),
	}
}

// fileOverrides is the shape of an optional YAML overrides file
// (e.g. elevator.yaml), applied after cobra flag parsing on top of the
// flag/environment-derived values, so a field set in the file wins over
// both.
type fileOverrides struct {
	NumFloors      *int    `yaml:"num_floors"`
	NumElevators   *int    `yaml:"num_elevators"`
	SchedulerID    *string `yaml:"scheduler_id"`
	RedisAddr      *string `yaml:"redis_addr"`
	RedisPassword  *string `yaml:"redis_password"`
	RedisDB        *int    `yaml:"redis_db"`
	StateStorePath *string `yaml:"state_store_path"`
	LogLevel       *string `yaml:"log_level"`
	LogFormat      *string `yaml:"log_format"`
}

// LoadFile reads path as a YAML overrides file and applies any field it
// sets on top of cfg, returning the merged result. A missing file is not
// an error: callers pass an optional, conventionally-named path and fall
// back to pure environment configuration when it does not exist.
func LoadFile(path string, cfg Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	var overrides fileOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return cfg, err
	}
	if overrides.NumFloors != nil {
		cfg.NumFloors = *overrides.NumFloors
	}
	if overrides.NumElevators != nil {
		cfg.NumElevators = *overrides.NumElevators
	}
	if overrides.SchedulerID != nil {
		cfg.SchedulerID = *overrides.SchedulerID
	}
	if overrides.RedisAddr != nil {
		cfg.RedisAddr = *overrides.RedisAddr
	}
	if overrides.RedisPassword != nil {
		cfg.RedisPassword = *overrides.RedisPassword
	}
	if overrides.RedisDB != nil {
		cfg.RedisDB = *overrides.RedisDB
	}
	if overrides.StateStorePath != nil {
		cfg.StateStorePath = *overrides.StateStorePath
	}
	if overrides.LogLevel != nil {
		cfg.LogLevel = *overrides.LogLevel
	}
	if overrides.LogFormat != nil {
		cfg.LogFormat = *overrides.LogFormat
	}
	return cfg, nil
}

func envHostPort() string {
	host := envString("REDIS_HOST", "localhost")
	port := envString("REDIS_PORT", "6379")
	return host + ":" + port
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
