// Package config loads process settings for the cantus command from the
// environment.
package config

import (
	"time"

	jlconfig "github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
)

// Profile modes accepted by CANTUS_PROFILE and --profile.
const (
	ProfileOff = ""
	ProfileCPU = "cpu"
	ProfileMem = "mem"
)

// Config holds every tunable of the command. Fields are filled from
// CANTUS_* environment variables on top of Default; command-line flags are
// applied afterwards by the caller.
type Config struct {
	LogLevel  string `config:"CANTUS_LOG_LEVEL"`
	LogPretty bool   `config:"CANTUS_LOG_PRETTY"`
	// FrameInterval is a time.ParseDuration string.
	FrameInterval string `config:"CANTUS_FRAME_INTERVAL"`
	Scene         string `config:"CANTUS_SCENE"`
	Profile       string `config:"CANTUS_PROFILE"`
}

// Default returns the settings used when nothing is set in the environment.
func Default() Config {
	return Config{
		LogLevel:      "info",
		FrameInterval: "16ms",
	}
}

// Load reads the environment over Default and validates the result.
func Load() (Config, error) {
	cfg := Default()
	if err := jlconfig.FromEnv().To(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "read environment")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	d, err := time.ParseDuration(c.FrameInterval)
	if err != nil {
		return eris.Wrapf(err, "frame interval %q", c.FrameInterval)
	}
	if d <= 0 {
		return eris.Errorf("frame interval %v must be positive", d)
	}
	switch c.Profile {
	case ProfileOff, ProfileCPU, ProfileMem:
	default:
		return eris.Errorf("unknown profile mode %q", c.Profile)
	}
	return nil
}

// Interval returns FrameInterval as a duration. It assumes Validate passed.
func (c Config) Interval() time.Duration {
	d, _ := time.ParseDuration(c.FrameInterval)
	return d
}
