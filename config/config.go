// Package config reads the planner's startup configuration.
package config

import (
	"go.viam.com/localplanner/apf"
	"go.viam.com/localplanner/control"
	"go.viam.com/localplanner/logging"
)

// Config is the fully validated startup configuration. It is built once and never reloaded.
type Config struct {
	ConfigFilePath string
	APF            apf.Config
	Loop           control.LoopConfig
	LogLevel       logging.Level
}

// configData is the on-disk form of Config.
type configData struct {
	// APF is a flat key-value map of planner parameters. See APFConfigFromParams.
	APF      map[string]interface{} `json:"apf"`
	Loop     control.LoopConfig     `json:"loop"`
	LogLevel string                 `json:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		APF:      apf.DefaultConfig(),
		Loop:     control.DefaultLoopConfig(),
		LogLevel: logging.INFO,
	}
}
