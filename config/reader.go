package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"go.viam.com/localplanner/logging"
)

// Read reads a config from the given file. Environment variables written as ${VAR} are expanded
// before parsing.
func Read(
	ctx context.Context,
	filePath string,
	logger logging.Logger,
) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(
	ctx context.Context,
	originalPath string,
	r io.Reader,
	logger logging.Logger,
) (*Config, error) {
	var data configData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(err, "cannot parse config")
	}

	cfg := Default()
	cfg.ConfigFilePath = originalPath

	apfCfg, err := APFConfigFromParams(data.APF, logger)
	if err != nil {
		return nil, err
	}
	cfg.APF = apfCfg

	if err := data.Loop.Validate("loop"); err != nil {
		return nil, err
	}
	cfg.Loop = data.Loop

	if data.LogLevel != "" {
		level, err := logging.LevelFromString(data.LogLevel)
		if err != nil {
			return nil, errors.Wrap(err, "log_level")
		}
		cfg.LogLevel = level
	}

	logger.Debugw("read config", "path", originalPath, "apf", cfg.APF, "loop_hz", cfg.Loop.FrequencyHz)
	return cfg, nil
}
