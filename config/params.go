package config

import (
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"go.viam.com/localplanner/apf"
	"go.viam.com/localplanner/logging"
)

// ParamNamespace prefixes planner parameters in a shared parameter store.
const ParamNamespace = "apf/"

// APFConfigFromParams builds planner parameters from a key-value store. Keys are either bare
// ("k_att") or namespaced ("apf/k_att"); values are numbers or strings holding numbers. Keys that
// are absent keep their defaults and unknown keys are logged and ignored. The result is validated.
func APFConfigFromParams(params map[string]interface{}, logger logging.Logger) (apf.Config, error) {
	normalized := make(map[string]interface{}, len(params))
	for key, value := range params {
		name := strings.TrimPrefix(key, ParamNamespace)
		if _, ok := normalized[name]; ok {
			return apf.Config{}, errors.Errorf("parameter %q is given both with and without the %q prefix", name, ParamNamespace)
		}
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return apf.Config{}, errors.Wrapf(err, "parameter %q", key)
		}
		normalized[name] = f
	}

	cfg := apf.DefaultConfig()
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   &cfg,
		Metadata: &md,
	})
	if err != nil {
		return apf.Config{}, err
	}
	if err := decoder.Decode(normalized); err != nil {
		return apf.Config{}, err
	}

	sort.Strings(md.Unused)
	for _, unused := range md.Unused {
		logger.Warnw("ignoring unknown planner parameter", "name", unused)
	}

	if err := cfg.Validate("apf"); err != nil {
		return apf.Config{}, err
	}
	return cfg, nil
}
