package cli

import (
	"encoding/json"

	"github.com/urfave/cli/v2"

	"go.viam.com/localplanner/apf"
	"go.viam.com/localplanner/control"
)

// DefaultsAction prints a config file holding every default.
func DefaultsAction(c *cli.Context) error {
	out := struct {
		APF  apf.Config         `json:"apf"`
		Loop control.LoopConfig `json:"loop"`
		// LogLevel is written as its name.
		LogLevel string `json:"log_level"`
	}{
		APF:      apf.DefaultConfig(),
		Loop:     control.DefaultLoopConfig(),
		LogLevel: "info",
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
