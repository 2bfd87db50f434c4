// Package main is the apf command itself.
package main

import (
	"os"

	"go.viam.com/localplanner/cli"
	"go.viam.com/localplanner/logging"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logging.Global().Errorw("apf failed", "error", err)
		os.Exit(1)
	}
}
