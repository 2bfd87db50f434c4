// Package cli contains the apf command line interface.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/localplanner/config"
	"go.viam.com/localplanner/logging"
)

const (
	// Flags.
	flagConfig      = "config"
	flagDebug       = "debug"
	flagObstacles   = "obstacles"
	flagPosition    = "position"
	flagOrientation = "orientation"
	flagEuler       = "euler"
	flagGoal        = "goal"
	flagCurrent     = "current"
	flagWrite       = "write-considered"
	flagBag         = "bag"
	flagOdomTopic   = "odom-topic"
	flagCloudTopic  = "cloud-topic"

	metadataConfig = "config"
	metadataLogger = "logger"
)

// NewApp returns the apf CLI writing to out and errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "apf",
		Usage:           "run the potential field planner against recorded data",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			{
				Name:      "force",
				Usage:     "compute one velocity from a point cloud and a pose",
				UsageText: "apf force --obstacles FILE.pcd --position x,y,z --goal x,y,z [other options]",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:     flagObstacles,
						Usage:    "body-local obstacle points as a pcd `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:     flagPosition,
						Usage:    "global vehicle position as x,y,z",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagOrientation,
						Usage: "vehicle orientation quaternion as w,x,y,z",
					},
					&cli.StringFlag{
						Name:  flagEuler,
						Usage: "vehicle orientation as roll,pitch,yaw in radians",
					},
					&cli.StringFlag{
						Name:     flagGoal,
						Usage:    "global goal as x,y,z",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagCurrent,
						Usage: "position to plan from as x,y,z; defaults to --position",
					},
					&cli.PathFlag{
						Name:  flagWrite,
						Usage: "write the points that contributed to the repulsive force to a pcd `FILE`",
					},
				},
				Action: ForceAction,
			},
			{
				Name:      "replay",
				Usage:     "replay a ros bag through the planning loop",
				UsageText: "apf replay --bag FILE --odom-topic TOPIC --cloud-topic TOPIC --goal x,y,z",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:     flagBag,
						Usage:    "ros bag `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagOdomTopic,
						Usage: "nav_msgs/Odometry topic",
						Value: "/odom",
					},
					&cli.StringFlag{
						Name:  flagCloudTopic,
						Usage: "sensor_msgs/PointCloud2 topic with body-local points",
						Value: "/points",
					},
					&cli.StringFlag{
						Name:     flagGoal,
						Usage:    "global goal as x,y,z",
						Required: true,
					},
				},
				Action: ReplayAction,
			},
			{
				Name:   "defaults",
				Usage:  "print the default configuration as JSON",
				Action: DefaultsAction,
			},
		},
	}
}

// before loads the configuration and builds the logger every command uses.
func before(c *cli.Context) error {
	cfg := config.Default()
	logger := logging.NewLogger("apf")
	if path := c.String(flagConfig); path != "" {
		var err error
		cfg, err = config.Read(c.Context, path, logger)
		if err != nil {
			return err
		}
	}
	logger.SetLevel(cfg.LogLevel)
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[metadataConfig] = cfg
	c.App.Metadata[metadataLogger] = logger
	logging.ReplaceGlobal(logger)
	return nil
}

func configFromContext(c *cli.Context) *config.Config {
	return c.App.Metadata[metadataConfig].(*config.Config)
}

func loggerFromContext(c *cli.Context) logging.Logger {
	return c.App.Metadata[metadataLogger].(logging.Logger)
}
