package config

import "github.com/urfave/cli/v3"

// Plugin holds the arguments defined by the ChRIS plugin contract
type Plugin struct {
	Mode     string
	JSON     bool
	SaveJSON string
	Man      bool
	Meta     bool
	Version  bool
}

// Flags returns CLI flags of the ChRIS plugin contract
func (c *Plugin) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "mode",
			Usage:       "running mode (covidx)",
			Destination: &c.Mode,
			Sources:     cli.EnvVars("COVIDNET_MODE"),
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "If specified, show json representation of app and exit",
			Destination: &c.JSON,
		},
		&cli.StringFlag{
			Name:        "savejson",
			Usage:       "If specified, save json representation file to DIR and exit",
			Destination: &c.SaveJSON,
		},
		&cli.BoolFlag{
			Name:        "man",
			Usage:       "If specified, print (this) man page and exit",
			Destination: &c.Man,
		},
		&cli.BoolFlag{
			Name:        "meta",
			Usage:       "If specified, print plugin meta data and exit",
			Destination: &c.Meta,
		},
		&cli.BoolFlag{
			Name:        "version",
			Usage:       "If specified, print version number and exit",
			Destination: &c.Version,
		},
	}
}

// Describes reports whether the invocation only asks for self-description
func (c *Plugin) Describes() bool {
	return c.JSON || c.SaveJSON != "" || c.Man || c.Meta || c.Version
}
