package config

import (
	"os"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// File holds the location of an optional TOML configuration file
type File struct {
	Path string
}

// FileValues is the content of the configuration file. Every value is a
// fallback for a flag that was not given on the command line or by an
// environment variable.
type FileValues struct {
	Mode      string `toml:"mode"`
	DataURL   string `toml:"data_url"`
	DataToken string `toml:"data_token" masq:"secret"`

	Combiner struct {
		Command string `toml:"command"`
		WorkDir string `toml:"work_dir"`
	} `toml:"combiner"`

	Log struct {
		Level string `toml:"level"`
		JSON  bool   `toml:"json"`
	} `toml:"log"`
}

// Flags returns CLI flags for the configuration file
func (c *File) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to a TOML configuration file",
			Destination: &c.Path,
			Sources:     cli.EnvVars("COVIDNET_CONFIG"),
		},
	}
}

// Load reads the configuration file. It returns nil values when no file was given.
func (c *File) Load() (*FileValues, error) {
	if c.Path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file",
			goerr.V("path", c.Path),
			goerr.T(types.ErrTagInvalidArgs))
	}

	var values FileValues
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file",
			goerr.V("path", c.Path),
			goerr.T(types.ErrTagInvalidArgs))
	}

	return &values, nil
}

// Apply copies file values into the flag destinations whose flag is not set
func (v *FileValues) Apply(isSet func(name string) bool, plugin *Plugin, source *Source, combiner *Combiner, logger *Logger) {
	if v == nil {
		return
	}

	setString := func(flag string, dst *string, value string) {
		if value != "" && !isSet(flag) {
			*dst = value
		}
	}

	setString("mode", &plugin.Mode, v.Mode)
	setString("dataUrl", &source.DataURL, v.DataURL)
	setString("data-token", &source.Token, v.DataToken)
	setString("combiner-cmd", &combiner.Command, v.Combiner.Command)
	setString("combiner-dir", &combiner.WorkDir, v.Combiner.WorkDir)
	setString("log-level", &logger.Level, v.Log.Level)
	if v.Log.JSON && !isSet("log-json") {
		logger.JSON = true
	}
}
