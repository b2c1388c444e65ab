package config

import (
	"strings"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/interfaces"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/infra/combiner"
	"github.com/urfave/cli/v3"
)

// Combiner holds configuration of the external dataset combiner
type Combiner struct {
	Command string
	WorkDir string
}

// Flags returns CLI flags for the dataset combiner
func (c *Combiner) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "combiner-cmd",
			Usage:       "Command that combines <dataDir> <outputDir>, both appended as arguments (default: python3 calling COVIDNet.create_COVIDx_v3)",
			Destination: &c.Command,
			Sources:     cli.EnvVars("COVIDNET_COMBINER_CMD"),
		},
		&cli.StringFlag{
			Name:        "combiner-dir",
			Usage:       "Working directory of the combiner, must contain the COVIDNet package for the default command",
			Destination: &c.WorkDir,
			Sources:     cli.EnvVars("COVIDNET_COMBINER_DIR"),
		},
	}
}

// NewCombiner creates the dataset combiner
func (c *Combiner) NewCombiner() interfaces.Combiner {
	return combiner.NewCommand(
		combiner.WithCommand(strings.Fields(c.Command)...),
		combiner.WithWorkDir(c.WorkDir),
	)
}
