package combiner

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os/exec"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/interfaces"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/model"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/types"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/utils/async"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// createCOVIDxScript imports the COVID-Net dataset builder and calls it with
// the data and output directories passed as arguments
const createCOVIDxScript = `import sys
from COVIDNet.create_COVIDx_v3 import create_covidx
create_covidx(sys.argv[1], sys.argv[2])
`

// DefaultCommand runs create_covidx through python3
var DefaultCommand = []string{"python3", "-c", createCOVIDxScript}

// config holds internal command combiner configuration
type config struct {
	command []string
	workDir string
}

// Option is a functional option for the command combiner
type Option func(*config)

// WithCommand sets the program and leading arguments. The data and output
// directories are appended to it.
func WithCommand(command ...string) Option {
	return func(c *config) {
		if len(command) > 0 {
			c.command = command
		}
	}
}

// WithWorkDir sets the working directory of the combiner process
func WithWorkDir(dir string) Option {
	return func(c *config) {
		c.workDir = dir
	}
}

type commandCombiner struct {
	command []string
	workDir string
}

// NewCommand creates a Combiner that delegates to an external process
func NewCommand(opts ...Option) interfaces.Combiner {
	cfg := &config{
		command: DefaultCommand,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &commandCombiner{
		command: cfg.command,
		workDir: cfg.workDir,
	}
}

// Combine runs the combiner process and waits for it to exit. Process output
// is forwarded to the logger line by line.
func (c *commandCombiner) Combine(ctx context.Context, inputDataDir, outputDir string) (*model.CombinedDataset, error) {
	logger := logging.From(ctx)

	args := append(append([]string{}, c.command[1:]...), inputDataDir, outputDir)
	cmd := exec.CommandContext(ctx, c.command[0], args...)
	cmd.Dir = c.workDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to attach combiner stdout", goerr.T(types.ErrTagCombine))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to attach combiner stderr", goerr.T(types.ErrTagCombine))
	}

	logger.Info("Calling dataset combiner",
		"program", c.command[0],
		"input_data_dir", inputDataDir,
		"output_dir", outputDir,
		"work_dir", c.workDir,
	)

	if err := cmd.Start(); err != nil {
		return nil, goerr.Wrap(err, "failed to start dataset combiner",
			goerr.V("program", c.command[0]),
			goerr.T(types.ErrTagCombine))
	}

	var group async.Group
	group.Go(ctx, func(ctx context.Context) error {
		return forward(ctx, stdout, slog.LevelInfo)
	})
	group.Go(ctx, func(ctx context.Context) error {
		return forward(ctx, stderr, slog.LevelWarn)
	})
	forwardErr := group.Wait()

	if err := cmd.Wait(); err != nil {
		return nil, goerr.Wrap(err, "dataset combiner failed",
			goerr.V("program", c.command[0]),
			goerr.V("input_data_dir", inputDataDir),
			goerr.V("output_dir", outputDir),
			goerr.T(types.ErrTagCombine))
	}

	if forwardErr != nil {
		return nil, goerr.Wrap(forwardErr, "failed to read dataset combiner output",
			goerr.V("program", c.command[0]),
			goerr.T(types.ErrTagCombine))
	}

	logger.Info("Dataset combiner finished", "output_dir", outputDir)

	return &model.CombinedDataset{Dir: outputDir}, nil
}

// forward logs every line read from r until EOF
func forward(ctx context.Context, r io.Reader, level slog.Level) error {
	logger := logging.From(ctx)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		logger.Log(ctx, level, "combiner", "line", scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("Combiner output line skipped", "error", err)
	}

	// Drain whatever is left so the process never blocks on a full pipe
	if _, err := io.Copy(io.Discard, r); err != nil {
		return goerr.Wrap(err, "failed to drain combiner output")
	}
	return nil
}
