package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/cli/config"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/model"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/types"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/infra/archive"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/usecase"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

type options struct {
	writer io.Writer
}

// Option configures Run
type Option func(*options)

// WithWriter sets the destination of plugin output (banner, descriptors, man page)
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// Run runs the CLI application
func Run(ctx context.Context, args []string, opts ...Option) error {
	o := options{writer: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		pluginCfg   config.Plugin
		sourceCfg   config.Source
		combinerCfg config.Combiner
		loggerCfg   config.Logger
		sentryCfg   config.Sentry
		fileCfg     config.File
	)
	var logger *slog.Logger

	flags := slices.Concat(
		pluginCfg.Flags(),
		sourceCfg.Flags(),
		combinerCfg.Flags(),
		loggerCfg.Flags(),
		sentryCfg.Flags(),
		fileCfg.Flags(),
	)

	app := &cli.Command{
		Name:        types.AppName,
		Usage:       "Download and combine the source datasets of COVIDx",
		ArgsUsage:   "<inputDir> <outputDir>",
		HideVersion: true,
		Writer:      o.writer,
		Flags:       flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			values, err := fileCfg.Load()
			if err != nil {
				return ctx, err
			}
			values.Apply(c.IsSet, &pluginCfg, &sourceCfg, &combinerCfg, &loggerCfg)

			logger, err = loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			slog.SetDefault(logger)

			if err := sentryCfg.Configure(); err != nil {
				return ctx, err
			}

			return logging.With(ctx, logger), nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			plugin := usecase.NewPlugin(usecase.NewDataset(
				sourceCfg.NewLinkExtractor(),
				sourceCfg.NewArchiveFetcher(),
				archive.NewUnpacker(),
				combinerCfg.NewCombiner(),
			))

			if pluginCfg.Describes() {
				return describe(ctx, o.writer, &pluginCfg, plugin.Descriptor())
			}

			if c.Args().Len() != 2 {
				return goerr.New("inputDir and outputDir are required",
					goerr.V("args", c.Args().Slice()),
					goerr.T(types.ErrTagInvalidArgs))
			}

			printBanner(o.writer)

			return plugin.Run(ctx, model.RunOptions{
				Mode:      model.Mode(pluginCfg.Mode),
				DataURL:   sourceCfg.DataURL,
				InputDir:  c.Args().Get(0),
				OutputDir: c.Args().Get(1),
			})
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		sentryCfg.Report(err)
		return err
	}

	return nil
}

// describe handles the self-description flags of the plugin contract
func describe(ctx context.Context, w io.Writer, cfg *config.Plugin, descriptor model.PluginDescriptor) error {
	switch {
	case cfg.JSON:
		return printDescriptor(w, descriptor)

	case cfg.SaveJSON != "":
		path, err := saveDescriptor(cfg.SaveJSON, descriptor)
		if err != nil {
			return err
		}
		logging.From(ctx).Debug("Plugin descriptor saved", "path", path)
		return nil

	case cfg.Man:
		printManPage(w)
		return nil

	case cfg.Meta:
		return printDescriptor(w, descriptor.Meta())

	case cfg.Version:
		printVersion(w)
		return nil
	}

	return nil
}
