package usecase

import (
	"context"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/interfaces"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/model"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/types"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/utils/logging"
)

const pluginDescription = "A ChRIS plugin app that downloads dataset and generates combined dataset for Covid-Net"

type plugin struct {
	dataset interfaces.DatasetUseCase
}

// NewPlugin creates the ChRIS-facing plugin around the dataset dispatcher
func NewPlugin(dataset interfaces.DatasetUseCase) interfaces.Plugin {
	return &plugin{dataset: dataset}
}

// Parameters returns the argument schema exposed to the ChRIS host
func Parameters() []model.Parameter {
	return []model.Parameter{
		{
			Name:      "mode",
			Type:      model.ParameterTypeString,
			Optional:  false,
			Flag:      "--mode",
			Action:    "store",
			Help:      "running mode",
			UIExposed: true,
		},
		{
			Name:      "data_url",
			Type:      model.ParameterTypeString,
			Optional:  true,
			Flag:      "--dataUrl",
			Action:    "store",
			Help:      "input data url",
			Default:   model.DefaultDataURL,
			UIExposed: true,
		},
	}
}

// Descriptor returns the self-description printed with --json
func (p *plugin) Descriptor() model.PluginDescriptor {
	return model.PluginDescriptor{
		Type:          "ds",
		Parameters:    Parameters(),
		Authors:       "FNNDSC (dev@babyMRI.org)",
		Title:         pluginDescription,
		Description:   pluginDescription,
		Documentation: "http://wiki",
		License:       "Opensource (MIT)",
		Version:       types.Version,
		SelfPath:      "/usr/local/bin",
		SelfExec:      types.AppName,
		MaxWorkers:    1,
		MinWorkers:    1,
		OutputMeta:    map[string]string{},
	}
}

// Run executes the dataset pipeline for the parsed options
func (p *plugin) Run(ctx context.Context, opts model.RunOptions) error {
	result, err := p.dataset.Run(ctx, opts)
	if err != nil {
		return err
	}

	logging.From(ctx).Info("Plugin run completed",
		"run_id", result.ID.String(),
		"data_dir", result.DataDir,
	)
	return nil
}
