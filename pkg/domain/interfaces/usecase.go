package interfaces

import (
	"context"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/model"
)

// DatasetUseCase defines the mode dispatcher
type DatasetUseCase interface {
	// Run executes the pipeline selected by opts.Mode
	Run(ctx context.Context, opts model.RunOptions) (*model.RunResult, error)
}

// Plugin is the contract between the plugin core and the ChRIS host
type Plugin interface {
	// Descriptor returns the plugin's self-description and parameter schema
	Descriptor() model.PluginDescriptor

	// Run executes the plugin with parsed options
	Run(ctx context.Context, opts model.RunOptions) error
}
