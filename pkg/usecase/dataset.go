package usecase

import (
	"context"
	"os"
	"path/filepath"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/interfaces"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/model"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/types"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/utils/logging"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// DataDirName is the sub directory of the input directory that receives
// downloaded and extracted archives
const DataDirName = "data"

type datasetUseCase struct {
	extractor interfaces.LinkExtractor
	fetcher   interfaces.ArchiveFetcher
	unpacker  interfaces.ArchiveUnpacker
	combiner  interfaces.Combiner
}

// NewDataset creates the mode dispatcher wired to its pipeline stages
func NewDataset(
	extractor interfaces.LinkExtractor,
	fetcher interfaces.ArchiveFetcher,
	unpacker interfaces.ArchiveUnpacker,
	combiner interfaces.Combiner,
) interfaces.DatasetUseCase {
	return &datasetUseCase{
		extractor: extractor,
		fetcher:   fetcher,
		unpacker:  unpacker,
		combiner:  combiner,
	}
}

// Run executes the pipeline selected by opts.Mode. An unknown mode fails
// before anything touches the filesystem or the network.
func (uc *datasetUseCase) Run(ctx context.Context, opts model.RunOptions) (*model.RunResult, error) {
	if !opts.Mode.IsSupported() {
		return nil, goerr.New("unknown mode",
			goerr.V("mode", string(opts.Mode)),
			goerr.T(types.ErrTagUnknownMode))
	}
	if opts.InputDir == "" || opts.OutputDir == "" {
		return nil, goerr.New("input and output directories are required",
			goerr.V("input_dir", opts.InputDir),
			goerr.V("output_dir", opts.OutputDir),
			goerr.T(types.ErrTagInvalidArgs))
	}
	if opts.DataURL == "" {
		opts.DataURL = model.DefaultDataURL
	}

	result := &model.RunResult{ID: uuid.New()}
	logger := logging.From(ctx).With("run_id", result.ID.String(), "mode", string(opts.Mode))
	ctx = logging.With(ctx, logger)

	switch opts.Mode {
	case model.ModeCOVIDx:
		if err := uc.runCOVIDx(ctx, opts, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// runCOVIDx downloads the source datasets into <inputDir>/data, extracts
// them and combines them into outputDir. Each stage completes before the
// next one starts and the first failure ends the run.
func (uc *datasetUseCase) runCOVIDx(ctx context.Context, opts model.RunOptions, result *model.RunResult) error {
	logger := logging.From(ctx)

	result.DataDir = filepath.Join(opts.InputDir, DataDirName)
	if err := os.MkdirAll(result.DataDir, 0755); err != nil {
		return goerr.Wrap(err, "failed to create data directory",
			goerr.V("path", result.DataDir),
			goerr.T(types.ErrTagInvalidArgs))
	}

	logger.Info("Processing covidx dataset",
		"data_url", opts.DataURL,
		"data_dir", result.DataDir,
		"output_dir", opts.OutputDir,
	)

	links, err := uc.extractor.ExtractLinks(ctx, opts.DataURL)
	if err != nil {
		return goerr.Wrap(err, "failed to extract archive links",
			goerr.V("url", opts.DataURL),
			goerr.T(types.ErrTagFetch))
	}
	result.Links = links

	archives, err := uc.fetcher.Fetch(ctx, links, result.DataDir)
	if err != nil {
		return goerr.Wrap(err, "failed to download archives",
			goerr.V("data_dir", result.DataDir),
			goerr.T(types.ErrTagDownload))
	}
	result.Archives = archives

	trees, err := uc.unpacker.Unpack(ctx, result.DataDir)
	if err != nil {
		return goerr.Wrap(err, "failed to extract archives",
			goerr.V("data_dir", result.DataDir),
			goerr.T(types.ErrTagExtract))
	}
	result.Trees = trees

	dataset, err := uc.combiner.Combine(ctx, result.DataDir, opts.OutputDir)
	if err != nil {
		return goerr.Wrap(err, "failed to combine datasets",
			goerr.V("output_dir", opts.OutputDir),
			goerr.T(types.ErrTagCombine))
	}
	if dataset == nil {
		dataset = &model.CombinedDataset{Dir: opts.OutputDir}
	}
	result.Dataset = dataset

	logger.Info("covidx dataset generated",
		"link_count", len(result.Links),
		"archive_count", len(result.Archives),
		"extracted_count", len(result.Trees),
		"output_dir", dataset.Dir,
	)

	return nil
}
