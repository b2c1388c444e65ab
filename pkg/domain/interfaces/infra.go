package interfaces

import (
	"context"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/model"
)

// LinkExtractor discovers archive links on a directory-listing page
type LinkExtractor interface {
	// ExtractLinks fetches the listing page and returns archive links in document order
	ExtractLinks(ctx context.Context, listingURL string) ([]model.Link, error)
}

// ArchiveFetcher downloads archives into a local directory
type ArchiveFetcher interface {
	// Fetch downloads each link sequentially into destDir, keeping the remote file name
	Fetch(ctx context.Context, links []model.Link, destDir string) ([]model.LocalArchive, error)
}

// ArchiveUnpacker extracts every archive found under a directory tree
type ArchiveUnpacker interface {
	// Unpack extracts each .tar.gz under root into the directory containing it
	Unpack(ctx context.Context, root string) ([]model.ExtractedTree, error)
}

// Combiner merges extracted source datasets into one labeled dataset
type Combiner interface {
	// Combine builds the combined dataset from inputDataDir into outputDir
	Combine(ctx context.Context, inputDataDir, outputDir string) (*model.CombinedDataset, error)
}
