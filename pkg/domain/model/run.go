package model

import "github.com/google/uuid"

// RunOptions holds the arguments of a single plugin invocation
type RunOptions struct {
	Mode      Mode   // Pipeline selector, only "covidx" is defined
	DataURL   string // Listing page to scrape for archives
	InputDir  string // Host-supplied input directory
	OutputDir string // Host-supplied output directory
}

// CombinedDataset refers to the merged dataset written by the combiner
type CombinedDataset struct {
	Dir string // Directory containing the combined dataset
}

// RunResult summarizes a completed pipeline run
type RunResult struct {
	ID       uuid.UUID
	DataDir  string
	Links    []Link
	Archives []LocalArchive
	Trees    []ExtractedTree
	Dataset  *CombinedDataset
}
