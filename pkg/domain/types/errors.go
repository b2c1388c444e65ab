package types

import "github.com/m-mizutani/goerr/v2"

// Error kind tags. Every failure returned by a pipeline stage carries exactly
// one of them; use goerr.HasTag to classify.
var (
	ErrTagFetch       = goerr.NewTag("fetch")
	ErrTagDownload    = goerr.NewTag("download")
	ErrTagExtract     = goerr.NewTag("extract")
	ErrTagCombine     = goerr.NewTag("combine")
	ErrTagUnknownMode = goerr.NewTag("unknown_mode")
	ErrTagInvalidArgs = goerr.NewTag("invalid_args")
)
