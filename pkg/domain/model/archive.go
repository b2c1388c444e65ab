package model

import "strings"

// ArchiveSuffix is the only file suffix the pipeline downloads and extracts
const ArchiveSuffix = ".tar.gz"

// IsArchiveName reports whether name refers to a gzip-compressed tar archive
func IsArchiveName(name string) bool {
	return strings.HasSuffix(name, ArchiveSuffix)
}

// LocalArchive represents a downloaded archive in the input data directory
type LocalArchive struct {
	Path string // Absolute or inputDir-relative path of the .tar.gz file
	Link Link   // Link the archive was fetched from
	Size int64  // Bytes written
}

// ExtractedTree represents the result of unpacking one LocalArchive
type ExtractedTree struct {
	Archive string   // Path to the archive that was extracted
	Dir     string   // Directory the entries were written into
	Entries []string // Entry names, relative to Dir
	Size    int64    // Total size of regular files in bytes
}
