package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/interfaces"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/model"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/types"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

type unpacker struct{}

// NewUnpacker creates an ArchiveUnpacker for gzip-compressed tar archives
func NewUnpacker() interfaces.ArchiveUnpacker {
	return &unpacker{}
}

// Unpack extracts every .tar.gz file under root into its own directory.
//
// Archives are collected before any extraction starts, so archives contained
// in other archives are not extracted in the same call. Archive files are left
// in place and nothing is cleaned up when an extraction fails.
func (u *unpacker) Unpack(ctx context.Context, root string) ([]model.ExtractedTree, error) {
	logger := logging.From(ctx)

	archives, err := FindArchives(root)
	if err != nil {
		return nil, err
	}

	logger.Info("Found archives to extract",
		"root", root,
		"archive_count", len(archives),
	)

	trees := make([]model.ExtractedTree, 0, len(archives))
	for _, path := range archives {
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "extraction cancelled",
				goerr.V("archive", path),
				goerr.T(types.ErrTagExtract))
		}

		logger.Info("Extracting dataset", "archive", path)

		tree, err := ExtractFile(ctx, path, filepath.Dir(path))
		if err != nil {
			logger.Error("Failed to extract archive",
				"error", err,
				"archive", path,
			)
			return nil, err
		}

		logger.Info("Extracting finished",
			"archive", path,
			"entry_count", len(tree.Entries),
			"total_size_bytes", tree.Size,
		)
		trees = append(trees, *tree)
	}

	return trees, nil
}

// FindArchives walks root in lexical order and returns the paths of all
// regular files whose name ends in .tar.gz
func FindArchives(root string) ([]string, error) {
	var archives []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && model.IsArchiveName(d.Name()) {
			archives = append(archives, path)
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to walk data directory",
			goerr.V("root", root),
			goerr.T(types.ErrTagExtract))
	}

	return archives, nil
}

// ExtractFile extracts the gzip-compressed tar archive at path into destDir
func ExtractFile(ctx context.Context, path, destDir string) (*model.ExtractedTree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open archive",
			goerr.V("archive", path),
			goerr.T(types.ErrTagExtract))
	}
	defer f.Close()

	tree, err := Extract(ctx, f, destDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract archive",
			goerr.V("archive", path),
			goerr.T(types.ErrTagExtract))
	}
	tree.Archive = path

	return tree, nil
}

// Extract reads a gzip-compressed tar stream from r and writes its entries
// under destDir
func Extract(ctx context.Context, r io.Reader, destDir string) (*model.ExtractedTree, error) {
	logger := logging.From(ctx)

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gzip reader", goerr.T(types.ErrTagExtract))
	}
	defer gz.Close()

	tree := &model.ExtractedTree{Dir: destDir}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read tar entry", goerr.T(types.ErrTagExtract))
		}

		written, err := extractEntry(tr, hdr, destDir)
		if err != nil {
			return nil, err
		}
		if !written {
			logger.Debug("Skipped unsupported tar entry",
				"name", hdr.Name,
				"type", string(hdr.Typeflag),
			)
			continue
		}

		tree.Entries = append(tree.Entries, hdr.Name)
		if hdr.Typeflag == tar.TypeReg {
			tree.Size += hdr.Size
		}
	}

	return tree, nil
}

// safeJoin joins name onto destDir and rejects results outside destDir
func safeJoin(destDir, name string) (string, error) {
	destPath := filepath.Join(destDir, name)
	cleanDir := filepath.Clean(destDir)
	if destPath != cleanDir && !strings.HasPrefix(destPath, cleanDir+string(os.PathSeparator)) {
		return "", goerr.New("invalid file path detected",
			goerr.V("name", name),
			goerr.V("dest", destPath),
			goerr.T(types.ErrTagExtract))
	}
	return destPath, nil
}

// extractEntry writes a single tar entry. It reports false for entry types
// that are not extracted.
func extractEntry(tr *tar.Reader, hdr *tar.Header, destDir string) (bool, error) {
	destPath, err := safeJoin(destDir, hdr.Name)
	if err != nil {
		return false, err
	}
	mode := hdr.FileInfo().Mode()

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(destPath, mode.Perm()|0700); err != nil {
			return false, goerr.Wrap(err, "failed to create directory",
				goerr.V("path", destPath),
				goerr.T(types.ErrTagExtract))
		}
		return true, nil

	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return false, goerr.Wrap(err, "failed to create parent directories",
				goerr.V("path", filepath.Dir(destPath)),
				goerr.T(types.ErrTagExtract))
		}

		// Replace rather than write through an existing symlink
		if err := removeIfSymlink(destPath); err != nil {
			return false, err
		}

		destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
		if err != nil {
			return false, goerr.Wrap(err, "failed to create destination file",
				goerr.V("path", destPath),
				goerr.T(types.ErrTagExtract))
		}

		if _, err := io.Copy(destFile, tr); err != nil {
			_ = destFile.Close()
			return false, goerr.Wrap(err, "failed to copy file content",
				goerr.V("path", destPath),
				goerr.T(types.ErrTagExtract))
		}
		if err := destFile.Close(); err != nil {
			return false, goerr.Wrap(err, "failed to close destination file",
				goerr.V("path", destPath),
				goerr.T(types.ErrTagExtract))
		}

		if !hdr.ModTime.IsZero() {
			_ = os.Chtimes(destPath, hdr.ModTime, hdr.ModTime) // Error ignored, timestamps are best effort
		}
		return true, nil

	case tar.TypeSymlink:
		target := hdr.Linkname
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(destPath), target)
		}
		if _, err := safeJoin(destDir, mustRel(destDir, target)); err != nil {
			return false, err
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return false, goerr.Wrap(err, "failed to create parent directories",
				goerr.V("path", filepath.Dir(destPath)),
				goerr.T(types.ErrTagExtract))
		}
		if err := removeExisting(destPath); err != nil {
			return false, err
		}
		if err := os.Symlink(hdr.Linkname, destPath); err != nil {
			return false, goerr.Wrap(err, "failed to create symlink",
				goerr.V("path", destPath),
				goerr.V("target", hdr.Linkname),
				goerr.T(types.ErrTagExtract))
		}
		return true, nil

	case tar.TypeLink:
		target, err := safeJoin(destDir, hdr.Linkname)
		if err != nil {
			return false, err
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return false, goerr.Wrap(err, "failed to create parent directories",
				goerr.V("path", filepath.Dir(destPath)),
				goerr.T(types.ErrTagExtract))
		}
		if err := removeExisting(destPath); err != nil {
			return false, err
		}
		if err := os.Link(target, destPath); err != nil {
			return false, goerr.Wrap(err, "failed to create hard link",
				goerr.V("path", destPath),
				goerr.V("target", target),
				goerr.T(types.ErrTagExtract))
		}
		return true, nil

	default:
		return false, nil
	}
}

// mustRel returns target relative to base, or target itself when no relative
// path exists. The result is only used for containment checks.
func mustRel(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return target
	}
	return rel
}

func removeIfSymlink(path string) error {
	fi, err := os.Lstat(path)
	if err != nil || fi.Mode()&os.ModeSymlink == 0 {
		return nil
	}
	return removeExisting(path)
}

func removeExisting(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return goerr.Wrap(err, "failed to replace existing entry",
			goerr.V("path", path),
			goerr.T(types.ErrTagExtract))
	}
	return nil
}
