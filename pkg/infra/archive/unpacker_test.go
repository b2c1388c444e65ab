package archive_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/types"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/infra/archive"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

type tarEntry struct {
	name     string
	body     string
	typeflag byte
	linkname string
}

// createTestArchive creates gzip-compressed tar data for testing
func createTestArchive(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		typeflag := e.typeflag
		if typeflag == 0 {
			typeflag = tar.TypeReg
		}
		hdr := &tar.Header{
			Name:     e.name,
			Typeflag: typeflag,
			Linkname: e.linkname,
			Mode:     0644,
			Size:     int64(len(e.body)),
		}
		if typeflag == tar.TypeDir {
			hdr.Mode = 0755
			hdr.Size = 0
		}
		if typeflag == tar.TypeSymlink || typeflag == tar.TypeLink {
			hdr.Size = 0
		}

		gt.NoError(t, tw.WriteHeader(hdr))
		if hdr.Size > 0 {
			_, err := tw.Write([]byte(e.body))
			gt.NoError(t, err)
		}
	}

	gt.NoError(t, tw.Close())
	gt.NoError(t, gz.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	gt.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	gt.NoError(t, os.WriteFile(path, data, 0644))
}

func TestUnpacker_Unpack_ExtractsNextToArchive(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	archivePath := filepath.Join(root, "x", "y", "f.tar.gz")
	writeFile(t, archivePath, createTestArchive(t, []tarEntry{
		{name: "images/", typeflag: tar.TypeDir},
		{name: "images/1.png", body: "png data"},
		{name: "metadata.csv", body: "id,finding\n1,COVID-19\n"},
	}))
	writeFile(t, filepath.Join(root, "x", "g.txt"), []byte("untouched"))

	trees, err := archive.NewUnpacker().Unpack(ctx, root)
	gt.NoError(t, err)
	gt.A(t, trees).Length(1)
	gt.Value(t, trees[0].Archive).Equal(archivePath)
	gt.Value(t, trees[0].Dir).Equal(filepath.Join(root, "x", "y"))
	gt.A(t, trees[0].Entries).Equal([]string{"images/", "images/1.png", "metadata.csv"})
	gt.Number(t, trees[0].Size).Equal(int64(len("png data") + len("id,finding\n1,COVID-19\n")))

	content, err := os.ReadFile(filepath.Join(root, "x", "y", "images", "1.png"))
	gt.NoError(t, err)
	gt.Value(t, string(content)).Equal("png data")

	content, err = os.ReadFile(filepath.Join(root, "x", "y", "metadata.csv"))
	gt.NoError(t, err)
	gt.String(t, string(content)).Contains("COVID-19")

	// Neighbouring file and the archive itself are left in place
	content, err = os.ReadFile(filepath.Join(root, "x", "g.txt"))
	gt.NoError(t, err)
	gt.Value(t, string(content)).Equal("untouched")

	_, err = os.Stat(archivePath)
	gt.NoError(t, err)
}

func TestUnpacker_Unpack_MultipleArchivesInWalkOrder(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "b.tar.gz"), createTestArchive(t, []tarEntry{
		{name: "b/readme.txt", body: "b"},
	}))
	writeFile(t, filepath.Join(root, "a.tar.gz"), createTestArchive(t, []tarEntry{
		{name: "a/readme.txt", body: "a"},
	}))
	writeFile(t, filepath.Join(root, "notes.tar"), []byte("not gzip"))

	trees, err := archive.NewUnpacker().Unpack(ctx, root)
	gt.NoError(t, err)
	gt.A(t, trees).Length(2)
	gt.Value(t, trees[0].Archive).Equal(filepath.Join(root, "a.tar.gz"))
	gt.Value(t, trees[1].Archive).Equal(filepath.Join(root, "b.tar.gz"))

	_, err = os.Stat(filepath.Join(root, "a", "readme.txt"))
	gt.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "b", "readme.txt"))
	gt.NoError(t, err)
}

func TestUnpacker_Unpack_NestedArchiveNotExtracted(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	inner := createTestArchive(t, []tarEntry{{name: "deep.txt", body: "deep"}})
	writeFile(t, filepath.Join(root, "outer.tar.gz"), createTestArchive(t, []tarEntry{
		{name: "inner.tar.gz", body: string(inner)},
	}))

	trees, err := archive.NewUnpacker().Unpack(ctx, root)
	gt.NoError(t, err)
	gt.A(t, trees).Length(1)

	_, err = os.Stat(filepath.Join(root, "inner.tar.gz"))
	gt.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "deep.txt"))
	gt.True(t, os.IsNotExist(err))
}

func TestUnpacker_Unpack_CorruptArchive(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken.tar.gz"), []byte("this is not gzip data"))

	trees, err := archive.NewUnpacker().Unpack(ctx, root)
	gt.Error(t, err)
	gt.A(t, trees).Length(0)
	gt.True(t, goerr.HasTag(err, types.ErrTagExtract))
}

func TestUnpacker_Unpack_TruncatedArchive(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	data := createTestArchive(t, []tarEntry{
		{name: "big.bin", body: string(bytes.Repeat([]byte("0123456789"), 1000))},
	})
	writeFile(t, filepath.Join(root, "truncated.tar.gz"), data[:len(data)/2])

	_, err := archive.NewUnpacker().Unpack(ctx, root)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagExtract))
}

func TestUnpacker_Unpack_MissingRoot(t *testing.T) {
	ctx := context.Background()

	_, err := archive.NewUnpacker().Unpack(ctx, filepath.Join(t.TempDir(), "missing"))
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagExtract))
}

func TestExtract_PathTraversal(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		entries []tarEntry
	}{
		{
			name:    "parent directory reference",
			entries: []tarEntry{{name: "../escape.txt", body: "bad"}},
		},
		{
			name:    "nested parent directory reference",
			entries: []tarEntry{{name: "a/../../escape.txt", body: "bad"}},
		},
		{
			name:    "symlink pointing outside",
			entries: []tarEntry{{name: "link", typeflag: tar.TypeSymlink, linkname: "../../etc/passwd"}},
		},
		{
			name:    "absolute symlink",
			entries: []tarEntry{{name: "link", typeflag: tar.TypeSymlink, linkname: "/etc/passwd"}},
		},
		{
			name:    "hard link pointing outside",
			entries: []tarEntry{{name: "link", typeflag: tar.TypeLink, linkname: "../outside"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := t.TempDir()
			destDir := filepath.Join(parent, "dest")
			gt.NoError(t, os.MkdirAll(destDir, 0755))

			data := createTestArchive(t, tt.entries)
			_, err := archive.Extract(ctx, bytes.NewReader(data), destDir)
			gt.Error(t, err)
			gt.True(t, goerr.HasTag(err, types.ErrTagExtract))

			_, err = os.Stat(filepath.Join(parent, "escape.txt"))
			gt.True(t, os.IsNotExist(err))
		})
	}
}

func TestExtract_Links(t *testing.T) {
	ctx := context.Background()
	destDir := t.TempDir()

	data := createTestArchive(t, []tarEntry{
		{name: "data/original.txt", body: "content"},
		{name: "data/soft", typeflag: tar.TypeSymlink, linkname: "original.txt"},
		{name: "data/hard", typeflag: tar.TypeLink, linkname: "data/original.txt"},
	})

	tree, err := archive.Extract(ctx, bytes.NewReader(data), destDir)
	gt.NoError(t, err)
	gt.A(t, tree.Entries).Length(3)

	content, err := os.ReadFile(filepath.Join(destDir, "data", "soft"))
	gt.NoError(t, err)
	gt.Value(t, string(content)).Equal("content")

	content, err = os.ReadFile(filepath.Join(destDir, "data", "hard"))
	gt.NoError(t, err)
	gt.Value(t, string(content)).Equal("content")
}

func TestFindArchives(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "z.tar.gz"), []byte{})
	writeFile(t, filepath.Join(root, "sub", "a.tar.gz"), []byte{})
	writeFile(t, filepath.Join(root, "sub", "a.tar.gz.md5"), []byte{})
	writeFile(t, filepath.Join(root, "sub", "b.zip"), []byte{})
	gt.NoError(t, os.MkdirAll(filepath.Join(root, "dir.tar.gz"), 0755))

	archives, err := archive.FindArchives(root)
	gt.NoError(t, err)
	gt.A(t, archives).Equal([]string{
		filepath.Join(root, "sub", "a.tar.gz"),
		filepath.Join(root, "z.tar.gz"),
	})
}
