package cli_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/cli"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/model"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/types"
	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	err := cli.Run(context.Background(), append([]string{types.AppName}, args...), cli.WithWriter(&buf))
	return buf.String(), err
}

func TestRun_JSON(t *testing.T) {
	out, err := run(t, "--json")
	gt.NoError(t, err)

	var descriptor model.PluginDescriptor
	gt.NoError(t, json.Unmarshal([]byte(out), &descriptor))
	gt.Value(t, descriptor.Type).Equal("ds")
	gt.Value(t, descriptor.Version).Equal(types.Version)
	gt.A(t, descriptor.Parameters).Length(2)
	gt.Value(t, descriptor.Parameters[0].Name).Equal("mode")
	gt.Value(t, descriptor.Parameters[1].Default).Equal(model.DefaultDataURL)
}

func TestRun_Meta(t *testing.T) {
	out, err := run(t, "--meta")
	gt.NoError(t, err)
	gt.String(t, out).Contains(`"type": "ds"`)
	gt.String(t, out).NotContains(`"parameters"`)
}

func TestRun_SaveJSON(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "--savejson", dir)
	gt.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, cli.DescriptorFileName))
	gt.NoError(t, err)

	var descriptor model.PluginDescriptor
	gt.NoError(t, json.Unmarshal(data, &descriptor))
	gt.Value(t, descriptor.SelfExec).Equal(types.AppName)
}

func TestRun_SaveJSON_MissingDir(t *testing.T) {
	_, err := run(t, "--savejson", filepath.Join(t.TempDir(), "missing"))
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagInvalidArgs))
}

func TestRun_Man(t *testing.T) {
	out, err := run(t, "--man")
	gt.NoError(t, err)
	gt.String(t, out).Contains("SYNOPSIS")
	gt.String(t, out).Contains("--dataUrl <DATAURL>")
}

func TestRun_Version(t *testing.T) {
	out, err := run(t, "--version")
	gt.NoError(t, err)
	gt.Value(t, out).Equal(types.Version + "\n")
}

func TestRun_MissingDirectories(t *testing.T) {
	_, err := run(t, "--mode", "covidx", t.TempDir())
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagInvalidArgs))
}

func TestRun_InvalidLogLevel(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "--version")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagInvalidArgs))
}

func TestRun_UnknownMode(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	_, err := run(t, "--mode", "train", inputDir, outputDir)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagUnknownMode))

	for _, dir := range []string{inputDir, outputDir} {
		entries, err := os.ReadDir(dir)
		gt.NoError(t, err)
		gt.A(t, entries).Length(0)
	}
}

func newArchive(t *testing.T, name, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	gt.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     name,
		Mode:     0644,
		Size:     int64(len(body)),
		Typeflag: tar.TypeReg,
	}))
	_, err := tw.Write([]byte(body))
	gt.NoError(t, err)
	gt.NoError(t, tw.Close())
	gt.NoError(t, gz.Close())
	return buf.Bytes()
}

// newMirror serves a listing page with two archives under /data/
func newMirror(t *testing.T) *httptest.Server {
	t.Helper()
	archives := map[string][]byte{
		"cohen.tar.gz": newArchive(t, "cohen/metadata.csv", "patientid,finding\n"),
		"rsna.tar.gz":  newArchive(t, "rsna/stage_2_train_labels.csv", "patientId,Target\n"),
	}

	r := chi.NewRouter()
	r.Get("/data/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
<a href="/data/cohen.tar.gz">cohen</a>
<a href="/data/README.txt">readme</a>
<a href="/data/rsna.tar.gz">rsna</a>
</body></html>`))
	})
	r.Get("/data/{name}", func(w http.ResponseWriter, r *http.Request) {
		data, ok := archives[chi.URLParam(r, "name")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// writeCombiner writes a shell script that records the extracted files into outputDir
func writeCombiner(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}

	path := filepath.Join(t.TempDir(), "combine.sh")
	script := "#!/bin/sh\ncat \"$1/cohen/metadata.csv\" \"$1/rsna/stage_2_train_labels.csv\" > \"$2/combined.csv\"\n"
	gt.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestRun_COVIDx(t *testing.T) {
	srv := newMirror(t)
	combiner := writeCombiner(t)
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	out, err := run(t,
		"--mode", "covidx",
		"--dataUrl", srv.URL+"/data/",
		"--combiner-cmd", combiner,
		inputDir, outputDir,
	)
	gt.NoError(t, err)
	gt.String(t, out).Contains("Version: " + types.Version)

	dataDir := filepath.Join(inputDir, "data")
	for _, name := range []string{"cohen.tar.gz", "rsna.tar.gz", "cohen/metadata.csv", "rsna/stage_2_train_labels.csv"} {
		_, err := os.Stat(filepath.Join(dataDir, name))
		gt.NoError(t, err)
	}
	_, err = os.Stat(filepath.Join(dataDir, "README.txt"))
	gt.True(t, os.IsNotExist(err))

	combined, err := os.ReadFile(filepath.Join(outputDir, "combined.csv"))
	gt.NoError(t, err)
	gt.Value(t, string(combined)).Equal("patientid,finding\npatientId,Target\n")
}

func TestRun_COVIDx_ConfigFile(t *testing.T) {
	srv := newMirror(t)
	combiner := writeCombiner(t)
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	gt.NoError(t, os.WriteFile(configPath, []byte(
		"mode = \"covidx\"\n"+
			"data_url = \""+srv.URL+"/data/\"\n"+
			"[combiner]\n"+
			"command = \""+combiner+"\"\n"), 0600))

	_, err := run(t, "--config", configPath, inputDir, outputDir)
	gt.NoError(t, err)

	_, err = os.Stat(filepath.Join(outputDir, "combined.csv"))
	gt.NoError(t, err)
}

func TestRun_COVIDx_DownloadFailure(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/data/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<a href="/data/missing.tar.gz">missing</a>`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	inputDir := t.TempDir()
	outputDir := t.TempDir()

	_, err := run(t,
		"--mode", "covidx",
		"--dataUrl", srv.URL+"/data/",
		"--combiner-cmd", "covidnet-combiner-must-not-run",
		inputDir, outputDir,
	)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagDownload))

	entries, err := os.ReadDir(outputDir)
	gt.NoError(t, err)
	gt.A(t, entries).Length(0)
}
