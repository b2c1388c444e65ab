package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/interfaces"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/model"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/types"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const userAgent = "covidnet-generate-dataset/" + types.Version

// config holds internal fetcher configuration
type config struct {
	httpClient *http.Client
	token      string
}

// Option is a functional option for the archive fetcher
type Option func(*config)

// WithHTTPClient sets the HTTP client used for downloads
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = c
	}
}

// WithTimeout sets the per-archive request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.httpClient = &http.Client{Timeout: d}
	}
}

// WithToken sets a bearer token sent with every download request
func WithToken(token string) Option {
	return func(cfg *config) {
		cfg.token = token
	}
}

type client struct {
	httpClient *http.Client
	token      string
}

// NewClient creates an ArchiveFetcher that downloads over plain HTTP GET
func NewClient(opts ...Option) interfaces.ArchiveFetcher {
	cfg := &config{
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &client{
		httpClient: cfg.httpClient,
		token:      cfg.token,
	}
}

// Fetch downloads links one after another into destDir. The first failure
// aborts the remaining downloads. A file that already exists under the same
// name is overwritten.
func (c *client) Fetch(ctx context.Context, links []model.Link, destDir string) ([]model.LocalArchive, error) {
	logger := logging.From(ctx)

	archives := make([]model.LocalArchive, 0, len(links))
	for i, link := range links {
		logger.Info("Downloading archive",
			"url", link.String(),
			"index", i+1,
			"total", len(links),
		)

		archive, err := c.download(ctx, link, destDir)
		if err != nil {
			logger.Error("Failed to download archive",
				"error", err,
				"url", link.String(),
			)
			return nil, err
		}

		logger.Info("Downloaded archive",
			"path", archive.Path,
			"size_bytes", archive.Size,
		)
		archives = append(archives, *archive)
	}

	return archives, nil
}

// FileName returns the local file name for link: the last element of its URL path
func FileName(link model.Link) (string, error) {
	u, err := url.Parse(link.String())
	if err != nil {
		return "", goerr.Wrap(err, "invalid archive URL",
			goerr.V("url", link.String()),
			goerr.T(types.ErrTagDownload))
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == ".." {
		return "", goerr.New("archive URL has no file name",
			goerr.V("url", link.String()),
			goerr.T(types.ErrTagDownload))
	}

	return name, nil
}

func (c *client) download(ctx context.Context, link model.Link, destDir string) (*model.LocalArchive, error) {
	name, err := FileName(link)
	if err != nil {
		return nil, err
	}
	destPath := filepath.Join(destDir, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.String(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create download request",
			goerr.V("url", link.String()),
			goerr.T(types.ErrTagDownload))
	}
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download archive",
			goerr.V("url", link.String()),
			goerr.T(types.ErrTagDownload))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status code for archive",
			goerr.V("url", link.String()),
			goerr.V("status", resp.StatusCode),
			goerr.T(types.ErrTagDownload))
	}

	// Body goes to a temporary file first so that an interrupted transfer
	// never leaves a file with the archive suffix behind.
	tmp, err := os.CreateTemp(destDir, "."+name+".*.part")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary file",
			goerr.V("dir", destDir),
			goerr.T(types.ErrTagDownload))
	}
	tmpPath := tmp.Name()

	size, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpPath) // Error ignored, the download error is reported instead
		cause := copyErr
		if cause == nil {
			cause = closeErr
		}
		return nil, goerr.Wrap(cause, "failed to write archive",
			goerr.V("url", link.String()),
			goerr.V("path", destPath),
			goerr.T(types.ErrTagDownload))
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return nil, goerr.Wrap(err, "failed to set archive permissions",
			goerr.V("path", tmpPath),
			goerr.T(types.ErrTagDownload))
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return nil, goerr.Wrap(err, "failed to move archive into place",
			goerr.V("path", destPath),
			goerr.T(types.ErrTagDownload))
	}

	return &model.LocalArchive{
		Path: destPath,
		Link: link,
		Size: size,
	}, nil
}
