package listing

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/interfaces"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/model"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/types"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/utils/logging"
	"github.com/PuerkitoBio/goquery"
	"github.com/m-mizutani/goerr/v2"
)

const userAgent = "covidnet-generate-dataset/" + types.Version

// config holds internal listing client configuration
type config struct {
	httpClient *http.Client
	token      string
}

// Option is a functional option for the listing client
type Option func(*config)

// WithHTTPClient sets the HTTP client used to fetch listing pages
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = c
	}
}

// WithTimeout sets the request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.httpClient = &http.Client{Timeout: d}
	}
}

// WithToken sets a bearer token sent with the listing request
func WithToken(token string) Option {
	return func(cfg *config) {
		cfg.token = token
	}
}

type client struct {
	httpClient *http.Client
	token      string
}

// NewClient creates a LinkExtractor that reads HTML directory listings
func NewClient(opts ...Option) interfaces.LinkExtractor {
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

// ExtractLinks fetches the listing page and returns its archive links
func (c *client) ExtractLinks(ctx context.Context, listingURL string) ([]model.Link, error) {
	logger := logging.From(ctx)

	doc, err := c.fetchDocument(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	links, err := ParseLinks(doc, listingURL)
	if err != nil {
		return nil, err
	}

	logger.Info("Extracted archive links",
		"url", listingURL,
		"link_count", len(links),
	)

	return links, nil
}

func (c *client) fetchDocument(ctx context.Context, listingURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create listing request",
			goerr.V("url", listingURL),
			goerr.T(types.ErrTagFetch))
	}
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch listing page",
			goerr.V("url", listingURL),
			goerr.T(types.ErrTagFetch))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, goerr.New("unexpected status code for listing page",
			goerr.V("url", listingURL),
			goerr.V("status", resp.StatusCode),
			goerr.T(types.ErrTagFetch))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse listing page",
			goerr.V("url", listingURL),
			goerr.T(types.ErrTagFetch))
	}

	return doc, nil
}

// ParseLinks returns the archive links of an already parsed listing page.
//
// An href is resolved by plain concatenation: onto the og:url meta content
// when the page declares one, otherwise onto scheme://host of listingURL.
// Anchors are returned in document order and are not deduplicated.
func ParseLinks(doc *goquery.Document, listingURL string) ([]model.Link, error) {
	base, err := url.Parse(listingURL)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid listing URL",
			goerr.V("url", listingURL),
			goerr.T(types.ErrTagFetch))
	}

	prefix := base.Scheme + "://" + base.Host
	if ogURL, ok := doc.Find(`meta[property="og:url"]`).First().Attr("content"); ok {
		prefix = ogURL
	}

	var links []model.Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.HasSuffix(href, model.ArchiveSuffix) {
			return
		}
		links = append(links, model.Link(prefix+href))
	})

	return links, nil
}
