package config

import (
	"time"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/interfaces"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/model"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/infra/fetcher"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/infra/listing"
	"github.com/urfave/cli/v3"
)

// Source holds configuration of the dataset mirror
type Source struct {
	DataURL string
	Token   string `masq:"secret"`
	Timeout time.Duration
}

// Flags returns CLI flags for the dataset mirror
func (c *Source) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "dataUrl",
			Usage:       "input data url",
			Value:       model.DefaultDataURL,
			Destination: &c.DataURL,
			Sources:     cli.EnvVars("COVIDNET_DATA_URL"),
		},
		&cli.StringFlag{
			Name:        "data-token",
			Usage:       "Bearer token for protected dataset mirrors",
			Destination: &c.Token,
			Sources:     cli.EnvVars("COVIDNET_DATA_TOKEN"),
		},
		&cli.DurationFlag{
			Name:        "http-timeout",
			Usage:       "Timeout of each HTTP request, 0 disables it",
			Value:       0,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("COVIDNET_HTTP_TIMEOUT"),
		},
	}
}

// NewLinkExtractor creates the listing page client
func (c *Source) NewLinkExtractor() interfaces.LinkExtractor {
	return listing.NewClient(
		listing.WithTimeout(c.Timeout),
		listing.WithToken(c.Token),
	)
}

// NewArchiveFetcher creates the archive download client
func (c *Source) NewArchiveFetcher() interfaces.ArchiveFetcher {
	return fetcher.NewClient(
		fetcher.WithTimeout(c.Timeout),
		fetcher.WithToken(c.Token),
	)
}
