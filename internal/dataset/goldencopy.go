package dataset

import (
	"context"
	"encoding/json"
	"net/url"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/legalform/internal/fetcher"
)

// DefaultGoldenCopyURL lists GLEIF golden copy publications.
const DefaultGoldenCopyURL = "https://leidata-preview.gleif.org/api/v2/golden-copies/publishes"

// FileRef points at one published file.
type FileRef struct {
	Type        string `json:"type"`
	Format      string `json:"format"`
	RecordCount int    `json:"record_count"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

// Bundle is one data set of a publication.
type Bundle struct {
	Type        string `json:"type"`
	PublishDate string `json:"publish_date"`
	FullFile    struct {
		CSV FileRef `json:"csv"`
	} `json:"full_file"`
}

// Publication is one golden copy publish event.
type Publication struct {
	PublishDate string `json:"publish_date"`
	LEI2        Bundle `json:"lei2"`
}

// GoldenCopyClient finds and downloads GLEIF golden copy files.
type GoldenCopyClient struct {
	url     string
	fetcher *fetcher.HTTPFetcher
}

// NewGoldenCopyClient returns a client for the publication listing at
// listURL; empty selects DefaultGoldenCopyURL.
func NewGoldenCopyClient(listURL string, f *fetcher.HTTPFetcher) *GoldenCopyClient {
	if listURL == "" {
		listURL = DefaultGoldenCopyURL
	}
	return &GoldenCopyClient{url: listURL, fetcher: f}
}

// FetchLatest returns the most recent publication on the first page.
func (c *GoldenCopyClient) FetchLatest(ctx context.Context) (*Publication, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, eris.Wrap(err, "golden copy: parse url")
	}
	q := u.Query()
	q.Set("page", "1")
	q.Set("page_size", "10")
	u.RawQuery = q.Encode()

	body, err := c.fetcher.Download(ctx, u.String())
	if err != nil {
		return nil, eris.Wrap(err, "golden copy: list publications")
	}
	defer body.Close() //nolint:errcheck

	var page struct {
		Data []Publication `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&page); err != nil {
		return nil, eris.Wrap(err, "golden copy: decode publications")
	}
	if len(page.Data) == 0 {
		return nil, eris.New("golden copy: no publications")
	}
	latest := slices.MaxFunc(page.Data, func(a, b Publication) int {
		return strings.Compare(a.PublishDate, b.PublishDate)
	})
	return &latest, nil
}

// DownloadLatest saves the newest full LEI-CDF CSV file into dir and
// returns its path.
func (c *GoldenCopyClient) DownloadLatest(ctx context.Context, dir string) (string, error) {
	pub, err := c.FetchLatest(ctx)
	if err != nil {
		return "", err
	}
	ref := pub.LEI2.FullFile.CSV
	if ref.URL == "" {
		return "", eris.Errorf("golden copy: publication %s has no csv file", pub.PublishDate)
	}
	u, err := url.Parse(ref.URL)
	if err != nil {
		return "", eris.Wrap(err, "golden copy: parse file url")
	}
	dest := filepath.Join(dir, path.Base(u.Path))

	zap.L().Info("golden copy: downloading",
		zap.String("publish_date", pub.PublishDate),
		zap.String("url", ref.URL),
		zap.Int("records", ref.RecordCount),
		zap.String("dest", dest),
	)
	if _, err := c.fetcher.DownloadToFile(ctx, ref.URL, dest); err != nil {
		return "", eris.Wrap(err, "golden copy: download")
	}
	return dest, nil
}
