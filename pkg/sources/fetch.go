package sources

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/harborline/motorsync/pkg/errors"
)

// Default fetch timeouts. Full-feed downloads get a generous budget;
// opportunistic per-item enrichment checks stay short so one slow source
// cannot stall the run.
const (
	DefaultFeedTimeout   = 30 * time.Second
	DefaultScrapeTimeout = 2 * time.Second

	maxBodyBytes = 16 << 20
)

// httpGet downloads a URL with the given timeout layered over ctx, returning
// the body or a FetchError attributed to the named source.
func httpGet(ctx context.Context, client *http.Client, source, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewFetchError(source, url, err)
	}
	req.Header.Set("User-Agent", "motorsync/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewFetchError(source, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &errors.FetchError{
			Source:  source,
			URL:     url,
			Message: resp.Status,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.NewFetchError(source, url, err)
	}
	return body, nil
}
