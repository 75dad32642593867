package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/yllada/ipcountry-tray/common"
)

// userAgent is sent with every lookup request; some providers reject
// requests without one.
var userAgent = common.AppName + " (+https://github.com/yllada/ipcountry-tray)"

// NewHTTPClient returns a pooled HTTP client for lookups. It has no overall
// timeout; every request is bounded by its context.
func NewHTTPClient() *http.Client {
	transport := cleanhttp.DefaultPooledTransport()
	transport.IdleConnTimeout = common.HTTPIdleConnTimeout
	transport.MaxIdleConnsPerHost = 2

	return &http.Client{
		Transport: &userAgentTransport{base: transport},
	}
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	return t.base.RoundTrip(req)
}

// Classify maps a lookup error onto the lookup taxonomy: ErrLookupTimeout,
// ErrInvalidAddress or ErrLookupFailed. A nil error stays nil.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrLookupTimeout),
		errors.Is(err, common.ErrInvalidAddress),
		errors.Is(err, common.ErrLookupFailed):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", common.ErrLookupTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", common.ErrLookupTimeout, err)
	}
	return fmt.Errorf("%w: %v", common.ErrLookupFailed, err)
}

// getText performs a GET and returns the trimmed body, at most limit bytes.
func getText(ctx context.Context, client *http.Client, url string, limit int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrLookupFailed, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %s", common.ErrLookupFailed, req.URL.Host, resp.Status)
	}

	body, err := readLimited(resp, limit)
	if err != nil {
		return "", Classify(err)
	}
	return body, nil
}
