package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
	"github.com/yllada/ipcountry-tray/common"
)

// Well-known country endpoints.
const (
	IP2CURL   = "https://ip2c.org/"
	IPInfoURL = "https://ipinfo.io/"

	maxCountryBody = 256
)

// IP2CResolver queries ip2c.org.
type IP2CResolver struct {
	BaseURL string
	Client  *http.Client
}

// ResolveCountry implements common.CountryResolver.
func (r *IP2CResolver) ResolveCountry(ctx context.Context, ip string) (string, error) {
	body, err := getText(ctx, clientOrDefault(r.Client), baseOr(r.BaseURL, IP2CURL)+url.PathEscape(ip), maxCountryBody)
	if err != nil {
		return "", fmt.Errorf("%s: %w", common.ProviderIP2C, err)
	}
	return parseIP2C(body)
}

// parseIP2C decodes "status;ISO2;ISO3;Name". Status 1 is a hit, 2 means the
// address is not in the database, 0 means the request was malformed.
func parseIP2C(body string) (string, error) {
	parts := strings.Split(strings.TrimSpace(body), ";")
	switch parts[0] {
	case "1":
		if len(parts) < 2 {
			return "", fmt.Errorf("%w: truncated ip2c answer %q", common.ErrLookupFailed, body)
		}
		return common.NormalizeCountry(parts[1]), nil
	case "2":
		return common.UnknownCountry, nil
	case "0":
		return "", fmt.Errorf("%w: ip2c rejected the address", common.ErrInvalidAddress)
	default:
		return "", fmt.Errorf("%w: unexpected ip2c answer %q", common.ErrLookupFailed, body)
	}
}

// IPInfoResolver queries ipinfo.io. The token is optional; without it the
// anonymous rate limit applies.
type IPInfoResolver struct {
	BaseURL string
	Client  *http.Client
	Secrets common.SecretStore
}

// ResolveCountry implements common.CountryResolver.
func (r *IPInfoResolver) ResolveCountry(ctx context.Context, ip string) (string, error) {
	endpoint := baseOr(r.BaseURL, IPInfoURL) + url.PathEscape(ip) + "/country"
	if token := r.token(); token != "" {
		endpoint += "?token=" + url.QueryEscape(token)
	}

	body, err := getText(ctx, clientOrDefault(r.Client), endpoint, maxCountryBody)
	if err != nil {
		return "", fmt.Errorf("%s: %w", common.ProviderIPInfo, err)
	}

	code := common.NormalizeCountry(body)
	if code == common.UnknownCountry {
		return "", fmt.Errorf("%w: ipinfo answered %q", common.ErrInvalidCountry, body)
	}
	return code, nil
}

func (r *IPInfoResolver) token() string {
	if r.Secrets == nil {
		return ""
	}
	token, err := r.Secrets.Get(common.IPInfoTokenKey)
	if err != nil {
		if !errors.Is(err, common.ErrSecretNotFound) {
			common.LogWarn("Cannot read ipinfo token: %v", err)
		}
		return ""
	}
	return token
}

// countryReader is the subset of *geoip2.Reader used here.
type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Close() error
}

// GeoIPResolver looks addresses up in a local MaxMind country database.
// The database is opened on first use.
type GeoIPResolver struct {
	Path string

	mu     sync.Mutex
	reader countryReader
}

// ResolveCountry implements common.CountryResolver.
func (r *GeoIPResolver) ResolveCountry(ctx context.Context, ip string) (string, error) {
	reader, err := r.open()
	if err != nil {
		return "", err
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidAddress, ip)
	}

	record, err := reader.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", common.ProviderGeoIP, common.ErrLookupFailed, err)
	}
	return common.NormalizeCountry(record.Country.IsoCode), nil
}

func (r *GeoIPResolver) open() (countryReader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reader != nil {
		return r.reader, nil
	}

	db, err := geoip2.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", common.ProviderGeoIP, common.ErrProviderUnavailable, err)
	}
	common.LogInfo("Opened GeoIP database %s", r.Path)
	r.reader = db
	return db, nil
}

// Close releases the database.
func (r *GeoIPResolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reader == nil {
		return nil
	}
	err := r.reader.Close()
	r.reader = nil
	return err
}

// ChainCountryResolver tries resolvers in order; the first answer wins.
type ChainCountryResolver struct {
	Resolvers []common.CountryResolver
}

// ResolveCountry implements common.CountryResolver.
func (c *ChainCountryResolver) ResolveCountry(ctx context.Context, ip string) (string, error) {
	if len(c.Resolvers) == 0 {
		return "", common.ErrProviderUnavailable
	}

	var errs []error
	for i, r := range c.Resolvers {
		if ctx.Err() != nil {
			errs = append(errs, Classify(ctx.Err()))
			break
		}

		attemptCtx, cancel := shareDeadline(ctx, len(c.Resolvers)-i)
		code, err := r.ResolveCountry(attemptCtx, ip)
		cancel()
		if err == nil {
			return code, nil
		}
		common.LogDebug("country provider failed for %s: %v", ip, err)
		errs = append(errs, err)
	}
	return "", errors.Join(errs...)
}

// Close closes every resolver that holds resources.
func (c *ChainCountryResolver) Close() error {
	var errs []error
	for _, r := range c.Resolvers {
		if closer, ok := r.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}

func clientOrDefault(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}

func baseOr(base, fallback string) string {
	if base == "" {
		base = fallback
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
