package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/yllada/ipcountry-tray/common"
)

// Well-known public address endpoints.
const (
	IpifyURL        = "https://api.ipify.org"
	IcanhazipURL    = "https://ipv4.icanhazip.com"
	OpenDNSHost     = "myip.opendns.com"
	OpenDNSResolver = "resolver1.opendns.com:53"

	maxIPBody = 64
)

// HTTPIPResolver asks a plain-text "what is my IP" endpoint.
type HTTPIPResolver struct {
	Name   string
	URL    string
	Client *http.Client
}

// ResolvePublicIP implements common.IPResolver.
func (r *HTTPIPResolver) ResolvePublicIP(ctx context.Context) (string, error) {
	body, err := getText(ctx, clientOrDefault(r.Client), r.URL, maxIPBody)
	if err != nil {
		return "", fmt.Errorf("%s: %w", r.Name, err)
	}
	return common.NormalizeIPv4(body)
}

// DNSIPResolver resolves a magic hostname against a specific DNS server,
// which answers with the querying client's address.
type DNSIPResolver struct {
	Name   string
	Host   string
	Server string
}

// ResolvePublicIP implements common.IPResolver.
func (r *DNSIPResolver) ResolvePublicIP(ctx context.Context) (string, error) {
	resolver := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, r.Server)
		},
	}

	addrs, err := resolver.LookupIP(ctx, "ip4", r.Host)
	if err != nil {
		return "", fmt.Errorf("%s: %w", r.Name, Classify(err))
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("%s: %w: no A record", r.Name, common.ErrLookupFailed)
	}
	return common.NormalizeIPv4(addrs[0].String())
}

// ChainIPResolver tries resolvers in order and returns the first valid
// address. Each attempt gets an equal share of the remaining deadline.
type ChainIPResolver struct {
	Resolvers []common.IPResolver
}

// ResolvePublicIP implements common.IPResolver.
func (c *ChainIPResolver) ResolvePublicIP(ctx context.Context) (string, error) {
	if len(c.Resolvers) == 0 {
		return "", common.ErrProviderUnavailable
	}

	var errs []error
	for i, r := range c.Resolvers {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		attemptCtx, cancel := shareDeadline(ctx, len(c.Resolvers)-i)
		ip, err := r.ResolvePublicIP(attemptCtx)
		cancel()
		if err == nil {
			return ip, nil
		}
		common.LogDebug("public address provider failed: %v", err)
		errs = append(errs, err)
	}

	joined := errors.Join(errs...)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: %v", common.ErrLookupTimeout, joined)
	}
	if len(errs) == 1 {
		return "", Classify(errs[0])
	}
	return "", fmt.Errorf("%w: %v", common.ErrLookupFailed, joined)
}

// NewOpenDNSResolver returns the DNS based resolver.
func NewOpenDNSResolver() *DNSIPResolver {
	return &DNSIPResolver{Name: common.ProviderOpenDNS, Host: OpenDNSHost, Server: OpenDNSResolver}
}
