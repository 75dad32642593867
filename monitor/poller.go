package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yllada/ipcountry-tray/common"
)

// Poller performs one connectivity check against the injected resolvers.
type Poller struct {
	ips       common.IPResolver
	countries common.CountryResolver
	timeout   time.Duration
}

// NewPoller creates a poller. timeout bounds each lookup; zero selects
// common.LookupTimeout.
func NewPoller(ips common.IPResolver, countries common.CountryResolver, timeout time.Duration) *Poller {
	if timeout <= 0 {
		timeout = common.LookupTimeout
	}
	return &Poller{
		ips:       ips,
		countries: countries,
		timeout:   timeout,
	}
}

// Timeout returns the per-lookup timeout.
func (p *Poller) Timeout() time.Duration {
	return p.timeout
}

// Poll runs one cycle: given the current state it returns the next state and
// the events to emit. Lookup failures never escape; they reduce to an absent
// address or the unknown country.
func (p *Poller) Poll(ctx context.Context, s State) (State, []Event) {
	ip, err := p.resolveIP(ctx)
	if err != nil {
		common.LogDebug("%sno public address: %v", cyclePrefix(ctx), err)
		if !s.AlertArmed {
			// Already alerted for this outage.
			return s, nil
		}
		s.AlertArmed = false
		s.LastIP = ""
		s.LastCountry = ""
		return s, []Event{DisconnectedEvent()}
	}

	if ip == s.LastIP {
		s.AlertArmed = true
		return s, nil
	}

	country := p.resolveCountry(ctx, ip)
	s.LastIP = ip
	s.LastCountry = country
	s.AlertArmed = true
	return s, []Event{CountryChangedEvent(ip, country)}
}

// Resolve looks up the current address and, when one is found, its country.
// It returns an error only when no address is obtainable.
func (p *Poller) Resolve(ctx context.Context) (PollResult, error) {
	ip, err := p.resolveIP(ctx)
	if err != nil {
		return PollResult{}, err
	}
	return PollResult{IP: ip, Country: p.resolveCountry(ctx, ip)}, nil
}

// resolveIP asks the IP resolver for the public address within the timeout.
func (p *Poller) resolveIP(ctx context.Context) (string, error) {
	if p.ips == nil {
		return "", common.ErrProviderUnavailable
	}

	lookupCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.ips.ResolvePublicIP(lookupCtx)
	if err != nil {
		if errors.Is(lookupCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, common.ErrLookupTimeout) {
			return "", fmt.Errorf("%w: %v", common.ErrLookupTimeout, err)
		}
		return "", err
	}
	return common.NormalizeIPv4(raw)
}

// resolveCountry maps ip to a country code, returning the unknown sentinel
// on any failure.
func (p *Poller) resolveCountry(ctx context.Context, ip string) string {
	if p.countries == nil {
		return common.UnknownCountry
	}

	lookupCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	country, err := p.countries.ResolveCountry(lookupCtx, ip)
	if err != nil {
		common.LogWarn("%scountry lookup for %s failed: %v", cyclePrefix(ctx), ip, err)
		return common.UnknownCountry
	}
	return common.NormalizeCountry(country)
}

type cycleIDKey struct{}

// withCycleID tags ctx with the id of the running cycle for log correlation.
func withCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleIDKey{}, id)
}

func cyclePrefix(ctx context.Context) string {
	if id, ok := ctx.Value(cycleIDKey{}).(string); ok && id != "" {
		return "[" + id + "] "
	}
	return ""
}
