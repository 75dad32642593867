package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yllada/ipcountry-tray/common"
	"github.com/yllada/ipcountry-tray/config"
)

func textServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPIPResolver(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{"plain answer", http.StatusOK, "1.2.3.4\n", "1.2.3.4", nil},
		{"server error", http.StatusInternalServerError, "", "", common.ErrLookupFailed},
		{"html answer", http.StatusOK, "<html>blocked</html>", "", common.ErrInvalidAddress},
		{"empty answer", http.StatusOK, "", "", common.ErrInvalidAddress},
		{"ipv6 answer", http.StatusOK, "2001:db8::1", "", common.ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := textServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Contains(t, r.Header.Get("User-Agent"), common.AppName)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			r := &HTTPIPResolver{Name: "test", URL: srv.URL, Client: NewHTTPClient()}
			got, err := r.ResolvePublicIP(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPIPResolver_Timeout(t *testing.T) {
	srv := textServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	r := &HTTPIPResolver{Name: "slow", URL: srv.URL, Client: NewHTTPClient()}
	_, err := r.ResolvePublicIP(ctx)
	assert.ErrorIs(t, err, common.ErrLookupTimeout)
}

type staticIP struct {
	ip  string
	err error
}

func (s staticIP) ResolvePublicIP(ctx context.Context) (string, error) {
	return s.ip, s.err
}

func TestChainIPResolver(t *testing.T) {
	failing := staticIP{err: common.WrapError(common.ErrLookupFailed, "down")}

	chain := &ChainIPResolver{Resolvers: []common.IPResolver{failing, staticIP{ip: "5.6.7.8"}}}
	ip, err := chain.ResolvePublicIP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5.6.7.8", ip)

	chain = &ChainIPResolver{Resolvers: []common.IPResolver{failing, failing}}
	_, err = chain.ResolvePublicIP(context.Background())
	assert.ErrorIs(t, err, common.ErrLookupFailed)

	_, err = (&ChainIPResolver{}).ResolvePublicIP(context.Background())
	assert.ErrorIs(t, err, common.ErrProviderUnavailable)
}

type deadlineRecorder struct {
	budgets []time.Duration
}

func (d *deadlineRecorder) ResolvePublicIP(ctx context.Context) (string, error) {
	deadline, _ := ctx.Deadline()
	d.budgets = append(d.budgets, time.Until(deadline))
	return "", common.ErrLookupFailed
}

func TestChainIPResolver_SharesDeadline(t *testing.T) {
	rec := &deadlineRecorder{}
	chain := &ChainIPResolver{Resolvers: []common.IPResolver{rec, rec}}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, _ = chain.ResolvePublicIP(ctx)

	require.Len(t, rec.budgets, 2)
	assert.LessOrEqual(t, rec.budgets[0], 500*time.Millisecond)
	assert.Greater(t, rec.budgets[1], 500*time.Millisecond)
}

func TestParseIP2C(t *testing.T) {
	tests := []struct {
		body    string
		want    string
		wantErr error
	}{
		{"1;US;USA;United States", "US", nil},
		{"1;de;DEU;Germany\n", "DE", nil},
		{"2;ZZ;ZZZ;Reserved", common.UnknownCountry, nil},
		{"1;", common.UnknownCountry, nil},
		{"1", "", common.ErrLookupFailed},
		{"0;;;WRONG INPUT", "", common.ErrInvalidAddress},
		{"<html>", "", common.ErrLookupFailed},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got, err := parseIP2C(tt.body)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIP2CResolver(t *testing.T) {
	srv := textServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1.2.3.4", r.URL.Path)
		fmt.Fprint(w, "1;US;USA;United States")
	})

	r := &IP2CResolver{BaseURL: srv.URL, Client: NewHTTPClient()}
	got, err := r.ResolveCountry(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "US", got)
}

type secretMap map[string]string

func (s secretMap) Get(key string) (string, error) {
	v, ok := s[key]
	if !ok {
		return "", common.ErrSecretNotFound
	}
	return v, nil
}

func TestIPInfoResolver(t *testing.T) {
	var (
		mu       sync.Mutex
		gotToken string
	)
	lastToken := func() string {
		mu.Lock()
		defer mu.Unlock()
		return gotToken
	}
	srv := textServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotToken = r.URL.Query().Get("token")
		mu.Unlock()
		switch r.URL.Path {
		case "/1.2.3.4/country":
			fmt.Fprint(w, "nl\n")
		default:
			fmt.Fprint(w, "\n")
		}
	})

	r := &IPInfoResolver{BaseURL: srv.URL, Client: NewHTTPClient(), Secrets: secretMap{common.IPInfoTokenKey: "s3cret"}}
	got, err := r.ResolveCountry(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "NL", got)
	assert.Equal(t, "s3cret", lastToken())

	r = &IPInfoResolver{BaseURL: srv.URL, Client: NewHTTPClient(), Secrets: secretMap{}}
	_, err = r.ResolveCountry(context.Background(), "10.0.0.1")
	assert.ErrorIs(t, err, common.ErrInvalidCountry)
	assert.Empty(t, lastToken())
}

type fakeCountryReader struct {
	codes  map[string]string
	closed bool
}

func (f *fakeCountryReader) Country(ip net.IP) (*geoip2.Country, error) {
	code, ok := f.codes[ip.String()]
	if !ok {
		return nil, errors.New("not found")
	}
	record := &geoip2.Country{}
	record.Country.IsoCode = code
	return record, nil
}

func (f *fakeCountryReader) Close() error {
	f.closed = true
	return nil
}

func TestGeoIPResolver(t *testing.T) {
	missing := &GeoIPResolver{Path: "/nonexistent/GeoLite2-Country.mmdb"}
	_, err := missing.ResolveCountry(context.Background(), "1.2.3.4")
	assert.ErrorIs(t, err, common.ErrProviderUnavailable)

	reader := &fakeCountryReader{codes: map[string]string{"1.2.3.4": "SE", "9.9.9.9": ""}}
	r := &GeoIPResolver{Path: "unused", reader: reader}

	got, err := r.ResolveCountry(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "SE", got)

	got, err = r.ResolveCountry(context.Background(), "9.9.9.9")
	require.NoError(t, err)
	assert.Equal(t, common.UnknownCountry, got)

	_, err = r.ResolveCountry(context.Background(), "bogus")
	assert.ErrorIs(t, err, common.ErrInvalidAddress)

	chain := &ChainCountryResolver{Resolvers: []common.CountryResolver{r}}
	require.NoError(t, chain.Close())
	assert.True(t, reader.closed)
}

type staticCountry struct {
	code string
	err  error
}

func (s staticCountry) ResolveCountry(ctx context.Context, ip string) (string, error) {
	return s.code, s.err
}

func TestChainCountryResolver(t *testing.T) {
	chain := &ChainCountryResolver{Resolvers: []common.CountryResolver{
		staticCountry{err: common.ErrLookupFailed},
		staticCountry{code: "JP"},
	}}
	got, err := chain.ResolveCountry(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "JP", got)

	chain = &ChainCountryResolver{Resolvers: []common.CountryResolver{staticCountry{err: common.ErrLookupFailed}}}
	_, err = chain.ResolveCountry(context.Background(), "1.2.3.4")
	assert.ErrorIs(t, err, common.ErrLookupFailed)
}

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", context.DeadlineExceeded, common.ErrLookupTimeout},
		{"net timeout", timeoutErr{}, common.ErrLookupTimeout},
		{"invalid address", common.ErrInvalidAddress, common.ErrInvalidAddress},
		{"other", errors.New("connection refused"), common.ErrLookupFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify(tt.err), tt.want)
		})
	}

	assert.NoError(t, Classify(nil))
}

func TestFactories(t *testing.T) {
	cfg := config.DefaultConfig()

	ips, err := NewIPResolver(cfg, NewHTTPClient())
	require.NoError(t, err)
	assert.Len(t, ips.Resolvers, len(cfg.IPProviders))

	cfg.CountryProviders = []string{common.ProviderIP2C, common.ProviderIPInfo, common.ProviderGeoIP}
	countries, err := NewCountryResolver(cfg, NewHTTPClient(), nil)
	require.NoError(t, err)
	assert.Len(t, countries.Resolvers, 3)
	assert.NoError(t, countries.Close())

	cfg.IPProviders = []string{"smoke-signals"}
	_, err = NewIPResolver(cfg, nil)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	cfg.CountryProviders = []string{"atlas"}
	_, err = NewCountryResolver(cfg, nil, nil)
	assert.ErrorContains(t, err, "atlas")
}
