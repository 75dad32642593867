package lookup

import (
	"fmt"
	"net/http"

	"github.com/yllada/ipcountry-tray/common"
	"github.com/yllada/ipcountry-tray/config"
)

// NewIPResolver builds the public address resolver chain from cfg.
func NewIPResolver(cfg *config.Config, client *http.Client) (*ChainIPResolver, error) {
	chain := &ChainIPResolver{}
	for _, name := range cfg.IPProviders {
		switch name {
		case common.ProviderOpenDNS:
			chain.Resolvers = append(chain.Resolvers, NewOpenDNSResolver())
		case common.ProviderIpify:
			chain.Resolvers = append(chain.Resolvers, &HTTPIPResolver{Name: name, URL: IpifyURL, Client: client})
		case common.ProviderIcanhazip:
			chain.Resolvers = append(chain.Resolvers, &HTTPIPResolver{Name: name, URL: IcanhazipURL, Client: client})
		default:
			return nil, fmt.Errorf("%w: unknown ip provider %q", common.ErrInvalidConfig, name)
		}
	}
	return chain, nil
}

// NewCountryResolver builds the country resolver chain from cfg. secrets
// may be nil. Close the result to release the GeoIP database.
func NewCountryResolver(cfg *config.Config, client *http.Client, secrets common.SecretStore) (*ChainCountryResolver, error) {
	chain := &ChainCountryResolver{}
	for _, name := range cfg.CountryProviders {
		switch name {
		case common.ProviderIP2C:
			chain.Resolvers = append(chain.Resolvers, &IP2CResolver{Client: client})
		case common.ProviderIPInfo:
			chain.Resolvers = append(chain.Resolvers, &IPInfoResolver{Client: client, Secrets: secrets})
		case common.ProviderGeoIP:
			chain.Resolvers = append(chain.Resolvers, &GeoIPResolver{Path: cfg.GeoIPDatabase})
		default:
			return nil, fmt.Errorf("%w: unknown country provider %q", common.ErrInvalidConfig, name)
		}
	}
	return chain, nil
}
