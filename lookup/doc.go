// Package lookup provides the public address and country resolvers used by
// the connectivity monitor.
//
// Public address providers:
//
//   - opendns: A record of myip.opendns.com asked directly to resolver1.opendns.com
//   - ipify: plain-text answer from https://api.ipify.org
//   - icanhazip: plain-text answer from https://ipv4.icanhazip.com
//
// Country providers:
//
//   - ip2c: https://ip2c.org, "1;US;USA;United States" answers
//   - ipinfo: https://ipinfo.io/<ip>/country, optional API token
//   - geoip: offline MaxMind country database
//
// Providers are chained in configuration order; the first usable answer wins.
// Every failure is reported as one of common.ErrLookupTimeout,
// common.ErrLookupFailed or common.ErrInvalidAddress.
package lookup
