// Package common provides shared constants, types, and utilities
// used across the IP Country Tray application.
package common

import "time"

// Application metadata.
const (
	// AppID is the unique identifier for the application.
	AppID = "com.sarkissians.ipcountry-tray"
	// AppName is the display name of the application.
	AppName = "IP to Country Tray"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "ipcountry-tray"
)

// File names used by the application.
const (
	ConfigFileName  = "config.yaml"
	SecretsFileName = ".secrets"
	LogFileName     = "ipcountry-tray.log"
)

// Default timeouts and intervals.
const (
	// PollInterval is how often the public address is checked.
	PollInterval = 5 * time.Second
	// MinPollInterval is the shortest interval accepted from configuration.
	MinPollInterval = 1 * time.Second
	// LookupTimeout bounds a single IP or country lookup.
	LookupTimeout = 1 * time.Second
	// HTTPIdleConnTimeout is how long pooled lookup connections stay open.
	HTTPIdleConnTimeout = 30 * time.Second
)

// Country code conventions.
const (
	// UnknownCountry is the sentinel used when no country could be resolved.
	UnknownCountry = "ZZ"
)

// Provider names accepted in configuration.
const (
	ProviderOpenDNS   = "opendns"
	ProviderIpify     = "ipify"
	ProviderIcanhazip = "icanhazip"

	ProviderIP2C   = "ip2c"
	ProviderIPInfo = "ipinfo"
	ProviderGeoIP  = "geoip"
)

// Secret keys stored in the keyring.
const (
	// IPInfoTokenKey holds the optional ipinfo.io API token.
	IPInfoTokenKey = "ipinfo-token"
)

// UI constants.
const (
	// TrayIconSize is the size of the system tray icon.
	TrayIconSize = 22
	// NotificationIcon is the freedesktop icon name used for notifications.
	NotificationIcon = "network-workgroup"
)
