// Package common provides shared constants, types, and utilities
// used across the IP Country Tray application.
package common

import "context"

// IPResolver discovers the machine's public IPv4 address.
// Implementations must honour ctx cancellation and deadlines.
type IPResolver interface {
	// ResolvePublicIP returns the public address as a dotted-quad string.
	ResolvePublicIP(ctx context.Context) (string, error)
}

// CountryResolver maps an address to a two-letter country code.
type CountryResolver interface {
	// ResolveCountry returns an ISO 3166-1 alpha-2 code or UnknownCountry.
	ResolveCountry(ctx context.Context, ip string) (string, error)
}

// Display reflects the current connectivity state, e.g. the tray icon.
type Display interface {
	// ShowCountry displays a connected state for ip located in country.
	ShowCountry(ip, country string)
	// ShowUnknown displays the unknown-country sentinel.
	ShowUnknown()
}

// Notifier presents connectivity events to the user.
type Notifier interface {
	// NotifyDisconnected announces that no public address is obtainable.
	NotifyDisconnected()
	// NotifyCountryChanged announces a new public address.
	NotifyCountryChanged(ip, country string)
}

// SecretStore defines the interface for secret storage.
// Implementations may use system keyring, encrypted files, etc.
type SecretStore interface {
	// Get retrieves a secret.
	Get(key string) (string, error)
}

// Logger defines the interface for leveled logging.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...interface{})
	// Info logs an informational message.
	Info(msg string, args ...interface{})
	// Warn logs a warning message.
	Warn(msg string, args ...interface{})
	// Error logs an error message.
	Error(msg string, args ...interface{})
}
