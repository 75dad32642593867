// Package common provides shared constants, types, and utilities
// used across the IP Country Tray application.
package common

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
)

// GetConfigDir returns the path to the application configuration directory.
// It creates the directory if it doesn't exist.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", WrapError(err, "failed to get home directory")
	}

	configDir := filepath.Join(homeDir, ".config", ConfigDirName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", WrapError(err, "failed to create config directory")
	}

	return configDir, nil
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// StringInSlice checks if a string is in a slice.
func StringInSlice(s string, slice []string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}

// NormalizeCountry upper-cases a country code and returns UnknownCountry
// for anything that is not exactly two ASCII letters.
func NormalizeCountry(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return UnknownCountry
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return UnknownCountry
		}
	}
	return code
}

// IsKnownCountry reports whether code is a usable country code.
func IsKnownCountry(code string) bool {
	return NormalizeCountry(code) != UnknownCountry
}

// NormalizeIPv4 validates a public address answer. Empty strings, garbage,
// non-IPv4, unspecified and loopback addresses are rejected with
// ErrInvalidAddress.
func NormalizeIPv4(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty answer", ErrInvalidAddress)
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, raw)
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return "", fmt.Errorf("%w: %s is not IPv4", ErrInvalidAddress, addr)
	}
	if addr.IsUnspecified() || addr.IsLoopback() {
		return "", fmt.Errorf("%w: %s is not a public address", ErrInvalidAddress, addr)
	}
	return addr.String(), nil
}
