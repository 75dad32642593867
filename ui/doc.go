// Package ui provides the desktop surfaces of IP to Country Tray.
//
// The package contains:
//
//   - TrayIndicator: the system tray badge, tooltip and menu
//   - Notifier: freedesktop notifications over D-Bus with a notify-send fallback
//   - IconGenerator: country badge icons drawn at runtime
//   - StatusModel: a terminal view of the same state for headless sessions
//
// TrayIndicator and ProgramDisplay implement common.Display and Notifier
// implements common.Notifier, so the monitor never depends on this package.
//
// # Thread Safety
//
// The monitor calls Display and Notifier methods from its polling
// goroutine. TrayIndicator buffers updates that arrive before systray is
// ready; Notifier serialises calls so the replaced notification id stays
// consistent.
//
// # File Organization
//
//   - tray.go: System tray indicator
//   - icons.go: Icon generation for tray
//   - countries.go: Country display names
//   - notifications.go: Desktop notification integration
//   - status.go: Terminal status view
package ui
