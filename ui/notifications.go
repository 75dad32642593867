// Package ui provides the desktop surfaces of IP to Country Tray.
// This file contains the notification system for connectivity events.
package ui

import (
	"fmt"
	"os/exec"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/yllada/ipcountry-tray/common"
)

// NotificationType represents the type of notification
type NotificationType int

const (
	NotificationInfo NotificationType = iota
	NotificationWarning
	NotificationError
)

// urgency maps the type onto the freedesktop urgency levels.
func (t NotificationType) urgency() byte {
	switch t {
	case NotificationError:
		return 2
	case NotificationWarning:
		return 1
	default:
		return 0
	}
}

func (t NotificationType) urgencyName() string {
	switch t {
	case NotificationError:
		return "critical"
	case NotificationWarning:
		return "normal"
	default:
		return "low"
	}
}

// Notification represents a system notification
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	Icon    string
}

// notificationBackend delivers a notification, replacing the one with
// replacesID when it is non-zero, and returns the id of the shown bubble.
type notificationBackend interface {
	Notify(n Notification, replacesID uint32) (uint32, error)
	Close() error
}

// Notifier shows desktop notifications. Every notification replaces the
// previous one so the user sees a single bubble that never expires.
// It implements common.Notifier.
type Notifier struct {
	mu       sync.Mutex
	backend  notificationBackend
	fallback notificationBackend
	lastID   uint32
}

// NewNotifier connects to the session bus. When no bus is available it
// falls back to notify-send.
func NewNotifier() *Notifier {
	n := &Notifier{fallback: execBackend{}}

	backend, err := newDBusBackend()
	if err != nil {
		common.LogWarn("Session bus unavailable, using notify-send: %v", err)
		n.backend = n.fallback
		return n
	}
	n.backend = backend
	return n
}

// Show displays n, replacing the previously shown notification.
func (n *Notifier) Show(notification Notification) {
	if notification.Icon == "" {
		notification.Icon = common.NotificationIcon
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	id, err := n.backend.Notify(notification, n.lastID)
	if err != nil && n.backend != n.fallback && n.fallback != nil {
		common.LogWarn("D-Bus notification failed, trying notify-send: %v", err)
		id, err = n.fallback.Notify(notification, 0)
	}
	if err != nil {
		common.LogError("Error showing notification: %v", err)
		return
	}
	if id != 0 {
		n.lastID = id
	}
}

// NotifyDisconnected shows the connectivity alert.
func (n *Notifier) NotifyDisconnected() {
	n.Show(disconnectedNotification())
}

// NotifyCountryChanged shows the new address and its country.
func (n *Notifier) NotifyCountryChanged(ip, country string) {
	n.Show(countryChangedNotification(ip, country))
}

// NotifyAbout shows the application name and version.
func (n *Notifier) NotifyAbout(version string) {
	n.Show(Notification{
		Title:   "About " + common.AppName,
		Message: fmt.Sprintf("Version %s\nShows the country of your public IP address.", version),
		Type:    NotificationInfo,
	})
}

// Close releases the bus connection.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.backend.Close()
}

func disconnectedNotification() Notification {
	return Notification{
		Title:   "Alert",
		Message: "No internet connection",
		Type:    NotificationWarning,
		Icon:    "network-offline",
	}
}

func countryChangedNotification(ip, country string) Notification {
	return Notification{
		Title:   "IP Changed!",
		Message: fmt.Sprintf("%s\nIP: %s (%s)\n%s", common.AppName, ip, common.NormalizeCountry(country), CountryName(country)),
		Type:    NotificationInfo,
	}
}

const (
	notificationsDest      = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"
	notificationsNotify    = notificationsDest + ".Notify"
	notificationNeverClose = int32(0)
)

type dbusBackend struct {
	conn *dbus.Conn
}

func newDBusBackend() (*dbusBackend, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNotifierUnavailable, err)
	}
	return &dbusBackend{conn: conn}, nil
}

func (b *dbusBackend) Notify(n Notification, replacesID uint32) (uint32, error) {
	obj := b.conn.Object(notificationsDest, dbus.ObjectPath(notificationsPath))
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(n.Type.urgency()),
		"desktop-entry": dbus.MakeVariant(common.AppID),
	}

	call := obj.Call(notificationsNotify, 0,
		common.AppName,
		replacesID,
		n.Icon,
		n.Title,
		n.Message,
		[]string{},
		hints,
		notificationNeverClose,
	)
	if call.Err != nil {
		return 0, call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (b *dbusBackend) Close() error {
	return b.conn.Close()
}

// execBackend shells out to notify-send. It cannot replace bubbles.
type execBackend struct{}

func (execBackend) Notify(n Notification, _ uint32) (uint32, error) {
	cmd := exec.Command("notify-send",
		"--app-name="+common.AppName,
		"--icon="+n.Icon,
		"--urgency="+n.Type.urgencyName(),
		"--expire-time=0",
		n.Title,
		n.Message,
	)
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("%w: notify-send: %v", common.ErrNotifierUnavailable, err)
	}
	return 0, nil
}

func (execBackend) Close() error {
	return nil
}
