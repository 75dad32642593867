// Package ui provides the desktop surfaces of IP to Country Tray.
// This file contains the system tray indicator functionality.
package ui

import (
	"fmt"
	"sync"

	"fyne.io/systray"
	"github.com/yllada/ipcountry-tray/common"
)

// NotificationToggle is the user switch for desktop notifications.
// *monitor.Monitor implements it.
type NotificationToggle interface {
	SetNotificationsEnabled(enabled bool)
	NotificationsEnabled() bool
}

// TrayIndicator manages the system tray icon and menu. It implements
// common.Display; updates that arrive before the tray is ready are applied
// once it is.
type TrayIndicator struct {
	mu         sync.Mutex
	toggle     NotificationToggle
	notifier   *Notifier
	version    string
	onExit     func()
	ready      bool
	ip         string
	country    string
	statusItem *systray.MenuItem
	notifyItem *systray.MenuItem
}

// NewTrayIndicator creates a new system tray indicator. toggle and
// notifier may be nil.
func NewTrayIndicator(toggle NotificationToggle, notifier *Notifier, version string) *TrayIndicator {
	return &TrayIndicator{
		toggle:   toggle,
		notifier: notifier,
		version:  version,
	}
}

// SetToggle binds the notifications checkbox to toggle. Call before Run.
func (t *TrayIndicator) SetToggle(toggle NotificationToggle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toggle = toggle
}

// OnExit registers fn to run when the tray loop ends.
func (t *TrayIndicator) OnExit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExit = fn
}

// Run starts the system tray indicator. It blocks until Quit is called
// or the Quit menu item is clicked.
func (t *TrayIndicator) Run() {
	systray.Run(t.onReady, t.handleExit)
}

// Quit ends the tray loop.
func (t *TrayIndicator) Quit() {
	systray.Quit()
}

// onReady is called when the systray is ready.
func (t *TrayIndicator) onReady() {
	systray.SetTitle(common.AppName)

	t.statusItem = systray.AddMenuItem(statusTitle("", ""), "Current connection")
	t.statusItem.Disable()

	systray.AddSeparator()

	enabled := t.toggle == nil || t.toggle.NotificationsEnabled()
	t.notifyItem = systray.AddMenuItemCheckbox("Show notifications", "Notify when the IP changes", enabled)
	if t.toggle == nil {
		t.notifyItem.Disable()
	}
	go func() {
		for range t.notifyItem.ClickedCh {
			t.toggleNotifications()
		}
	}()

	aboutItem := systray.AddMenuItem("About…", "About "+common.AppName)
	go func() {
		for range aboutItem.ClickedCh {
			if t.notifier != nil {
				t.notifier.NotifyAbout(t.version)
			}
		}
	}()

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Close "+common.AppName)
	go func() {
		for range quitItem.ClickedCh {
			common.LogInfo("Quit requested from tray")
			systray.Quit()
		}
	}()

	t.mu.Lock()
	t.ready = true
	ip, country := t.ip, t.country
	t.mu.Unlock()

	t.render(ip, country)
}

// handleExit is called when the systray is about to exit.
func (t *TrayIndicator) handleExit() {
	t.mu.Lock()
	fn := t.onExit
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
	common.LogInfo("Tray indicator cleanup completed")
}

func (t *TrayIndicator) toggleNotifications() {
	enabled := !t.toggle.NotificationsEnabled()
	t.toggle.SetNotificationsEnabled(enabled)
	if enabled {
		t.notifyItem.Check()
	} else {
		t.notifyItem.Uncheck()
	}
}

// ShowCountry shows the badge for country and the address in the tooltip.
func (t *TrayIndicator) ShowCountry(ip, country string) {
	t.update(ip, common.NormalizeCountry(country))
}

// ShowUnknown shows the unknown badge.
func (t *TrayIndicator) ShowUnknown() {
	t.update("", common.UnknownCountry)
}

func (t *TrayIndicator) update(ip, country string) {
	t.mu.Lock()
	t.ip, t.country = ip, country
	ready := t.ready
	t.mu.Unlock()

	if ready {
		t.render(ip, country)
	}
}

// render applies the state to the tray. An empty country means no poll
// has completed yet.
func (t *TrayIndicator) render(ip, country string) {
	systray.SetIcon(CountryIcon(country))
	systray.SetTooltip(trayTooltip(ip, country))
	if t.statusItem != nil {
		t.statusItem.SetTitle(statusTitle(ip, country))
	}
}

// trayTooltip formats the hover text. Without an address only the
// application name is shown.
func trayTooltip(ip, country string) string {
	if ip == "" {
		return common.AppName
	}
	return fmt.Sprintf("%s\nIP: %s (%s)", common.AppName, ip, common.NormalizeCountry(country))
}

func statusTitle(ip, country string) string {
	if ip == "" {
		if country == "" {
			return "○  Checking…"
		}
		return "○  No internet connection"
	}
	return fmt.Sprintf("●  %s  %s", ip, countryLabel(country))
}
