// Package monitor provides the connectivity monitor for IP Country Tray.
//
// The monitor periodically resolves the machine's public IPv4 address, maps
// it to a country and reports changes to a Display (the tray icon) and a
// Notifier (desktop notifications).
//
// # Architecture
//
//   - State: what the monitor last knew (address, country, alert arming)
//   - Poller: a single check-and-react step, Poll(state) -> (state, events)
//   - Monitor: runs the Poller on a fixed interval and dispatches events
//
// # States
//
// A monitor is Unknown until its first cycle completes, Connected while an
// address is resolvable and Disconnected after an alert fired. Only one
// "no internet" alert is raised per disconnection episode; the next
// successful resolution re-arms it.
//
// # Thread Safety
//
// Cycles run sequentially on a single goroutine per Handle. The only state
// written from outside is the notifications toggle.
package monitor
