package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/yllada/ipcountry-tray/common"
)

// Listener observes every event after it has been dispatched to the sinks.
type Listener func(Event)

// Monitor runs a Poller on a fixed interval and forwards its events to the
// injected Display and Notifier.
type Monitor struct {
	mu        sync.Mutex
	poller    *Poller
	interval  time.Duration
	display   common.Display
	notifier  common.Notifier
	listeners []Listener
	state     State
	active    *Handle
}

// Handle controls one running monitor loop.
type Handle struct {
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
	stopped atomic.Bool
}

// Stop cancels future polling and waits for the loop to exit. An in-flight
// cycle is cancelled and its result discarded. Safe to call more than once.
// Must not be called synchronously from a Display, Notifier or Listener.
func (h *Handle) Stop() {
	h.once.Do(func() {
		h.stopped.Store(true)
		h.cancel()
	})
	<-h.done
}

// Done is closed once the loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// New creates a monitor. Nil sinks are allowed and ignored.
func New(poller *Poller, interval time.Duration, display common.Display, notifier common.Notifier) *Monitor {
	if interval <= 0 {
		interval = common.PollInterval
	}
	return &Monitor{
		poller:   poller,
		interval: interval,
		display:  display,
		notifier: notifier,
		state:    NewState(true),
	}
}

// AddListener registers l for every dispatched event.
func (m *Monitor) AddListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// SetNotificationsEnabled is the user toggle for desktop notifications.
func (m *Monitor) SetNotificationsEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.NotificationsEnabled = enabled
	common.LogInfo("Notifications enabled: %v", enabled)
}

// NotificationsEnabled returns the current toggle value.
func (m *Monitor) NotificationsEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.NotificationsEnabled
}

// State returns a copy of the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Interval returns the polling interval.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Start begins periodic polling from initial. One cycle runs immediately,
// the rest on every interval tick. Cancelling ctx has the same effect as
// Handle.Stop except that it does not wait.
func (m *Monitor) Start(ctx context.Context, initial State) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, common.ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.active = h
	m.state = initial

	common.LogInfo("Monitor started (interval: %v, lookup timeout: %v)", m.interval, m.poller.Timeout())

	go m.run(loopCtx, h)
	return h, nil
}

// Stop stops the running loop, if any.
func (m *Monitor) Stop() {
	m.mu.Lock()
	h := m.active
	m.mu.Unlock()
	if h != nil {
		h.Stop()
	}
}

// IsRunning returns whether a loop is active.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// run is the polling loop.
func (m *Monitor) run(ctx context.Context, h *Handle) {
	defer close(h.done)
	defer m.release(h)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.cycle(ctx, h)

	for {
		select {
		case <-ctx.Done():
			common.LogInfo("Monitor stopped")
			return
		case <-ticker.C:
			m.cycle(ctx, h)
		}
	}
}

// release clears the active handle once its loop has exited.
func (m *Monitor) release(h *Handle) {
	h.stopped.Store(true)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == h {
		m.active = nil
	}
}

// cycle performs one poll, applies the resulting state and dispatches events.
func (m *Monitor) cycle(ctx context.Context, h *Handle) {
	id := uuid.NewString()[:8]
	ctx = withCycleID(ctx, id)

	m.mu.Lock()
	current := m.state
	m.mu.Unlock()

	next, events := m.poller.Poll(ctx, current)

	m.mu.Lock()
	if h.stopped.Load() || ctx.Err() != nil {
		m.mu.Unlock()
		common.LogDebug("[%s] discarding result of cancelled cycle", id)
		return
	}
	// The toggle may have changed while the lookups were running.
	next.NotificationsEnabled = m.state.NotificationsEnabled
	m.state = next
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, event := range events {
		if h.stopped.Load() {
			return
		}
		common.LogInfo("[%s] %s", id, event)
		m.dispatch(event, next.NotificationsEnabled)
		for _, l := range listeners {
			l(event)
		}
	}
}

// dispatch forwards an event to the sinks.
func (m *Monitor) dispatch(event Event, notify bool) {
	switch event.Kind {
	case EventDisconnected:
		if m.display != nil {
			m.display.ShowUnknown()
		}
		if notify && m.notifier != nil {
			m.notifier.NotifyDisconnected()
		}
	case EventCountryChanged:
		if m.display != nil {
			m.display.ShowCountry(event.IP, event.Country)
		}
		if notify && m.notifier != nil {
			m.notifier.NotifyCountryChanged(event.IP, event.Country)
		}
	}
}
