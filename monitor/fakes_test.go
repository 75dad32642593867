package monitor

import (
	"context"
	"errors"
	"sync"

	"github.com/yllada/ipcountry-tray/common"
)

// answer is one scripted resolver response.
type answer struct {
	ip  string
	err error
}

// scriptedIPs returns answers in order, repeating the last one.
type scriptedIPs struct {
	mu      sync.Mutex
	answers []answer
	calls   int
}

func newScriptedIPs(answers ...answer) *scriptedIPs {
	return &scriptedIPs{answers: answers}
}

func (s *scriptedIPs) ResolvePublicIP(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.answers) {
		i = len(s.answers) - 1
	}
	s.calls++
	a := s.answers[i]
	return a.ip, a.err
}

func (s *scriptedIPs) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// blockingIPs blocks until the lookup context is done.
type blockingIPs struct {
	started chan struct{}
	once    sync.Once
}

func (b *blockingIPs) ResolvePublicIP(ctx context.Context) (string, error) {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return "", ctx.Err()
}

// countryTable resolves from a map; missing entries fail.
type countryTable struct {
	mu      sync.Mutex
	codes   map[string]string
	lookups []string
}

func (c *countryTable) ResolveCountry(ctx context.Context, ip string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups = append(c.lookups, ip)
	code, ok := c.codes[ip]
	if !ok {
		return "", errors.New("no such address")
	}
	return code, nil
}

func (c *countryTable) Lookups() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lookups...)
}

var errOffline = common.WrapError(common.ErrLookupFailed, "network unreachable")

// recorder implements common.Display and common.Notifier.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) ShowCountry(ip, country string) {
	r.add("show " + ip + " " + country)
}

func (r *recorder) ShowUnknown() {
	r.add("show unknown")
}

func (r *recorder) NotifyDisconnected() {
	r.add("notify disconnected")
}

func (r *recorder) NotifyCountryChanged(ip, country string) {
	r.add("notify " + ip + " " + country)
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}
