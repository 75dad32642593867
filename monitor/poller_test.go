package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yllada/ipcountry-tray/common"
)

func TestPoll_Scenarios(t *testing.T) {
	countries := map[string]string{"1.2.3.4": "US", "5.6.7.8": "de"}

	tests := []struct {
		name       string
		state      State
		answer     answer
		wantEvents []Event
		wantState  State
	}{
		{
			name:       "unknown to connected",
			state:      NewState(true),
			answer:     answer{ip: "1.2.3.4"},
			wantEvents: []Event{CountryChangedEvent("1.2.3.4", "US")},
			wantState:  State{LastIP: "1.2.3.4", LastCountry: "US", AlertArmed: true, NotificationsEnabled: true},
		},
		{
			name:      "connected same address",
			state:     State{LastIP: "1.2.3.4", LastCountry: "US", AlertArmed: true},
			answer:    answer{ip: "1.2.3.4"},
			wantState: State{LastIP: "1.2.3.4", LastCountry: "US", AlertArmed: true},
		},
		{
			name:       "connected new address",
			state:      State{LastIP: "1.2.3.4", LastCountry: "US", AlertArmed: true},
			answer:     answer{ip: "5.6.7.8"},
			wantEvents: []Event{CountryChangedEvent("5.6.7.8", "DE")},
			wantState:  State{LastIP: "5.6.7.8", LastCountry: "DE", AlertArmed: true},
		},
		{
			name:       "connected to disconnected",
			state:      State{LastIP: "1.2.3.4", LastCountry: "US", AlertArmed: true},
			answer:     answer{err: errOffline},
			wantEvents: []Event{DisconnectedEvent()},
			wantState:  State{},
		},
		{
			name:      "disconnected stays silent",
			state:     State{},
			answer:    answer{err: errOffline},
			wantState: State{},
		},
		{
			name:       "unknown to disconnected",
			state:      NewState(false),
			answer:     answer{err: errOffline},
			wantEvents: []Event{DisconnectedEvent()},
			wantState:  State{},
		},
		{
			name:       "empty address is absent",
			state:      State{LastIP: "1.2.3.4", LastCountry: "US", AlertArmed: true},
			answer:     answer{ip: ""},
			wantEvents: []Event{DisconnectedEvent()},
			wantState:  State{},
		},
		{
			name:       "garbage address is absent",
			state:      NewState(true),
			answer:     answer{ip: "<html>rate limited</html>"},
			wantEvents: []Event{DisconnectedEvent()},
			wantState:  State{NotificationsEnabled: true},
		},
		{
			name:       "country lookup failure",
			state:      NewState(true),
			answer:     answer{ip: "9.9.9.9"},
			wantEvents: []Event{CountryChangedEvent("9.9.9.9", common.UnknownCountry)},
			wantState:  State{LastIP: "9.9.9.9", LastCountry: common.UnknownCountry, AlertArmed: true, NotificationsEnabled: true},
		},
		{
			name:       "disconnected to connected",
			state:      State{},
			answer:     answer{ip: "1.2.3.4"},
			wantEvents: []Event{CountryChangedEvent("1.2.3.4", "US")},
			wantState:  State{LastIP: "1.2.3.4", LastCountry: "US", AlertArmed: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPoller(newScriptedIPs(tt.answer), &countryTable{codes: countries}, time.Second)

			next, events := p.Poll(context.Background(), tt.state)

			assert.Equal(t, tt.wantEvents, events)
			assert.Equal(t, tt.wantState, next)
		})
	}
}

func TestPoll_SameAddressEmitsOnce(t *testing.T) {
	ips := newScriptedIPs(answer{ip: "1.2.3.4"})
	countries := &countryTable{codes: map[string]string{"1.2.3.4": "US"}}
	p := NewPoller(ips, countries, time.Second)

	state := NewState(true)
	var all []Event
	for i := 0; i < 10; i++ {
		var events []Event
		state, events = p.Poll(context.Background(), state)
		all = append(all, events...)
	}

	assert.Equal(t, []Event{CountryChangedEvent("1.2.3.4", "US")}, all)
	assert.Equal(t, []string{"1.2.3.4"}, countries.Lookups(), "country should be resolved only once")
}

func TestPoll_OneAlertPerOutage(t *testing.T) {
	for _, n := range []int{1, 2, 5, 20} {
		ips := newScriptedIPs(answer{err: errOffline})
		p := NewPoller(ips, &countryTable{}, time.Second)

		state := State{LastIP: "1.2.3.4", LastCountry: "US", AlertArmed: true}
		alerts := 0
		for i := 0; i < n; i++ {
			var events []Event
			state, events = p.Poll(context.Background(), state)
			for _, e := range events {
				require.Equal(t, EventDisconnected, e.Kind)
				alerts++
			}
		}

		assert.Equal(t, 1, alerts, "n=%d", n)
		assert.False(t, state.AlertArmed)
		assert.Equal(t, StatusDisconnected, state.Status())
	}
}

func TestPoll_ReconnectRearms(t *testing.T) {
	ips := newScriptedIPs(
		answer{ip: "1.2.3.4"},
		answer{err: errOffline},
		answer{err: errOffline},
		answer{ip: "1.2.3.4"},
		answer{ip: "1.2.3.4"},
		answer{err: errOffline},
	)
	p := NewPoller(ips, &countryTable{codes: map[string]string{"1.2.3.4": "US"}}, time.Second)

	state := NewState(true)
	var got [][]Event
	for i := 0; i < 6; i++ {
		var events []Event
		state, events = p.Poll(context.Background(), state)
		got = append(got, events)
	}

	want := [][]Event{
		{CountryChangedEvent("1.2.3.4", "US")},
		{DisconnectedEvent()},
		nil,
		{CountryChangedEvent("1.2.3.4", "US")},
		nil,
		{DisconnectedEvent()},
	}
	assert.Equal(t, want, got)
}

func TestPoll_EmptyAddressSkipsCountryLookup(t *testing.T) {
	countries := &countryTable{codes: map[string]string{}}
	p := NewPoller(newScriptedIPs(answer{ip: "  "}), countries, time.Second)

	_, events := p.Poll(context.Background(), NewState(true))

	assert.Equal(t, []Event{DisconnectedEvent()}, events)
	assert.Empty(t, countries.Lookups())
}

func TestPoll_TimeoutIsAbsent(t *testing.T) {
	ips := &blockingIPs{started: make(chan struct{})}
	p := NewPoller(ips, &countryTable{}, 20*time.Millisecond)

	start := time.Now()
	next, events := p.Poll(context.Background(), NewState(true))

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []Event{DisconnectedEvent()}, events)
	assert.False(t, next.AlertArmed)
}

func TestResolve(t *testing.T) {
	p := NewPoller(newScriptedIPs(answer{ip: " 1.2.3.4\n"}),
		&countryTable{codes: map[string]string{"1.2.3.4": "us"}}, time.Second)

	result, err := p.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PollResult{IP: "1.2.3.4", Country: "US"}, result)
	assert.True(t, result.Connected())

	ips := &blockingIPs{started: make(chan struct{})}
	p = NewPoller(ips, nil, 10*time.Millisecond)
	_, err = p.Resolve(context.Background())
	assert.True(t, errors.Is(err, common.ErrLookupTimeout), "got %v", err)
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusUnknown, "Unknown"},
		{StatusConnected, "Connected"},
		{StatusDisconnected, "Disconnected"},
		{Status(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.status.String(); got != tt.expected {
				t.Errorf("Status.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_Status(t *testing.T) {
	assert.Equal(t, StatusUnknown, NewState(true).Status())
	assert.Equal(t, StatusConnected, State{LastIP: "1.2.3.4", AlertArmed: true}.Status())
	assert.Equal(t, StatusDisconnected, State{}.Status())
}

func TestEvent_String(t *testing.T) {
	assert.Equal(t, "Disconnected", DisconnectedEvent().String())
	assert.Equal(t, "CountryChanged(1.2.3.4, US)", CountryChangedEvent("1.2.3.4", "US").String())
}
