package machine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// Caller issues authenticated REST calls. Satisfied by *cloud.Client.
type Caller interface {
	Call(ctx context.Context, method, path string, body []byte) ([]byte, error)
}

// Machine drives one espresso machine by serial number.
//
// Command methods are safe for concurrent use with Apply; the tracked
// state is advisory — the dashboard telemetry is authoritative and
// overwrites it on every document.
type Machine struct {
	serial string
	api    Caller

	mu      sync.RWMutex
	power   bool
	steam   bool
	brewing bool
}

// New creates a Machine bound to the given serial number.
func New(serial string, api Caller) (*Machine, error) {
	if serial == "" {
		return nil, ErrNoSerial
	}
	return &Machine{serial: serial, api: api}, nil
}

// Serial returns the machine serial number.
func (m *Machine) Serial() string {
	return m.serial
}

// SetPower switches the machine between BrewingMode and StandBy.
//
// On success the tracked power state is updated optimistically; the next
// dashboard document confirms or corrects it.
func (m *Machine) SetPower(ctx context.Context, on bool) error {
	mode := "StandBy"
	if on {
		mode = "BrewingMode"
	}
	if err := m.command(ctx, "CoffeeMachineChangeMode", map[string]any{"mode": mode}); err != nil {
		return err
	}

	m.mu.Lock()
	m.power = on
	m.mu.Unlock()
	return nil
}

// TogglePower inverts the tracked power state.
func (m *Machine) TogglePower(ctx context.Context) error {
	return m.SetPower(ctx, !m.PowerOn())
}

// SetSteam enables or disables the steam boiler.
func (m *Machine) SetSteam(ctx context.Context, on bool) error {
	payload := map[string]any{
		"boilerIndex": 1,
		"enabled":     on,
	}
	if err := m.command(ctx, "CoffeeMachineSettingSteamBoilerEnabled", payload); err != nil {
		return err
	}

	m.mu.Lock()
	m.steam = on
	m.mu.Unlock()
	return nil
}

// ToggleSteam inverts the tracked steam boiler state.
func (m *Machine) ToggleSteam(ctx context.Context) error {
	return m.SetSteam(ctx, !m.SteamOn())
}

// command POSTs a named machine command with a JSON payload.
func (m *Machine) command(ctx context.Context, name string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s command: %w", name, err)
	}

	path := "/things/" + m.serial + "/command/" + name
	if _, err := m.api.Call(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("sending %s command: %w", name, err)
	}
	return nil
}

// Apply folds a decoded telemetry snapshot into the tracked state and
// reports whether the power, steam, or brewing flags changed. Documents
// without a machine status widget leave the power and brewing flags alone.
func (m *Machine) Apply(t Telemetry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := false
	if t.HasMachineStatus {
		if power := t.PowerOn(); power != m.power {
			m.power = power
			changed = true
		}
		if t.Brewing != m.brewing {
			m.brewing = t.Brewing
			changed = true
		}
	}
	if t.Steam.Status != "" {
		if steam := t.SteamOn(); steam != m.steam {
			m.steam = steam
			changed = true
		}
	}
	return changed
}

// PowerOn returns the tracked power state.
func (m *Machine) PowerOn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.power
}

// SteamOn returns the tracked steam boiler state.
func (m *Machine) SteamOn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.steam
}

// Brewing returns whether a shot is currently being pulled.
func (m *Machine) Brewing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.brewing
}
