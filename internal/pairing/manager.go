// Package pairing owns the client's durable identity token, the notion
// of a "paired device", and recovery when the server revokes
// authorization.
package pairing

import (
	"context"
	"fmt"
	"strings"

	"github.com/MattLD13/tickerctl/internal/prefs"
	"github.com/MattLD13/tickerctl/internal/ticker"
)

// Manager performs pairing operations and keeps the persisted latch
// (the device this client believes it owns) in sync with what the
// server confirms.
type Manager struct {
	api       ticker.API
	prefsPath string
}

// NewManager builds a Manager persisting through the prefs file at
// prefsPath.
func NewManager(api ticker.API, prefsPath string) *Manager {
	return &Manager{api: api, prefsPath: prefsPath}
}

// Latch returns the persisted device id, or "" when none is held.
func (m *Manager) Latch() string {
	return prefs.Load(m.prefsPath).DeviceID
}

// PairByCode claims a device with its short pairing code. On success
// the returned device id becomes the latch; on failure no state
// changes and the server-provided message (if any) is surfaced.
func (m *Manager) PairByCode(ctx context.Context, code, name string) (ticker.PairResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return ticker.PairResult{}, fmt.Errorf("pairing code required")
	}
	result, err := m.api.PairByCode(ctx, code, name)
	if err != nil {
		return ticker.PairResult{}, err
	}
	if result.Success {
		m.setLatch(result.DeviceID)
	}
	return result, nil
}

// PairByID claims a device by its known stable id.
func (m *Manager) PairByID(ctx context.Context, id, name string) (ticker.PairResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ticker.PairResult{}, fmt.Errorf("device id required")
	}
	result, err := m.api.PairByID(ctx, id, name)
	if err != nil {
		return ticker.PairResult{}, err
	}
	if result.Success {
		m.setLatch(result.DeviceID)
	}
	return result, nil
}

// Unpair releases a device. The latch is cleared optimistically before
// the request fires and is not restored on transport failure; the next
// roster fetch is the source of truth.
func (m *Manager) Unpair(ctx context.Context, deviceID string) error {
	if m.Latch() == deviceID {
		m.setLatch("")
	}
	return m.api.Unpair(ctx, deviceID)
}

// ReconcileRoster applies the latch policy for a roster event and
// persists the result. It returns the latch value now in effect.
func (m *Manager) ReconcileRoster(outcome RosterOutcome, devices []ticker.Device) string {
	current := m.Latch()
	next := NextLatch(current, outcome, devices)
	if next != current {
		m.setLatch(next)
	}
	return next
}

// HandleForbidden runs the authorization-loss recovery on the latch:
// keeping a latch the server rejects would loop silent write failures.
func (m *Manager) HandleForbidden() {
	m.ReconcileRoster(RosterRejected, nil)
}

func (m *Manager) setLatch(deviceID string) {
	p := prefs.Load(m.prefsPath)
	p.DeviceID = deviceID
	// Best effort; a lost write means re-pairing, not a broken session.
	_ = prefs.Save(m.prefsPath, p)
}
