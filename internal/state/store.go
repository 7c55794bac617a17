// Package state provides the shared, thread-safe view of the sync
// session. The controller is the only writer; the CLI and TUI read
// immutable snapshots.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/MattLD13/tickerctl/internal/ticker"
)

// Connectivity is the condensed health signal surfaced to the UI in
// place of raw transport or decode errors.
type Connectivity int

const (
	// Offline: the server is unreachable.
	Offline Connectivity = iota
	// ServerOnly: the server answers but no paired device is known.
	ServerOnly
	// Connected: the server answers and a target device is resolved.
	Connected
)

func (c Connectivity) String() string {
	switch c {
	case ServerOnly:
		return "server-only"
	case Connected:
		return "connected"
	default:
		return "offline"
	}
}

// Session is the latest view of the synchronized state. Settings is
// always the newest value that is either server-confirmed or locally
// pending save; after the first successful fetch it is never absent.
type Session struct {
	Settings    ticker.Settings
	HasSettings bool
	Devices     []ticker.Device
	ItemCount   int

	Connectivity Connectivity
	Editing      bool

	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has been unreachable for multiple
// polls in a row.
func (s Session) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// StatusLine renders the dashboard health summary.
func (s Session) StatusLine() string {
	switch s.Connectivity {
	case Connected:
		return fmt.Sprintf("Connected • %d items", s.ItemCount)
	case ServerOnly:
		return "Server reachable • no device paired"
	default:
		return "Offline"
	}
}

// Store coordinates concurrent access to the session snapshot.
type Store struct {
	mu      sync.RWMutex
	session Session
}

// Publish replaces the stored session wholesale.
func (s *Store) Publish(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.LastUpdated = time.Now()
	s.session = session
}

// Session returns a copy of the current session, independent of the
// stored one.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := s.session
	session.Settings = s.session.Settings.Clone()
	session.Devices = cloneDevices(s.session.Devices)
	if s.session.LastError != nil {
		session.LastError = fmt.Errorf("%w", s.session.LastError)
	}
	return session
}

func cloneDevices(devices []ticker.Device) []ticker.Device {
	if len(devices) == 0 {
		return nil
	}
	dup := make([]ticker.Device, len(devices))
	copy(dup, devices)
	return dup
}
