package pairing

import "github.com/MattLD13/tickerctl/internal/ticker"

// RosterOutcome classifies what a device-roster event told us, so the
// latch policy can be stated in one place instead of scattered
// conditionals.
type RosterOutcome int

const (
	// RosterUnknown: the fetch failed, the roster is whatever it was.
	RosterUnknown RosterOutcome = iota
	// RosterEmpty: the fetch succeeded and returned zero devices.
	RosterEmpty
	// RosterPopulated: the fetch succeeded with at least one device.
	RosterPopulated
	// RosterRejected: the server answered a write with forbidden.
	RosterRejected
)

// NextLatch computes the latched device id after a roster event.
//
// The latch survives failed fetches (a transient empty response must not
// make the client forget its device) but is cleared the moment the
// server confirms an empty roster or explicitly rejects the identity.
// A populated roster refreshes the latch: if the remembered device is
// still listed it stays, otherwise the first listed device is adopted.
func NextLatch(current string, outcome RosterOutcome, devices []ticker.Device) string {
	switch outcome {
	case RosterEmpty, RosterRejected:
		return ""
	case RosterPopulated:
		for _, d := range devices {
			if d.ID == current {
				return current
			}
		}
		if len(devices) > 0 {
			return devices[0].ID
		}
		return current
	default:
		return current
	}
}

// ResolveTarget picks the device a per-device write applies to: the
// first entry of the live roster, falling back to the latch only when
// the roster is empty. Empty result means "no target".
func ResolveTarget(devices []ticker.Device, latched string) string {
	if len(devices) > 0 {
		return devices[0].ID
	}
	return latched
}
