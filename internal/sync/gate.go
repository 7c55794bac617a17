package sync

// gatePhase is the edit gate's position in its lifecycle.
type gatePhase int

const (
	// gateIdle: no local edit in progress; fetched snapshots apply.
	gateIdle gatePhase = iota
	// gateEditing: a local edit landed and the debounce is running.
	gateEditing
	// gateSaving: the debounced push is in flight.
	gateSaving
	// gateUnlocking: push settled; holding the gate briefly so the next
	// fetch reflects the write.
	gateUnlocking
)

func (p gatePhase) String() string {
	switch p {
	case gateIdle:
		return "idle"
	case gateEditing:
		return "editing"
	case gateSaving:
		return "saving"
	case gateUnlocking:
		return "unlocking"
	default:
		return "unknown"
	}
}

// gate is the optimistic edit lock. While held, incoming snapshots are
// discarded and the poll clock is not advanced, so local edits can never be
// clobbered by a stale server read. All transitions happen on the controller
// loop goroutine.
type gate struct {
	phase gatePhase
}

func (g *gate) locked() bool {
	return g.phase != gateIdle
}

// edit records a local mutation. Valid from every phase: an edit during
// Saving or Unlocking supersedes the settled push and restarts the debounce.
func (g *gate) edit() {
	g.phase = gateEditing
}

// save moves Editing to Saving when the debounce fires. Returns false if the
// gate is not in Editing, in which case no push should start.
func (g *gate) save() bool {
	if g.phase != gateEditing {
		return false
	}
	g.phase = gateSaving
	return true
}

// settle moves Saving to Unlocking once the push completes without being
// superseded. Returns false otherwise.
func (g *gate) settle() bool {
	if g.phase != gateSaving {
		return false
	}
	g.phase = gateUnlocking
	return true
}

// release drops the gate back to Idle from any phase.
func (g *gate) release() {
	g.phase = gateIdle
}
