package sync

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/MattLD13/tickerctl/internal/pairing"
	"github.com/MattLD13/tickerctl/internal/state"
	"github.com/MattLD13/tickerctl/internal/ticker"
)

// offlineAfter is how many consecutive state-fetch failures mark the
// connection offline.
const offlineAfter = 2

// Timing groups the controller's durations so tests can shrink them without
// touching the rules they drive.
type Timing struct {
	// Debounce is the quiet period after the last edit before pushing.
	Debounce time.Duration
	// GraceBurst is the unlock hold while a burst window is active.
	GraceBurst time.Duration
	// GraceIdle is the unlock hold otherwise.
	GraceIdle time.Duration
	// PollUnit is the scheduler unit; poll tiers are multiples of it.
	PollUnit time.Duration
	// LoopTick is the cadence of the scheduler sweep.
	LoopTick time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Debounce:   1500 * time.Millisecond,
		GraceBurst: 300 * time.Millisecond,
		GraceIdle:  2500 * time.Millisecond,
		PollUnit:   time.Second,
		LoopTick:   250 * time.Millisecond,
	}
}

// Loop events. Network completions are marshalled back onto the loop so all
// session mutation happens on one goroutine.
type (
	mutateMsg struct {
		apply func(*ticker.Settings)
	}
	fetchNowMsg      struct{}
	fetchDevicesMsg  struct{}
	deviceSettingMsg struct {
		deviceID string
		patch    ticker.DevicePatch
	}
	unpairedMsg struct {
		deviceID string
	}
	stateFetchedMsg struct {
		settings ticker.Settings
		items    int
		err      error
	}
	devicesFetchedMsg struct {
		devices []ticker.Device
		err     error
	}
	pushDoneMsg struct {
		seq  uint64
		hash uint64
		err  error
	}
)

// Controller owns the synchronization session: it polls the server on the
// scheduler's cadence, serializes local edits through the edit gate, and
// publishes snapshots to a state.Store for readers on other goroutines.
type Controller struct {
	api    ticker.API
	pairs  *pairing.Manager
	store  *state.Store
	timing Timing

	events chan any
	done   chan struct{}

	// Everything below is owned by the run loop.
	settings    ticker.Settings
	hasSettings bool
	devices     []ticker.Device
	itemCount   int
	failures    int
	serverOK    bool
	lastErr     error

	gate     gate
	sched    scheduler
	pushSeq  uint64
	inFlight int
	lastAck  uint64
	hasAck   bool

	debounce *time.Timer
	grace    *time.Timer
}

func New(api ticker.API, pairs *pairing.Manager, store *state.Store, timing Timing) *Controller {
	if timing.Debounce <= 0 {
		timing = DefaultTiming()
	}
	return &Controller{
		api:    api,
		pairs:  pairs,
		store:  store,
		timing: timing,
		events: make(chan any, 32),
		done:   make(chan struct{}),
		sched:  newScheduler(timing.PollUnit),
	}
}

// Start launches the run loop. It returns immediately; the loop exits when
// ctx is cancelled, after which Done is closed.
func (c *Controller) Start(ctx context.Context) {
	go c.run(ctx)
}

// Done reports loop shutdown.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Session returns the latest published snapshot.
func (c *Controller) Session() state.Session {
	return c.store.Session()
}

// Mutate applies a local edit to the canonical settings on the loop
// goroutine. The edit takes effect immediately in published snapshots and is
// pushed after the debounce quiet period.
func (c *Controller) Mutate(apply func(*ticker.Settings)) {
	c.send(mutateMsg{apply: apply})
}

// FetchNow requests an immediate state fetch, subject to the edit gate.
func (c *Controller) FetchNow() {
	c.send(fetchNowMsg{})
}

// FetchDevices requests an immediate device-roster fetch.
func (c *Controller) FetchDevices() {
	c.send(fetchDevicesMsg{})
}

// UpdateDeviceSetting applies a hardware-settings patch to one device. It
// bypasses the edit gate: the patch is applied optimistically to the local
// roster and sent fire-and-forget.
func (c *Controller) UpdateDeviceSetting(deviceID string, patch ticker.DevicePatch) {
	if patch.IsZero() {
		return
	}
	c.send(deviceSettingMsg{deviceID: deviceID, patch: patch})
}

// PairByCode pairs through the pairing manager and, on success, refreshes
// the roster and state.
func (c *Controller) PairByCode(ctx context.Context, code, name string) (ticker.PairResult, error) {
	res, err := c.pairs.PairByCode(ctx, code, name)
	if err == nil && res.Success {
		c.FetchDevices()
		c.FetchNow()
	}
	return res, err
}

// PairByID is PairByCode for a known device id.
func (c *Controller) PairByID(ctx context.Context, id, name string) (ticker.PairResult, error) {
	res, err := c.pairs.PairByID(ctx, id, name)
	if err == nil && res.Success {
		c.FetchDevices()
		c.FetchNow()
	}
	return res, err
}

// Unpair releases a device. The local roster entry is dropped immediately
// so the session reflects the unpair even when the follow-up roster refresh
// fails.
func (c *Controller) Unpair(ctx context.Context, deviceID string) error {
	c.send(unpairedMsg{deviceID: deviceID})
	err := c.pairs.Unpair(ctx, deviceID)
	c.FetchDevices()
	return err
}

// SendDebug forwards the debug toggle to the server.
func (c *Controller) SendDebug(ctx context.Context, debugMode bool, customDate string) error {
	return c.api.SendDebug(ctx, debugMode, customDate)
}

// Reboot asks the server to reboot a device.
func (c *Controller) Reboot(ctx context.Context, deviceID string) error {
	return c.api.Reboot(ctx, deviceID)
}

func (c *Controller) send(ev any) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)

	tick := time.NewTicker(c.timing.LoopTick)
	defer tick.Stop()

	c.sweep(ctx, time.Now())
	for {
		var debounceC, graceC <-chan time.Time
		if c.debounce != nil {
			debounceC = c.debounce.C
		}
		if c.grace != nil {
			graceC = c.grace.C
		}
		select {
		case <-ctx.Done():
			c.stopTimer(&c.debounce)
			c.stopTimer(&c.grace)
			return
		case now := <-tick.C:
			c.sweep(ctx, now)
		case <-debounceC:
			c.debounce = nil
			c.onDebounce(ctx)
		case <-graceC:
			c.grace = nil
			c.onGraceExpired(ctx)
		case ev := <-c.events:
			c.handle(ctx, ev)
		}
	}
}

// sweep runs the scheduler's due checks. A held gate or in-flight push skips
// the state fetch without advancing the poll clock.
func (c *Controller) sweep(ctx context.Context, now time.Time) {
	if c.sched.devicesDue(now) {
		c.sched.markDevices(now)
		c.fetchDevices(ctx)
	}
	if c.gate.locked() || c.inFlight > 0 {
		return
	}
	if c.sched.stateDue(c.settings.Mode, now) {
		c.sched.markState(now)
		c.fetchState(ctx)
	}
}

func (c *Controller) handle(ctx context.Context, ev any) {
	switch ev := ev.(type) {
	case mutateMsg:
		c.onMutate(ev.apply)
	case fetchNowMsg:
		if c.gate.locked() || c.inFlight > 0 {
			return
		}
		c.sched.markState(time.Now())
		c.fetchState(ctx)
	case fetchDevicesMsg:
		c.sched.markDevices(time.Now())
		c.fetchDevices(ctx)
	case deviceSettingMsg:
		c.onDeviceSetting(ctx, ev)
	case unpairedMsg:
		c.onUnpaired(ev.deviceID)
	case stateFetchedMsg:
		c.onStateFetched(ev)
	case devicesFetchedMsg:
		c.onDevicesFetched(ev)
	case pushDoneMsg:
		c.onPushDone(ev)
	}
}

func (c *Controller) onMutate(apply func(*ticker.Settings)) {
	prevMode := c.settings.Mode
	apply(&c.settings)
	c.settings.Mode = ticker.NormalizeMode(c.settings.Mode)
	c.hasSettings = true
	if c.settings.Mode != prevMode {
		c.sched.burst(time.Now())
	}

	c.gate.edit()
	c.stopTimer(&c.grace)
	c.resetTimer(&c.debounce, c.timing.Debounce)
	c.publish()
}

// onDebounce fires when the quiet period after the last edit elapses. A push
// whose body hashes to the last acknowledged one is skipped outright.
func (c *Controller) onDebounce(ctx context.Context) {
	if !c.gate.save() {
		return
	}
	target := pairing.ResolveTarget(c.devices, c.pairs.Latch())
	body := c.settings.Clone()
	body.TargetDeviceID = target
	hash, err := hashstructure.Hash(body, hashstructure.FormatV2, nil)
	if err == nil && c.hasAck && hash == c.lastAck {
		c.gate.release()
		c.publish()
		return
	}

	c.pushSeq++
	seq := c.pushSeq
	c.inFlight++
	go func() {
		pushErr := c.api.PushSettings(ctx, target, body)
		c.send(pushDoneMsg{seq: seq, hash: hash, err: pushErr})
	}()
}

func (c *Controller) onPushDone(ev pushDoneMsg) {
	c.inFlight--

	if ev.err != nil {
		if errors.Is(ev.err, ticker.ErrForbidden) {
			// The server no longer recognizes this client for the
			// target device. Forget the pairing; never retry the push.
			log.Printf("push rejected, clearing pairing: %v", ev.err)
			c.pairs.HandleForbidden()
			c.devices = nil
			c.gate.release()
			c.lastErr = ev.err
			c.publish()
			return
		}
		// Transport or server failure: the push is not resent. The
		// reconciliation fetch after unlock reveals whether it landed.
		log.Printf("settings push failed: %v", ev.err)
		c.lastErr = ev.err
	} else {
		c.lastAck = ev.hash
		c.hasAck = true
		c.lastErr = nil
	}

	// A completion from a superseded push, or one arriving after a newer
	// edit moved the gate back to Editing, must not unlock.
	if ev.seq != c.pushSeq || !c.gate.settle() {
		return
	}
	grace := c.timing.GraceIdle
	if c.sched.inBurst(time.Now()) {
		grace = c.timing.GraceBurst
	}
	c.resetTimer(&c.grace, grace)
}

// onGraceExpired releases the gate and forces a reconciliation fetch so the
// next published snapshot reflects the server's view of the write.
func (c *Controller) onGraceExpired(ctx context.Context) {
	if c.gate.phase != gateUnlocking {
		return
	}
	c.gate.release()
	c.publish()
	c.sched.markState(time.Now())
	c.fetchState(ctx)
}

func (c *Controller) onDeviceSetting(ctx context.Context, ev deviceSettingMsg) {
	for i := range c.devices {
		if c.devices[i].ID == ev.deviceID {
			ev.patch.Apply(&c.devices[i].Settings)
			break
		}
	}
	go func() {
		if err := c.api.PushDeviceSettings(ctx, ev.deviceID, ev.patch); err != nil {
			log.Printf("device settings push failed: %v", err)
		}
	}()
	c.publish()
}

func (c *Controller) onUnpaired(deviceID string) {
	kept := make([]ticker.Device, 0, len(c.devices))
	for _, d := range c.devices {
		if d.ID != deviceID {
			kept = append(kept, d)
		}
	}
	c.devices = kept
	c.publish()
}

func (c *Controller) onStateFetched(ev stateFetchedMsg) {
	// A snapshot that raced a local edit is stale by definition.
	if c.gate.locked() || c.inFlight > 0 {
		return
	}
	if ev.err != nil {
		if ticker.IsDecode(ev.err) {
			// The server answered but the payload was malformed. Held
			// settings stay untouched and connectivity is preserved.
			c.serverOK = true
			c.failures = 0
		} else {
			c.failures++
			if c.failures >= offlineAfter {
				c.serverOK = false
			}
		}
		c.lastErr = ev.err
		c.publish()
		return
	}
	c.settings = ev.settings
	c.hasSettings = true
	c.itemCount = ev.items
	c.failures = 0
	c.serverOK = true
	c.lastErr = nil
	c.publish()
}

func (c *Controller) onDevicesFetched(ev devicesFetchedMsg) {
	if ev.err != nil {
		outcome := pairing.RosterUnknown
		if errors.Is(ev.err, ticker.ErrForbidden) {
			outcome = pairing.RosterRejected
			c.devices = nil
		}
		c.pairs.ReconcileRoster(outcome, nil)
		c.publish()
		return
	}
	c.devices = ev.devices
	outcome := pairing.RosterPopulated
	if len(ev.devices) == 0 {
		outcome = pairing.RosterEmpty
	}
	c.pairs.ReconcileRoster(outcome, ev.devices)
	c.publish()
}

func (c *Controller) fetchState(ctx context.Context) {
	target := pairing.ResolveTarget(c.devices, c.pairs.Latch())
	go func() {
		settings, items, err := c.api.FetchState(ctx, target)
		c.send(stateFetchedMsg{settings: settings, items: len(items), err: err})
	}()
}

func (c *Controller) fetchDevices(ctx context.Context) {
	go func() {
		devices, err := c.api.FetchDevices(ctx)
		c.send(devicesFetchedMsg{devices: devices, err: err})
	}()
}

func (c *Controller) publish() {
	c.store.Publish(state.Session{
		Settings:            c.settings,
		HasSettings:         c.hasSettings,
		Devices:             c.devices,
		ItemCount:           c.itemCount,
		Connectivity:        c.connectivity(),
		Editing:             c.gate.locked(),
		LastError:           c.lastErr,
		ConsecutiveFailures: c.failures,
	})
}

func (c *Controller) connectivity() state.Connectivity {
	if !c.serverOK || c.failures >= offlineAfter {
		return state.Offline
	}
	if pairing.ResolveTarget(c.devices, c.pairs.Latch()) == "" {
		return state.ServerOnly
	}
	return state.Connected
}

func (c *Controller) resetTimer(t **time.Timer, d time.Duration) {
	c.stopTimer(t)
	*t = time.NewTimer(d)
}

func (c *Controller) stopTimer(t **time.Timer) {
	if *t == nil {
		return
	}
	if !(*t).Stop() {
		select {
		case <-(*t).C:
		default:
		}
	}
	*t = nil
}
