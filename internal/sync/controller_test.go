package sync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MattLD13/tickerctl/internal/pairing"
	"github.com/MattLD13/tickerctl/internal/prefs"
	"github.com/MattLD13/tickerctl/internal/state"
	"github.com/MattLD13/tickerctl/internal/ticker"
)

func testTiming() Timing {
	return Timing{
		Debounce:   15 * time.Millisecond,
		GraceBurst: 5 * time.Millisecond,
		GraceIdle:  25 * time.Millisecond,
		PollUnit:   10 * time.Millisecond,
		LoopTick:   2 * time.Millisecond,
	}
}

// fakeAPI is a scriptable ticker.API. Responses are guarded by a mutex
// because the controller calls it from short-lived goroutines.
type fakeAPI struct {
	mu sync.Mutex

	stateSettings ticker.Settings
	stateItems    []ticker.FeedItem
	stateErr      error
	stateBlock    chan struct{}

	devices    []ticker.Device
	devicesErr error

	pushErr     error
	pushes      []ticker.Settings
	pushTargets []string

	devicePushes []ticker.DevicePatch
	deviceIDs    []string
}

var _ ticker.API = (*fakeAPI)(nil)

func (f *fakeAPI) FetchState(ctx context.Context, deviceID string) (ticker.Settings, []ticker.FeedItem, error) {
	f.mu.Lock()
	block := f.stateBlock
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ticker.Settings{}, nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stateErr != nil {
		return ticker.DefaultSettings(), nil, f.stateErr
	}
	return f.stateSettings.Clone(), f.stateItems, nil
}

func (f *fakeAPI) FetchCategories(ctx context.Context) ([]ticker.Category, error) {
	return nil, nil
}

func (f *fakeAPI) FetchTeams(ctx context.Context) (map[string][]ticker.TeamEntry, error) {
	return nil, nil
}

func (f *fakeAPI) FetchDevices(ctx context.Context) ([]ticker.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.devicesErr != nil {
		return nil, f.devicesErr
	}
	return append([]ticker.Device(nil), f.devices...), nil
}

func (f *fakeAPI) PushSettings(ctx context.Context, deviceID string, settings ticker.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, settings)
	f.pushTargets = append(f.pushTargets, deviceID)
	if f.pushErr != nil {
		return f.pushErr
	}
	// An accepted push is durable: later fetches serve it back.
	f.stateSettings = settings.Clone()
	return nil
}

func (f *fakeAPI) PushDeviceSettings(ctx context.Context, deviceID string, patch ticker.DevicePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devicePushes = append(f.devicePushes, patch)
	f.deviceIDs = append(f.deviceIDs, deviceID)
	return nil
}

func (f *fakeAPI) FetchServerLog(ctx context.Context) (string, error) { return "", nil }

func (f *fakeAPI) PairByCode(ctx context.Context, code, name string) (ticker.PairResult, error) {
	return ticker.PairResult{Success: true, DeviceID: "tick-1"}, nil
}

func (f *fakeAPI) PairByID(ctx context.Context, id, name string) (ticker.PairResult, error) {
	return ticker.PairResult{Success: true, DeviceID: id}, nil
}

func (f *fakeAPI) Unpair(ctx context.Context, deviceID string) error { return nil }

func (f *fakeAPI) SendDebug(ctx context.Context, debugMode bool, customDate string) error {
	return nil
}

func (f *fakeAPI) Reboot(ctx context.Context, deviceID string) error { return nil }

func (f *fakeAPI) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

func (f *fakeAPI) lastPush() (ticker.Settings, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pushes) == 0 {
		return ticker.Settings{}, ""
	}
	return f.pushes[len(f.pushes)-1], f.pushTargets[len(f.pushTargets)-1]
}

func startController(t *testing.T, api ticker.API) (*Controller, *pairing.Manager, string) {
	t.Helper()
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	pairs := pairing.NewManager(api, prefsPath)
	ctrl := New(api, pairs, &state.Store{}, testTiming())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		<-ctrl.Done()
	})
	ctrl.Start(ctx)
	return ctrl, pairs, prefsPath
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestController_DebounceCoalescesEdits(t *testing.T) {
	api := &fakeAPI{stateSettings: ticker.DefaultSettings()}
	ctrl, _, _ := startController(t, api)

	waitFor(t, "initial fetch", func() bool {
		return ctrl.Session().HasSettings
	})

	// A user typing "Austin" produces a burst of edits; only the final
	// value may be pushed, exactly once.
	for _, city := range []string{"A", "Au", "Aus", "Austi", "Austin"} {
		city := city
		ctrl.Mutate(func(s *ticker.Settings) { s.WeatherCity = city })
		time.Sleep(3 * time.Millisecond)
	}

	waitFor(t, "push", func() bool { return api.pushCount() > 0 })
	waitFor(t, "unlock", func() bool { return !ctrl.Session().Editing })

	if got := api.pushCount(); got != 1 {
		t.Fatalf("pushes = %d, want 1", got)
	}
	pushed, _ := api.lastPush()
	if pushed.WeatherCity != "Austin" {
		t.Fatalf("pushed city = %q, want Austin", pushed.WeatherCity)
	}
	if got := ctrl.Session().Settings.WeatherCity; got != "Austin" {
		t.Fatalf("session city = %q, want Austin", got)
	}
}

func TestController_TeamTogglesCoalesce(t *testing.T) {
	api := &fakeAPI{stateSettings: ticker.DefaultSettings()}
	ctrl, _, _ := startController(t, api)

	waitFor(t, "initial fetch", func() bool {
		return ctrl.Session().HasSettings
	})

	for _, team := range []string{"nfl:NYG", "nfl:BUF", "nfl:DAL"} {
		team := team
		ctrl.Mutate(func(s *ticker.Settings) { s.ToggleTeam(team) })
		time.Sleep(3 * time.Millisecond)
	}

	waitFor(t, "push", func() bool { return api.pushCount() > 0 })
	if got := api.pushCount(); got != 1 {
		t.Fatalf("pushes = %d, want 1", got)
	}
	pushed, _ := api.lastPush()
	if len(pushed.MyTeams) != 3 {
		t.Fatalf("pushed teams = %v, want all three", pushed.MyTeams)
	}
	for _, team := range []string{"nfl:NYG", "nfl:BUF", "nfl:DAL"} {
		if !pushed.HasTeam(team) {
			t.Errorf("pushed teams missing %s: %v", team, pushed.MyTeams)
		}
	}
}

func TestController_EditWinsOverStaleFetch(t *testing.T) {
	serverSettings := ticker.DefaultSettings()
	serverSettings.WeatherCity = "Server"
	api := &fakeAPI{stateSettings: serverSettings}
	ctrl, _, _ := startController(t, api)

	waitFor(t, "initial fetch", func() bool {
		s := ctrl.Session()
		return s.HasSettings && s.Settings.WeatherCity == "Server"
	})

	// Hold the next fetch open so its result arrives mid-edit.
	block := make(chan struct{})
	api.mu.Lock()
	api.stateBlock = block
	api.mu.Unlock()

	ctrl.Mutate(func(s *ticker.Settings) { s.WeatherCity = "Local" })
	waitFor(t, "edit visible", func() bool {
		s := ctrl.Session()
		return s.Editing && s.Settings.WeatherCity == "Local"
	})

	close(block)
	time.Sleep(10 * time.Millisecond)

	if got := ctrl.Session().Settings.WeatherCity; got != "Local" {
		t.Fatalf("stale fetch overwrote edit: city = %q, want Local", got)
	}
}

func TestController_ReconcileFetchFollowsUnlock(t *testing.T) {
	api := &fakeAPI{stateSettings: ticker.DefaultSettings()}
	ctrl, _, _ := startController(t, api)

	waitFor(t, "initial fetch", func() bool {
		return ctrl.Session().HasSettings
	})

	ctrl.Mutate(func(s *ticker.Settings) { s.ScrollSpeed = 9 })
	waitFor(t, "push", func() bool { return api.pushCount() == 1 })
	waitFor(t, "unlock", func() bool { return !ctrl.Session().Editing })
	waitFor(t, "reconcile fetch", func() bool {
		s := ctrl.Session()
		return !s.Editing && s.LastError == nil
	})
}

func TestController_SkipsNoopPush(t *testing.T) {
	api := &fakeAPI{stateSettings: ticker.DefaultSettings()}
	ctrl, _, _ := startController(t, api)

	waitFor(t, "initial fetch", func() bool {
		return ctrl.Session().HasSettings
	})

	ctrl.Mutate(func(s *ticker.Settings) { s.WeatherCity = "Austin" })
	waitFor(t, "first push", func() bool { return api.pushCount() == 1 })
	waitFor(t, "unlock", func() bool { return !ctrl.Session().Editing })

	// Edit away and back: the debounced body matches the acknowledged
	// push, so nothing goes on the wire.
	ctrl.Mutate(func(s *ticker.Settings) { s.WeatherCity = "Boston" })
	ctrl.Mutate(func(s *ticker.Settings) { s.WeatherCity = "Austin" })
	waitFor(t, "gate release", func() bool { return !ctrl.Session().Editing })

	time.Sleep(50 * time.Millisecond)
	if got := api.pushCount(); got != 1 {
		t.Fatalf("pushes = %d, want 1 (no-op push should be skipped)", got)
	}
}

func TestController_ForbiddenPushClearsPairing(t *testing.T) {
	api := &fakeAPI{
		stateSettings: ticker.DefaultSettings(),
		devices:       []ticker.Device{{ID: "tick-1", Name: "Kitchen"}},
		pushErr:       fmt.Errorf("push settings: %w", ticker.ErrForbidden),
	}
	ctrl, pairs, prefsPath := startController(t, api)

	if err := prefs.Save(prefsPath, prefs.Prefs{DeviceID: "tick-1"}); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "initial fetch", func() bool {
		s := ctrl.Session()
		return s.HasSettings && len(s.Devices) == 1
	})

	ctrl.Mutate(func(s *ticker.Settings) { s.Mode = ticker.ModeClock })
	waitFor(t, "rejected push", func() bool { return api.pushCount() == 1 })

	// Once authorization is gone the server stops listing the device.
	api.mu.Lock()
	api.devices = nil
	api.mu.Unlock()

	waitFor(t, "latch cleared", func() bool { return pairs.Latch() == "" })
	waitFor(t, "roster dropped", func() bool {
		return len(ctrl.Session().Devices) == 0
	})

	// The rejected push is never retried.
	time.Sleep(50 * time.Millisecond)
	if got := api.pushCount(); got != 1 {
		t.Fatalf("pushes = %d, want 1 (forbidden push must not be retried)", got)
	}
}

func TestController_UnpairDropsRosterImmediately(t *testing.T) {
	api := &fakeAPI{
		stateSettings: ticker.DefaultSettings(),
		devices:       []ticker.Device{{ID: "tick-1", Name: "Kitchen"}},
	}
	ctrl, pairs, _ := startController(t, api)

	waitFor(t, "roster", func() bool {
		return len(ctrl.Session().Devices) == 1 && pairs.Latch() == "tick-1"
	})

	// The refresh after the unpair fails, so only the local removal can
	// take the device out of the session.
	api.mu.Lock()
	api.devicesErr = errors.New("dial tcp: connection refused")
	api.mu.Unlock()

	if err := ctrl.Unpair(context.Background(), "tick-1"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "roster entry dropped", func() bool {
		return len(ctrl.Session().Devices) == 0
	})
	if got := pairs.Latch(); got != "" {
		t.Fatalf("latch = %q, want cleared", got)
	}
}

func TestController_FailedPushIsNotResent(t *testing.T) {
	api := &fakeAPI{
		stateSettings: ticker.DefaultSettings(),
		pushErr:       errors.New("connection reset"),
	}
	ctrl, _, _ := startController(t, api)

	waitFor(t, "initial fetch", func() bool {
		return ctrl.Session().HasSettings
	})

	ctrl.Mutate(func(s *ticker.Settings) { s.ScrollSpeed = 2 })
	waitFor(t, "push attempt", func() bool { return api.pushCount() == 1 })
	waitFor(t, "unlock", func() bool { return !ctrl.Session().Editing })

	time.Sleep(50 * time.Millisecond)
	if got := api.pushCount(); got != 1 {
		t.Fatalf("pushes = %d, want 1 (failed push must not be resent)", got)
	}
}

func TestController_OfflineAfterConsecutiveFailures(t *testing.T) {
	api := &fakeAPI{stateErr: errors.New("dial tcp: connection refused")}
	ctrl, _, _ := startController(t, api)

	waitFor(t, "offline", func() bool {
		s := ctrl.Session()
		return s.Connectivity == state.Offline && s.IsOffline()
	})
}

func TestController_DecodeFailureKeepsHeldState(t *testing.T) {
	serverSettings := ticker.DefaultSettings()
	serverSettings.WeatherCity = "Portland"
	api := &fakeAPI{stateSettings: serverSettings}
	ctrl, _, _ := startController(t, api)

	waitFor(t, "initial fetch", func() bool {
		s := ctrl.Session()
		return s.HasSettings && s.Settings.WeatherCity == "Portland"
	})

	// The server keeps answering, but with payloads that will not parse.
	api.mu.Lock()
	api.stateErr = &ticker.DecodeError{Endpoint: "/api/state", Err: errors.New("unexpected end of JSON input")}
	api.mu.Unlock()

	waitFor(t, "decode error surfaced", func() bool {
		return ticker.IsDecode(ctrl.Session().LastError)
	})

	s := ctrl.Session()
	if got := s.Settings.WeatherCity; got != "Portland" {
		t.Fatalf("held settings overwritten: city = %q, want Portland", got)
	}
	if s.Connectivity == state.Offline || s.IsOffline() {
		t.Fatalf("decode failure marked offline: connectivity = %v", s.Connectivity)
	}
	if s.ConsecutiveFailures != 0 {
		t.Fatalf("failures = %d, want 0 after decode error", s.ConsecutiveFailures)
	}
}

func TestController_ServerOnlyWithoutDevices(t *testing.T) {
	api := &fakeAPI{stateSettings: ticker.DefaultSettings()}
	ctrl, _, _ := startController(t, api)

	waitFor(t, "server-only", func() bool {
		s := ctrl.Session()
		return s.HasSettings && s.Connectivity == state.ServerOnly
	})
}

func TestController_DeviceSettingBypassesGate(t *testing.T) {
	api := &fakeAPI{
		stateSettings: ticker.DefaultSettings(),
		devices:       []ticker.Device{{ID: "tick-1", Settings: ticker.DeviceSettings{Brightness: 100}}},
	}
	ctrl, _, _ := startController(t, api)

	waitFor(t, "roster", func() bool {
		return len(ctrl.Session().Devices) == 1
	})

	// Hold the edit gate open, then change a hardware setting.
	ctrl.Mutate(func(s *ticker.Settings) { s.WeatherCity = "Austin" })
	waitFor(t, "editing", func() bool { return ctrl.Session().Editing })

	brightness := 40
	ctrl.UpdateDeviceSetting("tick-1", ticker.DevicePatch{Brightness: &brightness})

	waitFor(t, "device push", func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.devicePushes) == 1 && api.deviceIDs[0] == "tick-1"
	})
	waitFor(t, "optimistic apply", func() bool {
		devices := ctrl.Session().Devices
		return len(devices) == 1 && devices[0].Settings.Brightness == 40
	})
}

func TestController_PushTargetsResolvedDevice(t *testing.T) {
	api := &fakeAPI{
		stateSettings: ticker.DefaultSettings(),
		devices:       []ticker.Device{{ID: "tick-7"}},
	}
	ctrl, _, _ := startController(t, api)

	waitFor(t, "roster", func() bool {
		return len(ctrl.Session().Devices) == 1
	})

	ctrl.Mutate(func(s *ticker.Settings) { s.ScrollSeamless = true })
	waitFor(t, "push", func() bool { return api.pushCount() == 1 })

	if _, target := api.lastPush(); target != "tick-7" {
		t.Fatalf("push target = %q, want tick-7", target)
	}
}
