package pairing

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MattLD13/tickerctl/internal/prefs"
	"github.com/MattLD13/tickerctl/internal/ticker"
)

// fakeAPI implements ticker.API with canned pairing responses.
type fakeAPI struct {
	pairResult ticker.PairResult
	pairErr    error
	unpairErr  error
	unpaired   []string
}

func (f *fakeAPI) FetchState(context.Context, string) (ticker.Settings, []ticker.FeedItem, error) {
	return ticker.DefaultSettings(), nil, nil
}
func (f *fakeAPI) FetchCategories(context.Context) ([]ticker.Category, error) { return nil, nil }
func (f *fakeAPI) FetchTeams(context.Context) (map[string][]ticker.TeamEntry, error) {
	return nil, nil
}
func (f *fakeAPI) FetchDevices(context.Context) ([]ticker.Device, error) { return nil, nil }
func (f *fakeAPI) FetchServerLog(context.Context) (string, error)        { return "", nil }
func (f *fakeAPI) PushSettings(context.Context, string, ticker.Settings) error {
	return nil
}
func (f *fakeAPI) PushDeviceSettings(context.Context, string, ticker.DevicePatch) error {
	return nil
}
func (f *fakeAPI) PairByCode(_ context.Context, code, name string) (ticker.PairResult, error) {
	return f.pairResult, f.pairErr
}
func (f *fakeAPI) PairByID(_ context.Context, id, name string) (ticker.PairResult, error) {
	return f.pairResult, f.pairErr
}
func (f *fakeAPI) Unpair(_ context.Context, deviceID string) error {
	f.unpaired = append(f.unpaired, deviceID)
	return f.unpairErr
}
func (f *fakeAPI) SendDebug(context.Context, bool, string) error { return nil }
func (f *fakeAPI) Reboot(context.Context, string) error          { return nil }

func tempPrefsPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "prefs.toml")
}

func TestEnsureIdentity_Idempotent(t *testing.T) {
	path := tempPrefsPath(t)

	first, err := EnsureIdentity(path)
	if err != nil {
		t.Fatalf("EnsureIdentity returned error: %v", err)
	}
	if first == "" {
		t.Fatal("EnsureIdentity returned empty token")
	}

	second, err := EnsureIdentity(path)
	if err != nil {
		t.Fatalf("EnsureIdentity returned error: %v", err)
	}
	if second != first {
		t.Fatalf("second call = %q, want %q (same token)", second, first)
	}

	// Simulated restart: a fresh read of the same persisted store must
	// yield the same token.
	restarted, err := EnsureIdentity(path)
	if err != nil {
		t.Fatalf("EnsureIdentity after restart returned error: %v", err)
	}
	if restarted != first {
		t.Fatalf("after restart = %q, want %q", restarted, first)
	}
}

func TestManager_PairByCodePersistsLatch(t *testing.T) {
	path := tempPrefsPath(t)
	api := &fakeAPI{pairResult: ticker.PairResult{Success: true, DeviceID: "tick-7"}}
	m := NewManager(api, path)

	result, err := m.PairByCode(context.Background(), "1234", "Den")
	if err != nil || !result.Success {
		t.Fatalf("PairByCode = %+v, %v", result, err)
	}
	if m.Latch() != "tick-7" {
		t.Fatalf("latch = %q, want tick-7", m.Latch())
	}
	if prefs.Load(path).DeviceID != "tick-7" {
		t.Fatal("latch not persisted to prefs")
	}
}

func TestManager_PairFailureMakesNoStateChange(t *testing.T) {
	path := tempPrefsPath(t)
	_ = prefs.Save(path, prefs.Prefs{DeviceID: "tick-1"})

	api := &fakeAPI{pairResult: ticker.PairResult{Success: false, Message: "Invalid Pairing Code"}}
	m := NewManager(api, path)

	result, err := m.PairByCode(context.Background(), "0000", "Den")
	if err != nil {
		t.Fatalf("PairByCode returned error: %v", err)
	}
	if result.Success || result.Message != "Invalid Pairing Code" {
		t.Fatalf("result = %+v", result)
	}
	if m.Latch() != "tick-1" {
		t.Fatalf("latch = %q, want unchanged tick-1", m.Latch())
	}

	api.pairErr = errors.New("connection refused")
	if _, err := m.PairByID(context.Background(), "tick-2", "Den"); err == nil {
		t.Fatal("PairByID swallowed transport error")
	}
	if m.Latch() != "tick-1" {
		t.Fatalf("latch = %q after transport failure, want unchanged", m.Latch())
	}
}

func TestManager_PairRejectsEmptyInput(t *testing.T) {
	m := NewManager(&fakeAPI{}, tempPrefsPath(t))
	if _, err := m.PairByCode(context.Background(), "  ", "Den"); err == nil {
		t.Fatal("PairByCode accepted blank code")
	}
	if _, err := m.PairByID(context.Background(), "", "Den"); err == nil {
		t.Fatal("PairByID accepted blank id")
	}
}

func TestManager_UnpairClearsLatchOptimistically(t *testing.T) {
	path := tempPrefsPath(t)
	_ = prefs.Save(path, prefs.Prefs{DeviceID: "tick-1"})

	api := &fakeAPI{unpairErr: errors.New("host unreachable")}
	m := NewManager(api, path)

	// Transport failure does not roll back the optimistic clear.
	if err := m.Unpair(context.Background(), "tick-1"); err == nil {
		t.Fatal("Unpair swallowed transport error")
	}
	if m.Latch() != "" {
		t.Fatalf("latch = %q, want cleared", m.Latch())
	}
	if len(api.unpaired) != 1 || api.unpaired[0] != "tick-1" {
		t.Fatalf("unpair requests = %v", api.unpaired)
	}
}

func TestManager_UnpairLeavesOtherLatchAlone(t *testing.T) {
	path := tempPrefsPath(t)
	_ = prefs.Save(path, prefs.Prefs{DeviceID: "tick-1"})

	m := NewManager(&fakeAPI{}, path)
	if err := m.Unpair(context.Background(), "tick-2"); err != nil {
		t.Fatalf("Unpair returned error: %v", err)
	}
	if m.Latch() != "tick-1" {
		t.Fatalf("latch = %q, want tick-1 untouched", m.Latch())
	}
}

func TestManager_ReconcileRosterPersists(t *testing.T) {
	path := tempPrefsPath(t)
	_ = prefs.Save(path, prefs.Prefs{DeviceID: "tick-1"})
	m := NewManager(&fakeAPI{}, path)

	if got := m.ReconcileRoster(RosterUnknown, nil); got != "tick-1" {
		t.Fatalf("after failed fetch latch = %q, want tick-1", got)
	}
	if got := m.ReconcileRoster(RosterEmpty, nil); got != "" {
		t.Fatalf("after confirmed-empty latch = %q, want cleared", got)
	}
	if prefs.Load(path).DeviceID != "" {
		t.Fatal("cleared latch not persisted")
	}
}

func TestManager_HandleForbiddenClearsLatch(t *testing.T) {
	path := tempPrefsPath(t)
	_ = prefs.Save(path, prefs.Prefs{DeviceID: "tick-1"})
	m := NewManager(&fakeAPI{}, path)

	m.HandleForbidden()
	if m.Latch() != "" {
		t.Fatalf("latch = %q after forbidden, want cleared", m.Latch())
	}
}
