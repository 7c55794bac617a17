package pairing

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/MattLD13/tickerctl/internal/prefs"
)

// EnsureIdentity returns the persisted client identity, generating and
// persisting a new one exactly once if none exists. Idempotent across
// calls and across process restarts sharing the same prefs file.
func EnsureIdentity(prefsPath string) (string, error) {
	p := prefs.Load(prefsPath)
	if p.ClientID != "" {
		return p.ClientID, nil
	}
	p.ClientID = uuid.NewString()
	if err := prefs.Save(prefsPath, p); err != nil {
		return "", fmt.Errorf("persist client identity: %w", err)
	}
	return p.ClientID, nil
}
