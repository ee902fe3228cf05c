package testsupport

import (
	"testing"

	"wavebars/internal/config"
	"wavebars/internal/history"
)

// MustOpenHistory opens the run ledger configured in cfg and closes it when
// the test ends.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
