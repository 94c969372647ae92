package bot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/orla-games/meeplecore/internal/mcts"
)

func TestBuiltinProfilesParseCleanly(t *testing.T) {
	for _, tier := range []string{"easy", "medium", "hard"} {
		if _, ok := profiles[tier]; !ok {
			t.Errorf("expected built-in profile %q to exist", tier)
		}
	}
}

func TestParamsForUnknownTierFallsBackToDefaults(t *testing.T) {
	got := paramsFor("nonexistent")
	want := mcts.DefaultParams()
	if got.NumSimulations != want.NumSimulations || got.TimeLimitMs != want.TimeLimitMs ||
		got.Exploration != want.Exploration || got.NumDeterminizations != want.NumDeterminizations {
		t.Errorf("expected unknown tier to fall back to mcts.DefaultParams(), got %+v want %+v", got, want)
	}
}

func TestHardParamsEnablesTileAwareAMAF(t *testing.T) {
	p := HardParams()
	if !p.TileAwareAMAF {
		t.Error("expected the hard profile to enable tile-aware AMAF")
	}
	if p.NumDeterminizations != 5 {
		t.Errorf("expected hard profile to use 5 determinizations, got %d", p.NumDeterminizations)
	}
}

func TestLoadProfilesOverridesOnlyNamedTiers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	if err := os.WriteFile(path, []byte("easy:\n  num_simulations: 999\n"), 0o644); err != nil {
		t.Fatalf("failed to write test fixture: %v", err)
	}
	t.Cleanup(func() { profiles = mustParseProfiles([]byte(defaultProfilesYAML)) })

	if err := LoadProfiles(path); err != nil {
		t.Fatalf("unexpected error loading profiles: %v", err)
	}
	if got := EasyParams(); got.NumSimulations != 999 {
		t.Errorf("expected overridden easy profile to report 999 simulations, got %d", got.NumSimulations)
	}
	if got := HardParams(); got.NumDeterminizations != 5 {
		t.Errorf("expected untouched hard profile to keep its built-in value, got %d", got.NumDeterminizations)
	}
}

func TestLoadProfilesRejectsMissingFile(t *testing.T) {
	if err := LoadProfiles("/nonexistent/path/profiles.yaml"); err == nil {
		t.Error("expected an error loading a nonexistent profiles file")
	}
}
