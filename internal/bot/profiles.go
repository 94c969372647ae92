package bot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/orla-games/meeplecore/internal/mcts"
)

// Difficulty presets. "easy|medium|hard" name parameter tuning only (spec
// §4.4) — all three run the same MCTS Engine. Defaults scale off the
// donor's GrpcMctsStrategy defaults (num_simulations=500, C=1.41,
// num_determinizations=5, rave_fpu=true) and are expressed as YAML so an
// operator can retune a tier (e.g. for a slower production host) without a
// rebuild, the way the teacher's bot profiles would live in config rather
// than code if it had more than one tier per difficulty.

// profileSpec is the YAML shape for one difficulty tier.
type profileSpec struct {
	NumSimulations      int     `yaml:"num_simulations"`
	TimeLimitMs         int     `yaml:"time_limit_ms"`
	Exploration         float64 `yaml:"exploration"`
	NumDeterminizations int     `yaml:"num_determinizations"`
	UseRave             bool    `yaml:"use_rave"`
	RaveK               float64 `yaml:"rave_k"`
	MaxAmafDepth        int     `yaml:"max_amaf_depth"`
	RaveFPU             bool    `yaml:"rave_fpu"`
	TileAwareAMAF       bool    `yaml:"tile_aware_amaf"`
}

const defaultProfilesYAML = `
easy:
  num_simulations: 40
  time_limit_ms: 200
  num_determinizations: 1
medium:
  num_simulations: 200
  time_limit_ms: 800
  num_determinizations: 2
  use_rave: true
  rave_k: 100
  max_amaf_depth: 4
  rave_fpu: true
hard:
  num_simulations: 500
  time_limit_ms: 2000
  exploration: 1.41
  num_determinizations: 5
  use_rave: true
  rave_k: 100
  max_amaf_depth: 4
  rave_fpu: true
  tile_aware_amaf: true
`

var profiles map[string]profileSpec

func init() {
	profiles = mustParseProfiles([]byte(defaultProfilesYAML))
}

func mustParseProfiles(data []byte) map[string]profileSpec {
	var parsed map[string]profileSpec
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		panic(fmt.Sprintf("bot: malformed built-in profile YAML: %v", err))
	}
	return parsed
}

// LoadProfiles replaces the easy/medium/hard presets from a YAML file on
// disk (same shape as defaultProfilesYAML above), for deployments that want
// to retune difficulty without a rebuild. Missing tiers keep their built-in
// values.
func LoadProfiles(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("bot: read profiles file: %w", err)
	}
	var overrides map[string]profileSpec
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("bot: parse profiles file %q: %w", path, err)
	}
	for tier, spec := range overrides {
		profiles[tier] = spec
	}
	return nil
}

func paramsFor(tier string) mcts.Params {
	spec, ok := profiles[tier]
	if !ok {
		return mcts.DefaultParams()
	}
	p := mcts.DefaultParams()
	if spec.NumSimulations > 0 {
		p.NumSimulations = spec.NumSimulations
	}
	if spec.TimeLimitMs > 0 {
		p.TimeLimitMs = spec.TimeLimitMs
	}
	if spec.Exploration > 0 {
		p.Exploration = spec.Exploration
	}
	if spec.NumDeterminizations > 0 {
		p.NumDeterminizations = spec.NumDeterminizations
	}
	p.UseRave = spec.UseRave
	if spec.RaveK > 0 {
		p.RaveK = spec.RaveK
	}
	if spec.MaxAmafDepth > 0 {
		p.MaxAmafDepth = spec.MaxAmafDepth
	}
	p.RaveFPU = spec.RaveFPU
	p.TileAwareAMAF = spec.TileAwareAMAF
	return p
}

// EasyParams: low simulation budget, no RAVE, single determinization —
// intentionally beatable.
func EasyParams() mcts.Params { return paramsFor("easy") }

// MediumParams: moderate budget, RAVE on, two determinizations.
func MediumParams() mcts.Params { return paramsFor("medium") }

// HardParams: full budget matching the donor's GrpcMctsStrategy defaults.
func HardParams() mcts.Params { return paramsFor("hard") }
