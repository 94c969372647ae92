// Package neural provides an optional ONNX-backed leaf evaluator for the
// "hard" MCTS bot profile, grounded on the teacher's internal/bot/neural
// package (board encoding + gonnx inference) but generalized from Diplomacy
// board tensors to the game-agnostic plugin.FeatureExtractor contract.
package neural

import (
	"fmt"
	"math"
	"sync"

	gonnx "github.com/advancedclimatesystems/gonnx"
	"gorgonia.org/tensor"

	"github.com/orla-games/meeplecore/pkg/plugin"
)

// ValueWeight blends the network's scalar output with the default heuristic
// evaluator, matching the teacher's RmEvaluateBlended constant weighting.
const ValueWeight = 0.6

// ModelPath is the directory holding value.onnx, set at startup from the
// GONNX_MODEL_PATH env var (internal/config). Empty means "no neural eval
// configured" — callers should use NewOrFallback rather than New directly.
var ModelPath string

// Evaluator runs a value-network ONNX model over a plugin's extracted
// feature vector. It only applies to plugins implementing
// plugin.FeatureExtractor; other plugins never see this evaluator offered.
type Evaluator struct {
	model *gonnx.Model
	mu    sync.Mutex
}

// New loads value.onnx from the directory path. Returns an error if the model can't be
// loaded — callers should fall back to the default heuristic evaluator.
func New(path string) (*Evaluator, error) {
	if path == "" {
		return nil, fmt.Errorf("neural: model path not configured")
	}
	model, err := gonnx.NewModelFromFile(path + "/value.onnx")
	if err != nil {
		return nil, fmt.Errorf("neural: load value model: %w", err)
	}
	return &Evaluator{model: model}, nil
}

// NewOrFallback attempts New(ModelPath); on any failure it logs nothing
// itself (the caller decides logging) and returns ok=false so the caller
// can fall back to mcts.DefaultEvaluator. Mirrors the teacher's
// newGonnxOrFallback degrade pattern.
func NewOrFallback() (*Evaluator, bool) {
	ev, err := New(ModelPath)
	if err != nil {
		return nil, false
	}
	return ev, true
}

// Evaluate takes the mcts.EvalFn arguments plus a fallback value: it
// requires the plugin p to implement plugin.FeatureExtractor (otherwise it
// returns fallback unchanged), and
// blends the network's scalar with the heuristic fallback value supplied
// by the caller (fallback is typically mcts.DefaultEvaluator's result).
func (e *Evaluator) Evaluate(gameData any, phase plugin.Phase, searchingPlayer plugin.PlayerId, players []plugin.Player, p plugin.GamePlugin, fallback float64) float64 {
	fe, ok := p.(plugin.FeatureExtractor)
	if !ok {
		return fallback
	}
	features := fe.ExtractFeatures(gameData, phase, searchingPlayer, players)
	if len(features) == 0 {
		return fallback
	}

	scalar, err := e.runValue(features)
	if err != nil {
		return fallback
	}
	blended := ValueWeight*scalar + (1-ValueWeight)*fallback
	return clamp01(blended)
}

func (e *Evaluator) runValue(features []float32) (float64, error) {
	in := tensor.New(
		tensor.WithShape(1, len(features)),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(features),
	)
	inputs := gonnx.Tensors{"features": in}

	e.mu.Lock()
	outputs, err := e.model.Run(inputs)
	e.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("neural: value run: %w", err)
	}

	out, ok := outputs["value"]
	if !ok {
		return 0, fmt.Errorf("neural: output %q not found", "value")
	}
	switch d := out.Data().(type) {
	case []float32:
		if len(d) == 0 {
			return 0, fmt.Errorf("neural: empty value output")
		}
		return sigmoid(float64(d[0])), nil
	case []float64:
		if len(d) == 0 {
			return 0, fmt.Errorf("neural: empty value output")
		}
		return sigmoid(d[0]), nil
	default:
		return 0, fmt.Errorf("neural: unexpected output type %T", d)
	}
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
