package primer

import (
	"errors"
	"math"
	"testing"
)

func TestScoreFixedOrder(t *testing.T) {
	s := Section{Scores: DimensionScores{Safety: 1, Efficiency: 0.5, Accuracy: 0.25, Base: 0}}
	w, err := Weights{Safety: 0.4, Efficiency: 0.3, Accuracy: 0.2, Base: 0.1}.Normalized()
	if err != nil {
		t.Fatalf("Normalized: %v", err)
	}
	got := Score(s, w)
	want := 0.4*1 + 0.3*0.5 + 0.2*0.25
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Score = %v, want %v", got, want)
	}
}

func TestWeightsNormalized(t *testing.T) {
	w, err := Weights{Safety: 2, Efficiency: 1, Accuracy: 1, Base: 0}.Normalized()
	if err != nil {
		t.Fatalf("Normalized: %v", err)
	}
	sum := w.Safety + w.Efficiency + w.Accuracy + w.Base
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("normalized weights sum to %v, want 1", sum)
	}
	if w.Safety != 0.5 {
		t.Errorf("Safety = %v, want 0.5", w.Safety)
	}

	if _, err := (Weights{Safety: -0.1, Efficiency: 1}).Normalized(); err == nil {
		t.Error("negative weight should be rejected")
	}
	if _, err := (Weights{}).Normalized(); err == nil {
		t.Error("all-zero weights should be rejected")
	}
}

func TestValueDensityZeroCost(t *testing.T) {
	if got := ValueDensity(0.8, 0); got != 0.8 {
		t.Errorf("zero-cost density = %v, want raw score 0.8", got)
	}
	if got := ValueDensity(0.8, 40); got != 0.02 {
		t.Errorf("density = %v, want 0.02", got)
	}
}

func TestBuiltinPresetWeights(t *testing.T) {
	safe := BuiltinPresets()[PresetSafe]
	if safe.Safety != 0.7 {
		t.Errorf("safe preset safety = %v, want 0.7", safe.Safety)
	}
	efficient := BuiltinPresets()[PresetEfficient]
	if efficient.Safety != 0.1 || efficient.Efficiency != 0.6 {
		t.Errorf("efficient preset = %+v", efficient)
	}
	balanced := BuiltinPresets()[PresetBalanced]
	if balanced.Safety != 0.25 || balanced.Base != 0.25 {
		t.Errorf("balanced preset = %+v", balanced)
	}
}

func TestResolveWeights(t *testing.T) {
	// Empty preset name means balanced.
	w, err := ResolveWeights(nil, "")
	if err != nil {
		t.Fatalf("ResolveWeights(\"\"): %v", err)
	}
	if w.Safety != 0.25 {
		t.Errorf("default preset safety = %v, want 0.25", w.Safety)
	}

	_, err = ResolveWeights(nil, "yolo")
	if !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("unknown preset error = %v, want ErrUnknownPreset", err)
	}

	// Catalog presets shadow built-ins.
	cat := &Catalog{Presets: map[string]Weights{
		PresetSafe: {Safety: 1},
	}}
	w, err = ResolveWeights(cat, PresetSafe)
	if err != nil {
		t.Fatalf("ResolveWeights(safe): %v", err)
	}
	if w.Safety != 1 {
		t.Errorf("catalog preset should shadow built-in, got safety %v", w.Safety)
	}
}
