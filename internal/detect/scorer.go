package detect

import (
	"errors"
	"fmt"

	"voiceguard/internal/features"
)

// ErrUnsupportedLanguage is returned when the declared language tag is
// outside the supported set. The tag is surfaced, never defaulted.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Scorer maps a feature vector to an AI-likelihood in [0,1]. The
// heuristic implementation lives behind this interface so a trained
// model can replace it without touching extraction or classification.
type Scorer interface {
	// Score returns the AI-likelihood for the given features. Identical
	// input always yields an identical result.
	Score(v features.Vector, lang Language) (float64, error)

	// Name identifies the scoring backend.
	Name() string
}

// Config carries every scoring and classification constant. It is built
// once and injected; the engine never reads ambient process state.
type Config struct {
	// Threshold splits AI from HUMAN; likelihood >= Threshold is AI.
	Threshold float64

	// ConfidenceFloor and ConfidenceCeil bound the user-facing
	// confidence. The ceiling stays below 1 to reflect irreducible
	// model uncertainty.
	ConfidenceFloor float64
	ConfidenceCeil  float64

	// Calibration is the per-language additive adjustment applied to
	// the raw score. A language missing from this map is unsupported.
	Calibration map[Language]float64
}

// DefaultConfig returns the baseline constants. The calibration offsets
// compensate for baseline voicing and intonation differences between
// languages; they are deterministic adjustments, not learned values.
func DefaultConfig() Config {
	return Config{
		Threshold:       0.5,
		ConfidenceFloor: 0.50,
		ConfidenceCeil:  0.98,
		Calibration: map[Language]float64{
			LanguageEnglish:   0.00,
			LanguageTamil:     0.03,
			LanguageHindi:     0.02,
			LanguageMalayalam: 0.02,
			LanguageTelugu:    0.01,
		},
	}
}

// HeuristicScorer scores features with a fixed weighted combination of
// uniformity indicators. Synthetic voices tend toward low cepstral
// variance, narrow zero-crossing spread, flat pitch contours, stable
// spectral shape, and compressed dynamics; each indicator measures one
// of those against the ranges observed in natural speech.
type HeuristicScorer struct {
	cfg Config
}

// NewHeuristicScorer creates the fixed-heuristic scoring backend.
func NewHeuristicScorer(cfg Config) *HeuristicScorer {
	return &HeuristicScorer{cfg: cfg}
}

// Name returns the backend name.
func (s *HeuristicScorer) Name() string { return "heuristic" }

// Indicator weights in percent. They sum to 100 so the raw score stays
// in [0,1] before calibration, and a fully saturated score is exactly 1.
const (
	weightCepstral = 30 // MFCC variance: natural speech spreads 3-8, synthesis under 3
	weightPitch    = 25 // pitch contour spread in Hz
	weightZCR      = 15 // zero-crossing spread
	weightCentroid = 15 // spectral centroid spread in Hz
	weightDynamics = 15 // RMS dynamic range
)

// Score computes the calibrated AI-likelihood.
func (s *HeuristicScorer) Score(v features.Vector, lang Language) (float64, error) {
	offset, ok := s.cfg.Calibration[lang]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	// Average spread of the shape coefficients; the energy coefficient
	// (index 0) tracks loudness rather than timbre and is left out.
	var mfccSpread float64
	n := features.IdxCentroidMean - features.IdxMFCCStd
	for i := 1; i < n; i++ {
		mfccSpread += v[features.IdxMFCCStd+i]
	}
	mfccSpread /= float64(n - 1)

	cepstral := 1 - clamp01(mfccSpread/6.0)
	pitch := 1 - clamp01(v[features.IdxPitchStd]/45.0)
	zcr := 1 - clamp01((v[features.IdxZCRStd]-0.02)/0.10)
	centroid := 1 - clamp01(v[features.IdxCentroidStd]/600.0)
	dynamics := 1 - clamp01(v[features.IdxDynamicRange])

	raw := (weightCepstral*cepstral +
		weightPitch*pitch +
		weightZCR*zcr +
		weightCentroid*centroid +
		weightDynamics*dynamics) / 100

	return clamp01(raw + offset), nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
