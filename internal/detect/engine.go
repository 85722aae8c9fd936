// Package detect scores acoustic feature vectors and classifies voice
// recordings as AI-generated or human-spoken.
package detect

import (
	"fmt"

	"voiceguard/internal/audio"
	"voiceguard/internal/features"
)

// Engine composes the full pipeline: decode, extract, score, classify.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	extractor  *features.Extractor
	scorer     Scorer
	classifier *Classifier
}

// NewEngine builds an Engine with the heuristic scorer.
func NewEngine(featCfg features.Config, cfg Config) *Engine {
	return NewEngineWithScorer(featCfg, cfg, NewHeuristicScorer(cfg))
}

// NewEngineWithScorer builds an Engine around a custom scoring backend.
func NewEngineWithScorer(featCfg features.Config, cfg Config, scorer Scorer) *Engine {
	return &Engine{
		extractor:  features.New(featCfg),
		scorer:     scorer,
		classifier: NewClassifier(cfg),
	}
}

// ScorerName reports the active scoring backend.
func (e *Engine) ScorerName() string { return e.scorer.Name() }

// Detect runs the pipeline on an encoded audio buffer. Decoder and
// scorer errors pass through unchanged so callers can match them with
// errors.Is; no partial result is ever returned on failure.
func (e *Engine) Detect(buf audio.Buffer, lang Language) (Result, error) {
	wave, err := audio.Decode(buf)
	if err != nil {
		return Result{}, err
	}

	vec, err := e.extractor.Extract(wave)
	if err != nil {
		return Result{}, fmt.Errorf("extract features: %w", err)
	}

	likelihood, err := e.scorer.Score(vec, lang)
	if err != nil {
		return Result{}, err
	}

	return e.classifier.Classify(likelihood), nil
}
