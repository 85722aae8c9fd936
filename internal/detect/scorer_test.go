package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceguard/internal/features"
)

// naturalVector fakes the spread statistics of lively human speech.
func naturalVector() features.Vector {
	var v features.Vector
	for i := 1; i < 13; i++ {
		v[features.IdxMFCCStd+i] = 5
	}
	v[features.IdxZCRStd] = 0.15
	v[features.IdxPitchStd] = 35
	v[features.IdxCentroidStd] = 500
	v[features.IdxDynamicRange] = 0.8
	return v
}

// uniformVector fakes the flat statistics of synthetic speech.
func uniformVector() features.Vector {
	var v features.Vector
	for i := 1; i < 13; i++ {
		v[features.IdxMFCCStd+i] = 1
	}
	v[features.IdxZCRStd] = 0.03
	v[features.IdxPitchStd] = 5
	v[features.IdxCentroidStd] = 80
	v[features.IdxDynamicRange] = 0.1
	return v
}

func TestScoreDeterministic(t *testing.T) {
	s := NewHeuristicScorer(DefaultConfig())
	v := naturalVector()

	a, err := s.Score(v, LanguageEnglish)
	require.NoError(t, err)
	b, err := s.Score(v, LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same input must be bit-identical")
}

func TestScoreWithinUnitInterval(t *testing.T) {
	s := NewHeuristicScorer(DefaultConfig())
	for _, v := range []features.Vector{{}, naturalVector(), uniformVector()} {
		for _, lang := range SupportedLanguages {
			got, err := s.Score(v, lang)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}
}

func TestScoreSeparatesUniformFromNatural(t *testing.T) {
	s := NewHeuristicScorer(DefaultConfig())

	ai, err := s.Score(uniformVector(), LanguageEnglish)
	require.NoError(t, err)
	human, err := s.Score(naturalVector(), LanguageEnglish)
	require.NoError(t, err)

	assert.Greater(t, ai, human)
	assert.GreaterOrEqual(t, ai, 0.5)
	assert.Less(t, human, 0.5)
}

func TestScoreAppliesLanguageCalibration(t *testing.T) {
	cfg := DefaultConfig()
	s := NewHeuristicScorer(cfg)
	v := naturalVector()

	english, err := s.Score(v, LanguageEnglish)
	require.NoError(t, err)
	tamil, err := s.Score(v, LanguageTamil)
	require.NoError(t, err)

	assert.InDelta(t, cfg.Calibration[LanguageTamil]-cfg.Calibration[LanguageEnglish],
		tamil-english, 1e-12)
}

func TestScoreUnsupportedLanguage(t *testing.T) {
	s := NewHeuristicScorer(DefaultConfig())
	_, err := s.Score(naturalVector(), Language("klingon"))
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestScoreSilenceBaseline(t *testing.T) {
	// A silent waveform zeroes every spread feature, so every
	// uniformity indicator saturates: the english baseline is exactly 1.
	s := NewHeuristicScorer(DefaultConfig())
	got, err := s.Score(features.Vector{}, LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestParseLanguage(t *testing.T) {
	l, ok := ParseLanguage(" Tamil ")
	assert.True(t, ok)
	assert.Equal(t, LanguageTamil, l)

	_, ok = ParseLanguage("klingon")
	assert.False(t, ok)

	assert.Equal(t, []string{"tamil", "english", "hindi", "malayalam", "telugu"}, LanguageStrings())
}
