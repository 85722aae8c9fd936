// Package features computes a fixed-length acoustic feature vector from
// a decoded waveform.
//
// The vector has exactly 48 positional values. Downstream scoring
// depends on this ordering, so the layout is fixed:
//
//	 0-12  MFCC means (13 coefficients)
//	13-25  MFCC standard deviations (13)
//	26-27  spectral centroid mean, std (Hz)
//	28-29  spectral rolloff mean, std (Hz)
//	30-31  spectral bandwidth mean, std (Hz)
//	32-33  spectral flatness mean, std
//	34-35  spectral flux mean, std
//	36-37  zero-crossing rate mean, std
//	38     onset rate (onsets per second)
//	39-40  onset strength mean, std
//	41     tempo estimate (BPM, 0 when undetectable)
//	42-43  RMS energy mean, std
//	44     dynamic range
//	45-46  pitch mean, std (Hz, voiced frames only)
//	47     voiced fraction
//
// Silence and other degenerate input clamp undefined descriptors to 0;
// the output never contains NaN or Inf and its length never depends on
// input duration.
package features

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"voiceguard/internal/audio"
)

// VectorSize is the fixed length of every extracted feature vector.
const VectorSize = 48

// Vector is an ordered, fixed-length feature vector.
type Vector [VectorSize]float64

// Positions of the feature groups inside a Vector.
const (
	IdxMFCCMean      = 0
	IdxMFCCStd       = 13
	IdxCentroidMean  = 26
	IdxCentroidStd   = 27
	IdxRolloffMean   = 28
	IdxRolloffStd    = 29
	IdxBandwidthMean = 30
	IdxBandwidthStd  = 31
	IdxFlatnessMean  = 32
	IdxFlatnessStd   = 33
	IdxFluxMean      = 34
	IdxFluxStd       = 35
	IdxZCRMean       = 36
	IdxZCRStd        = 37
	IdxOnsetRate     = 38
	IdxOnsetMean     = 39
	IdxOnsetStd      = 40
	IdxTempo         = 41
	IdxRMSMean       = 42
	IdxRMSStd        = 43
	IdxDynamicRange  = 44
	IdxPitchMean     = 45
	IdxPitchStd      = 46
	IdxVoicedFrac    = 47
)

// ErrNilWaveform is returned when Extract receives a nil or empty
// waveform. The decoder guarantees non-empty output, so hitting this
// means the pipeline was called out of order.
var ErrNilWaveform = errors.New("nil or empty waveform")

// Config holds the fixed analysis parameters. Window and hop sizes are
// configuration constants, not derived per call.
type Config struct {
	SampleRate    int     // expected waveform rate (16000)
	FFTSize       int     // analysis window length in samples
	HopSize       int     // samples between successive windows
	NumMFCC       int     // cepstral coefficients kept per window
	NumMelFilters int     // mel filterbank channels
	MaxSeconds    float64 // analysis cap; longer input is truncated
	PitchMinHz    float64 // lowest pitch candidate
	PitchMaxHz    float64 // highest pitch candidate
}

// DefaultConfig returns the standard speech analysis parameters:
// 32ms windows with 10ms hop at 16kHz, 13 MFCCs over 26 mel filters,
// pitch search across the 50-400Hz speech range. Analysis considers at
// most the first 10 seconds, matching the service's processing bound.
func DefaultConfig() Config {
	return Config{
		SampleRate:    audio.TargetSampleRate,
		FFTSize:       512,
		HopSize:       160,
		NumMFCC:       13,
		NumMelFilters: 26,
		MaxSeconds:    10,
		PitchMinHz:    50,
		PitchMaxHz:    400,
	}
}

// Extractor computes feature vectors. It holds only read-only derived
// state (window, filterbank) and is safe for concurrent use.
type Extractor struct {
	cfg        Config
	window     []float64
	melFilters [][]float64
}

// New creates an Extractor for the given config.
func New(cfg Config) *Extractor {
	window := make([]float64, cfg.FFTSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(cfg.FFTSize-1)))
	}
	return &Extractor{
		cfg:        cfg,
		window:     window,
		melFilters: melFilterbank(cfg.NumMelFilters, cfg.FFTSize, cfg.SampleRate),
	}
}

// frameStats accumulates per-window descriptors for one Extract call.
// Keeping it on the call stack keeps the Extractor itself stateless.
type frameStats struct {
	mfcc      [][]float64
	centroid  []float64
	rolloff   []float64
	bandwidth []float64
	flatness  []float64
	flux      []float64
	zcr       []float64
	rms       []float64
	pitch     []float64 // voiced frames only
	voiced    int
	frames    int
}

// Extract computes the 48-dimensional feature vector for a waveform.
func (e *Extractor) Extract(w *audio.Waveform) (Vector, error) {
	var v Vector
	if w == nil || len(w.Samples) == 0 {
		return v, ErrNilWaveform
	}

	samples := w.Samples
	if max := int(e.cfg.MaxSeconds * float64(e.cfg.SampleRate)); len(samples) > max {
		samples = samples[:max]
	}
	// Short input still produces one full analysis window.
	if len(samples) < e.cfg.FFTSize {
		padded := make([]float64, e.cfg.FFTSize)
		copy(padded, samples)
		samples = padded
	}

	fft := fourier.NewFFT(e.cfg.FFTSize)
	st := &frameStats{}
	prevSpectrum := make([]float64, e.cfg.FFTSize/2)
	windowed := make([]float64, e.cfg.FFTSize)

	numFrames := 1 + (len(samples)-e.cfg.FFTSize)/e.cfg.HopSize
	for i := 0; i < numFrames; i++ {
		frame := samples[i*e.cfg.HopSize : i*e.cfg.HopSize+e.cfg.FFTSize]
		for j := range frame {
			windowed[j] = frame[j] * e.window[j]
		}

		coeffs := fft.Coefficients(nil, windowed)
		spectrum := make([]float64, e.cfg.FFTSize/2)
		for j := range spectrum {
			spectrum[j] = math.Hypot(real(coeffs[j]), imag(coeffs[j]))
		}

		e.accumFrame(st, frame, spectrum, prevSpectrum)
		copy(prevSpectrum, spectrum)
		st.frames++
	}

	e.assemble(&v, st, samples)
	sanitize(&v)
	return v, nil
}

// accumFrame computes every per-window descriptor for one frame.
func (e *Extractor) accumFrame(st *frameStats, frame, spectrum, prevSpectrum []float64) {
	st.mfcc = append(st.mfcc, e.mfcc(spectrum))
	centroid := e.spectralCentroid(spectrum)
	st.centroid = append(st.centroid, centroid)
	st.rolloff = append(st.rolloff, e.spectralRolloff(spectrum, 0.85))
	st.bandwidth = append(st.bandwidth, e.spectralBandwidth(spectrum, centroid))
	st.flatness = append(st.flatness, spectralFlatness(spectrum))
	st.flux = append(st.flux, spectralFlux(spectrum, prevSpectrum))
	st.zcr = append(st.zcr, zeroCrossingRate(frame))
	st.rms = append(st.rms, rootMeanSquare(frame))

	if hz, ok := e.pitch(frame); ok {
		st.pitch = append(st.pitch, hz)
		st.voiced++
	}
}

// assemble aggregates accumulated frame descriptors into the vector.
func (e *Extractor) assemble(v *Vector, st *frameStats, samples []float64) {
	if st.frames == 0 {
		return
	}

	for i := 0; i < e.cfg.NumMFCC && IdxMFCCStd+i < IdxCentroidMean; i++ {
		col := make([]float64, 0, len(st.mfcc))
		for _, row := range st.mfcc {
			col = append(col, row[i])
		}
		v[IdxMFCCMean+i], v[IdxMFCCStd+i] = meanStd(col)
	}

	v[IdxCentroidMean], v[IdxCentroidStd] = meanStd(st.centroid)
	v[IdxRolloffMean], v[IdxRolloffStd] = meanStd(st.rolloff)
	v[IdxBandwidthMean], v[IdxBandwidthStd] = meanStd(st.bandwidth)
	v[IdxFlatnessMean], v[IdxFlatnessStd] = meanStd(st.flatness)
	v[IdxFluxMean], v[IdxFluxStd] = meanStd(st.flux)

	// ZCR mean is measured over the whole waveform; the spread comes
	// from the per-window values.
	v[IdxZCRMean] = zeroCrossingRate(samples)
	_, v[IdxZCRStd] = meanStd(st.zcr)

	duration := float64(len(samples)) / float64(e.cfg.SampleRate)
	v[IdxOnsetRate] = onsetRate(st.flux, duration)
	v[IdxOnsetMean], v[IdxOnsetStd] = meanStd(st.flux)
	v[IdxTempo] = e.tempo(st.flux)

	v[IdxRMSMean], v[IdxRMSStd] = meanStd(st.rms)
	v[IdxDynamicRange] = dynamicRange(st.rms)

	if len(st.pitch) > 0 {
		v[IdxPitchMean], v[IdxPitchStd] = meanStd(st.pitch)
	}
	v[IdxVoicedFrac] = float64(st.voiced) / float64(st.frames)
}

// mfcc applies the mel filterbank and a DCT-II to one magnitude
// spectrum, keeping the first NumMFCC coefficients.
func (e *Extractor) mfcc(spectrum []float64) []float64 {
	melEnergies := make([]float64, e.cfg.NumMelFilters)
	for i := range melEnergies {
		for j, g := range e.melFilters[i] {
			if j >= len(spectrum) {
				break
			}
			melEnergies[i] += spectrum[j] * spectrum[j] * g
		}
		if melEnergies[i] < 1e-10 {
			melEnergies[i] = 1e-10
		}
		melEnergies[i] = math.Log(melEnergies[i])
	}

	out := make([]float64, e.cfg.NumMFCC)
	for i := range out {
		for j, m := range melEnergies {
			out[i] += m * math.Cos(math.Pi*float64(i)*(float64(j)+0.5)/float64(e.cfg.NumMelFilters))
		}
	}
	return out
}

// spectralCentroid is the magnitude-weighted mean frequency.
func (e *Extractor) spectralCentroid(spectrum []float64) float64 {
	freqPerBin := float64(e.cfg.SampleRate) / float64(e.cfg.FFTSize)
	var weighted, sum float64
	for i, mag := range spectrum {
		weighted += float64(i) * freqPerBin * mag
		sum += mag
	}
	if sum == 0 {
		return 0
	}
	return weighted / sum
}

// spectralRolloff is the frequency below which the given share of
// spectral energy lies. Returns 0 for a silent window.
func (e *Extractor) spectralRolloff(spectrum []float64, share float64) float64 {
	var total float64
	for _, mag := range spectrum {
		total += mag * mag
	}
	if total == 0 {
		return 0
	}
	freqPerBin := float64(e.cfg.SampleRate) / float64(e.cfg.FFTSize)
	threshold := total * share
	var cum float64
	for i, mag := range spectrum {
		cum += mag * mag
		if cum >= threshold {
			return float64(i) * freqPerBin
		}
	}
	return float64(len(spectrum)) * freqPerBin
}

// spectralBandwidth is the magnitude-weighted standard deviation of
// frequency around the centroid.
func (e *Extractor) spectralBandwidth(spectrum []float64, centroid float64) float64 {
	freqPerBin := float64(e.cfg.SampleRate) / float64(e.cfg.FFTSize)
	var weighted, sum float64
	for i, mag := range spectrum {
		d := float64(i)*freqPerBin - centroid
		weighted += d * d * mag
		sum += mag
	}
	if sum == 0 {
		return 0
	}
	return math.Sqrt(weighted / sum)
}

// spectralFlatness is the geometric over arithmetic mean of the power
// spectrum, in [0,1]. A silent window yields 0.
func spectralFlatness(spectrum []float64) float64 {
	var logSum, sum float64
	for _, mag := range spectrum {
		p := mag * mag
		if p < 1e-12 {
			p = 1e-12
		}
		logSum += math.Log(p)
		sum += mag * mag
	}
	if sum == 0 {
		return 0
	}
	n := float64(len(spectrum))
	return math.Exp(logSum/n) / (sum / n)
}

// spectralFlux is the half-wave rectified spectral difference against
// the previous window, which doubles as the onset strength envelope.
func spectralFlux(spectrum, prev []float64) float64 {
	var flux float64
	for i := range spectrum {
		if d := spectrum[i] - prev[i]; d > 0 {
			flux += d * d
		}
	}
	return math.Sqrt(flux)
}

func zeroCrossingRate(frame []float64) float64 {
	if len(frame) < 2 {
		return 0
	}
	var crossings int
	for i := 1; i < len(frame); i++ {
		if (frame[i] >= 0) != (frame[i-1] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame))
}

func rootMeanSquare(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// pitch estimates the fundamental frequency of one frame by normalized
// autocorrelation over the configured lag range. The frame counts as
// voiced when the best peak is strong enough and the frame carries
// actual energy.
func (e *Extractor) pitch(frame []float64) (float64, bool) {
	const (
		voicingThreshold = 0.30
		energyFloor      = 1e-4
	)

	var r0 float64
	for _, s := range frame {
		r0 += s * s
	}
	if r0 < energyFloor {
		return 0, false
	}

	minLag := int(float64(e.cfg.SampleRate) / e.cfg.PitchMaxHz)
	maxLag := int(float64(e.cfg.SampleRate) / e.cfg.PitchMinHz)
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	if minLag < 1 {
		minLag = 1
	}

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var r float64
		for i := 0; i < len(frame)-lag; i++ {
			r += frame[i] * frame[i+lag]
		}
		if r > bestCorr {
			bestCorr = r
			bestLag = lag
		}
	}
	if bestLag == 0 || bestCorr/r0 < voicingThreshold {
		return 0, false
	}
	return float64(e.cfg.SampleRate) / float64(bestLag), true
}

// tempo estimates BPM by autocorrelating the onset envelope. Returns 0
// when the envelope is too short or carries no periodicity.
func (e *Extractor) tempo(onsets []float64) float64 {
	if len(onsets) < 10 {
		return 0
	}
	hopDuration := float64(e.cfg.HopSize) / float64(e.cfg.SampleRate)
	minLag := int(60.0 / 200.0 / hopDuration) // 200 BPM ceiling
	maxLag := int(60.0 / 60.0 / hopDuration)  // 60 BPM floor
	if maxLag >= len(onsets) {
		maxLag = len(onsets) - 1
	}
	if minLag < 1 {
		minLag = 1
	}

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i < len(onsets)-lag; i++ {
			corr += onsets[i] * onsets[i+lag]
		}
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	if bestLag == 0 || bestCorr == 0 {
		return 0
	}
	bpm := 60.0 / (float64(bestLag) * hopDuration)
	return math.Min(math.Max(bpm, 60), 200)
}

// onsetRate counts envelope values rising well above the envelope mean,
// per second of audio.
func onsetRate(onsets []float64, duration float64) float64 {
	if len(onsets) == 0 || duration <= 0 {
		return 0
	}
	mean, std := meanStd(onsets)
	if mean == 0 {
		return 0
	}
	threshold := mean + std
	var count int
	for _, o := range onsets {
		if o > threshold {
			count++
		}
	}
	return float64(count) / duration
}

// dynamicRange measures the spread between the 10th and 90th RMS
// percentiles, normalized and clamped to [0,1].
func dynamicRange(rms []float64) float64 {
	if len(rms) < 2 {
		return 0
	}
	sorted := make([]float64, len(rms))
	copy(sorted, rms)
	sort.Float64s(sorted)
	p10 := sorted[len(sorted)/10]
	p90 := sorted[len(sorted)*9/10]
	if p10 == 0 {
		return 0
	}
	return math.Min((p90-p10)/p10, 1)
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum, sumSq float64
	for _, v := range values {
		sum += v
		sumSq += v * v
	}
	mean := sum / float64(len(values))
	variance := sumSq/float64(len(values)) - mean*mean
	if variance <= 0 {
		return mean, 0
	}
	return mean, math.Sqrt(variance)
}

// sanitize clamps any NaN or Inf left by degenerate input to 0.
func sanitize(v *Vector) {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			v[i] = 0
		}
	}
}

// melFilterbank builds triangular mel-spaced filters over FFT bins.
func melFilterbank(numFilters, fftSize, sampleRate int) [][]float64 {
	hzToMel := func(hz float64) float64 { return 2595 * math.Log10(1+hz/700) }
	melToHz := func(mel float64) float64 { return 700 * (math.Pow(10, mel/2595) - 1) }

	lowMel := hzToMel(20)
	highMel := hzToMel(float64(sampleRate) / 2)

	binPoints := make([]int, numFilters+2)
	for i := range binPoints {
		mel := lowMel + float64(i)*(highMel-lowMel)/float64(numFilters+1)
		binPoints[i] = int(math.Floor(melToHz(mel) * float64(fftSize) / float64(sampleRate)))
	}

	filters := make([][]float64, numFilters)
	for i := 0; i < numFilters; i++ {
		filters[i] = make([]float64, fftSize/2)
		for j := binPoints[i]; j < binPoints[i+1] && j < fftSize/2; j++ {
			if binPoints[i+1] != binPoints[i] {
				filters[i][j] = float64(j-binPoints[i]) / float64(binPoints[i+1]-binPoints[i])
			}
		}
		for j := binPoints[i+1]; j < binPoints[i+2] && j < fftSize/2; j++ {
			if binPoints[i+2] != binPoints[i+1] {
				filters[i][j] = float64(binPoints[i+2]-j) / float64(binPoints[i+2]-binPoints[i+1])
			}
		}
	}
	return filters
}
