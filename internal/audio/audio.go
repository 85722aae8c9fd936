package audio

import (
	"errors"
	"strings"
)

// Canonical decoding target: everything is converted to mono 16kHz
// before feature extraction, matching the analysis front-end.
const (
	TargetSampleRate = 16000
)

var (
	// ErrUnsupportedFormat is returned when the declared format tag is
	// not one of the supported formats.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrCorruptAudio is returned when the byte stream cannot be parsed
	// as valid encoded audio of the declared format.
	ErrCorruptAudio = errors.New("corrupt audio data")

	// ErrEmptyAudio is returned when decoding succeeds but yields zero
	// samples.
	ErrEmptyAudio = errors.New("empty audio data")
)

// Format identifies the declared encoding of an audio buffer.
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatWAV  Format = "wav"
	FormatOGG  Format = "ogg"
	FormatFLAC Format = "flac"
)

// SupportedFormats lists every format the decoder accepts, in the order
// they are reported by the stats endpoint.
var SupportedFormats = []Format{FormatMP3, FormatWAV, FormatOGG, FormatFLAC}

// ParseFormat normalizes a format tag string into a Format.
func ParseFormat(s string) (Format, bool) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, sf := range SupportedFormats {
		if f == sf {
			return f, true
		}
	}
	return "", false
}

// Buffer is an opaque encoded audio payload with its declared format.
type Buffer struct {
	Data   []byte
	Format Format
}

// Waveform is decoded audio: mono samples normalized to [-1,1] at a
// fixed sample rate.
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the waveform length in seconds.
func (w *Waveform) Duration() float64 {
	if w.SampleRate == 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}
