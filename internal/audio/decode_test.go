package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wavBytes builds a minimal PCM16 RIFF/WAV payload from interleaved
// samples.
func wavBytes(t *testing.T, samples []float64, rate, channels int) []byte {
	t.Helper()

	var pcm bytes.Buffer
	for _, s := range samples {
		v := int16(math.Max(-1, math.Min(1, s)) * 32767)
		require.NoError(t, binary.Write(&pcm, binary.LittleEndian, v))
	}

	var buf bytes.Buffer
	dataLen := uint32(pcm.Len())
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(rate*channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(pcm.Bytes())
	return buf.Bytes()
}

func sine(freq float64, rate int, seconds float64) []float64 {
	n := int(float64(rate) * seconds)
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func TestDecodeWAVMono(t *testing.T) {
	data := wavBytes(t, sine(440, TargetSampleRate, 1), TargetSampleRate, 1)

	w, err := Decode(Buffer{Data: data, Format: FormatWAV})
	require.NoError(t, err)
	assert.Equal(t, TargetSampleRate, w.SampleRate)
	assert.InDelta(t, 1.0, w.Duration(), 0.01)

	var peak float64
	for _, s := range w.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	assert.InDelta(t, 0.5, peak, 0.02)
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	// Left and right carry opposite-phase tones; the average is silence.
	mono := sine(200, TargetSampleRate, 0.5)
	interleaved := make([]float64, 0, len(mono)*2)
	for _, s := range mono {
		interleaved = append(interleaved, s, -s)
	}
	data := wavBytes(t, interleaved, TargetSampleRate, 2)

	w, err := Decode(Buffer{Data: data, Format: FormatWAV})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, w.Duration(), 0.01)
	for _, s := range w.Samples {
		assert.InDelta(t, 0, s, 1e-3)
	}
}

func TestDecodeResamplesToTargetRate(t *testing.T) {
	data := wavBytes(t, sine(440, 44100, 1), 44100, 1)

	w, err := Decode(Buffer{Data: data, Format: FormatWAV})
	require.NoError(t, err)
	assert.Equal(t, TargetSampleRate, w.SampleRate)
	// The resampler may trim a filter tail; the length must still be
	// close to one second at the target rate.
	assert.InDelta(t, float64(TargetSampleRate), float64(len(w.Samples)), float64(TargetSampleRate)/20)
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	_, err := Decode(Buffer{Data: []byte("xxxx"), Format: Format("aiff")})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeCorruptPayloads(t *testing.T) {
	junk := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 512)
	for _, f := range SupportedFormats {
		_, err := Decode(Buffer{Data: junk, Format: f})
		assert.ErrorIs(t, err, ErrCorruptAudio, "format %s", f)
	}
}

func TestDecodeEmptyWAV(t *testing.T) {
	data := wavBytes(t, nil, TargetSampleRate, 1)
	_, err := Decode(Buffer{Data: data, Format: FormatWAV})
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestDecodeCapsDuration(t *testing.T) {
	// Audio longer than the cap is truncated instead of growing without
	// bound. The payload is silence so it compresses to a cheap header
	// plus a zeroed data chunk.
	seconds := MaxDecodedSeconds + 1
	dataLen := uint32(seconds * TargetSampleRate * 2)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(TargetSampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(TargetSampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(make([]byte, dataLen))

	w, err := Decode(Buffer{Data: buf.Bytes(), Format: FormatWAV})
	require.NoError(t, err)
	assert.Equal(t, TargetSampleRate*MaxDecodedSeconds, len(w.Samples))
}

func TestParseFormat(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Format
		ok   bool
	}{
		{"mp3", FormatMP3, true},
		{" WAV ", FormatWAV, true},
		{"FLAC", FormatFLAC, true},
		{"ogg", FormatOGG, true},
		{"m4a", "", false},
		{"", "", false},
	} {
		got, ok := ParseFormat(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}
