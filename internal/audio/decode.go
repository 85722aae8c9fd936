package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	resampling "github.com/tphakala/go-audio-resampling"
)

// MaxDecodedSeconds bounds the decoded waveform length. 25MB of 16-bit
// mono PCM at 16kHz is roughly 800s; anything past this cap cannot come
// from a valid payload under the service size limit.
const MaxDecodedSeconds = 600

// Decode turns an encoded audio buffer into a mono waveform at the
// canonical sample rate. It fails with ErrUnsupportedFormat for unknown
// format tags, ErrCorruptAudio when the bytes cannot be parsed as the
// declared format, and ErrEmptyAudio when decoding yields no samples.
func Decode(buf Buffer) (*Waveform, error) {
	var (
		samples []float64
		rate    int
		err     error
	)

	switch buf.Format {
	case FormatWAV:
		samples, rate, err = decodeWAV(buf.Data)
	case FormatMP3:
		samples, rate, err = decodeMP3(buf.Data)
	case FormatOGG:
		samples, rate, err = decodeOGG(buf.Data)
	case FormatFLAC:
		samples, rate, err = decodeFLAC(buf.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, buf.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptAudio, err)
	}
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}

	if max := rate * MaxDecodedSeconds; len(samples) > max {
		samples = samples[:max]
	}

	if rate != TargetSampleRate {
		samples, err = resample(samples, rate, TargetSampleRate)
		if err != nil {
			return nil, fmt.Errorf("resample %dHz to %dHz: %w", rate, TargetSampleRate, err)
		}
		if len(samples) == 0 {
			return nil, ErrEmptyAudio
		}
	}

	return &Waveform{Samples: samples, SampleRate: TargetSampleRate}, nil
}

// decodeWAV decodes a RIFF/WAV payload to mono float64 samples.
func decodeWAV(data []byte) ([]float64, int, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("wav decode: %w", err)
	}
	if pcm == nil || pcm.Format == nil {
		return nil, 0, fmt.Errorf("wav decode: no PCM data")
	}

	bitDepth := pcm.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(d.BitDepth)
	}
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	channels := pcm.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	samples := downmixInts(pcm.Data, channels, scale)
	return samples, pcm.Format.SampleRate, nil
}

// decodeMP3 decodes an MP3 payload. go-mp3 always emits interleaved
// 16-bit little-endian stereo.
func decodeMP3(data []byte) ([]float64, int, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("mp3 decode: %w", err)
	}
	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3 decode: %w", err)
	}

	frames := len(pcm) / 4 // 2 channels x 2 bytes
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		l := int16(pcm[i*4]) | int16(pcm[i*4+1])<<8
		r := int16(pcm[i*4+2]) | int16(pcm[i*4+3])<<8
		samples[i] = (float64(l) + float64(r)) / 2 / 32768.0
	}
	return samples, d.SampleRate(), nil
}

// decodeOGG decodes an Ogg/Vorbis payload.
func decodeOGG(data []byte) ([]float64, int, error) {
	pcm, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("ogg decode: %w", err)
	}

	channels := format.Channels
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(pcm[i*channels+ch])
		}
		samples[i] = sum / float64(channels)
	}
	return samples, format.SampleRate, nil
}

// decodeFLAC decodes a FLAC payload frame by frame.
func decodeFLAC(data []byte) ([]float64, int, error) {
	stream, err := flac.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("flac decode: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	if channels < 1 {
		channels = 1
	}
	scale := float64(int64(1) << (info.BitsPerSample - 1))

	var samples []float64
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("flac decode: %w", err)
		}
		if len(frame.Subframes) == 0 {
			continue
		}
		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			var sum float64
			for ch := 0; ch < channels && ch < len(frame.Subframes); ch++ {
				if i < len(frame.Subframes[ch].Samples) {
					sum += float64(frame.Subframes[ch].Samples[i])
				}
			}
			samples = append(samples, sum/float64(channels)/scale)
		}
	}
	return samples, int(info.SampleRate), nil
}

// downmixInts averages interleaved integer channels into mono floats
// normalized by the given full-scale value.
func downmixInts(data []int, channels int, scale float64) []float64 {
	frames := len(data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(data[i*channels+ch])
		}
		samples[i] = sum / float64(channels) / scale
	}
	return samples
}

// resample converts mono samples from srcRate to dstRate.
func resample(samples []float64, srcRate, dstRate int) ([]float64, error) {
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, err
	}
	out, err := rs.Process(samples)
	if err != nil {
		return nil, err
	}
	return out, nil
}
