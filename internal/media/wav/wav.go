// Package wav decodes PCM WAV files into normalized mono sample slices.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"voicematch/internal/services"
)

// Clip is a mono signal scaled to [-1, 1].
type Clip struct {
	SampleRate int
	Samples    []float64
}

// Duration returns the clip length.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// Seconds returns the clip length in seconds.
func (c Clip) Seconds() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Decode reads the WAV file at path.
func Decode(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()
	return DecodeReader(f)
}

// DecodeReader reads a WAV stream, down-mixing every channel to mono.
func DecodeReader(r io.ReadSeeker) (Clip, error) {
	dec := gowav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Clip{}, services.Wrap(services.ErrValidation, "decode", "wav", "invalid WAV file", dec.Err())
	}
	depth := int(dec.BitDepth)
	switch depth {
	case 8, 16, 24, 32:
	default:
		return Clip{}, services.Wrap(services.ErrValidation, "decode", "wav", fmt.Sprintf("unsupported bit depth %d", depth), nil)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, services.Wrap(services.ErrValidation, "decode", "wav", "read PCM data", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return Clip{}, services.Wrap(services.ErrValidation, "decode", "wav", "recording contains no audio", nil)
	}
	return toClip(buf, depth)
}

func toClip(buf *audio.IntBuffer, depth int) (Clip, error) {
	channels := buf.Format.NumChannels
	if channels <= 0 {
		return Clip{}, services.Wrap(services.ErrValidation, "decode", "wav", "invalid channel count", nil)
	}
	if buf.Format.SampleRate <= 0 {
		return Clip{}, services.Wrap(services.ErrValidation, "decode", "wav", "invalid sample rate", nil)
	}

	scale, offset := sampleScale(depth)
	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += (float64(buf.Data[i*channels+ch]) - offset) / scale
		}
		samples[i] = clamp(sum / float64(channels))
	}
	if len(samples) == 0 {
		return Clip{}, services.Wrap(services.ErrValidation, "decode", "wav", "recording contains no audio", errors.New("zero frames"))
	}
	return Clip{SampleRate: buf.Format.SampleRate, Samples: samples}, nil
}

// sampleScale returns the divisor and offset that map integer PCM to [-1, 1].
// 8-bit WAV is unsigned with a midpoint of 128.
func sampleScale(depth int) (float64, float64) {
	switch depth {
	case 8:
		return 128, 128
	case 24:
		return 1 << 23, 0
	case 32:
		return 1 << 31, 0
	default:
		return 1 << 15, 0
	}
}

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}

// Encode writes samples as 16-bit mono PCM WAV.
func Encode(w io.WriteSeeker, clip Clip) error {
	enc := gowav.NewEncoder(w, clip.SampleRate, 16, 1, 1)
	data := make([]int, len(clip.Samples))
	for i, s := range clip.Samples {
		data[i] = int(clamp(s) * 32767)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: clip.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return enc.Close()
}

// WriteFile encodes clip to a new file at path.
func WriteFile(path string, clip Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, clip); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
