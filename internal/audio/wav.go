package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	MIMEWav = "audio/wav"

	wavHeaderSize  = 44
	bytesPerSample = 2
)

var ErrInvalidPCM = errors.New("invalid pcm")
var ErrUnsupportedFormat = errors.New("unsupported audio container")

// PCM is planar linear audio: Data[c][i] is sample i of channel c, nominally
// in [-1, 1].
type PCM struct {
	SampleRate int
	Channels   int
	Data       [][]float32
}

// Frames is the per-channel sample count.
func (p PCM) Frames() int {
	if len(p.Data) == 0 {
		return 0
	}
	return len(p.Data[0])
}

func (p PCM) validate() error {
	if p.Channels <= 0 || p.SampleRate <= 0 || len(p.Data) != p.Channels {
		return fmt.Errorf("%w: %d channels at %d Hz with %d planes", ErrInvalidPCM, p.Channels, p.SampleRate, len(p.Data))
	}
	n := len(p.Data[0])
	for c := range p.Data {
		if len(p.Data[c]) != n {
			return fmt.Errorf("%w: channel %d has %d frames, want %d", ErrInvalidPCM, c, len(p.Data[c]), n)
		}
	}
	return nil
}

// EncodeWAV renders p as a canonical 16-bit PCM WAV file. Samples are
// interleaved per frame and clamped to [-1, 1] before quantization.
func EncodeWAV(p PCM) ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	frames := p.Frames()
	dataLen := frames * p.Channels * bytesPerSample
	blockAlign := p.Channels * bytesPerSample

	out := make([]byte, wavHeaderSize+dataLen)
	le := binary.LittleEndian

	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(36+dataLen))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16)
	le.PutUint16(out[20:22], 1) // PCM
	le.PutUint16(out[22:24], uint16(p.Channels))
	le.PutUint32(out[24:28], uint32(p.SampleRate))
	le.PutUint32(out[28:32], uint32(p.SampleRate*blockAlign))
	le.PutUint16(out[32:34], uint16(blockAlign))
	le.PutUint16(out[34:36], 16)
	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(dataLen))

	off := wavHeaderSize
	for i := 0; i < frames; i++ {
		for c := 0; c < p.Channels; c++ {
			le.PutUint16(out[off:off+2], uint16(quantize(p.Data[c][i])))
			off += bytesPerSample
		}
	}
	return out, nil
}

func quantize(s float32) int16 {
	if math.IsNaN(float64(s)) {
		return 0
	}
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	if s < 0 {
		return int16(s * 0x8000)
	}
	return int16(s * 0x7FFF)
}

// WAVDecoder decodes RIFF/WAVE integer PCM captures.
type WAVDecoder struct{}

func isWAV(raw []byte, mimeType string) bool {
	if len(raw) >= 12 && string(raw[0:4]) == "RIFF" && string(raw[8:12]) == "WAVE" {
		return true
	}
	mt := strings.ToLower(mimeType)
	return strings.HasPrefix(mt, "audio/wav") || strings.HasPrefix(mt, "audio/x-wav") || strings.HasPrefix(mt, "audio/wave")
}

func (WAVDecoder) Decode(raw []byte, mimeType string) (PCM, error) {
	if !isWAV(raw, mimeType) {
		return PCM{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}
	d := wav.NewDecoder(bytes.NewReader(raw))
	if !d.IsValidFile() {
		return PCM{}, fmt.Errorf("%w: not a valid wav file", ErrUnsupportedFormat)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("decode wav: %w", err)
	}
	return planar(buf, int(d.BitDepth))
}

func planar(buf *goaudio.IntBuffer, bitDepth int) (PCM, error) {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 {
		return PCM{}, fmt.Errorf("%w: missing format", ErrInvalidPCM)
	}
	if bitDepth <= 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return PCM{}, fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, bitDepth)
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	scale := float32(int64(1) << (bitDepth - 1))
	// 8-bit WAV is unsigned
	var offset int
	if bitDepth == 8 {
		offset = 128
	}

	out := PCM{SampleRate: buf.Format.SampleRate, Channels: ch, Data: make([][]float32, ch)}
	for c := range out.Data {
		out.Data[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < ch; c++ {
			out.Data[c][i] = float32(buf.Data[i*ch+c]-offset) / scale
		}
	}
	return out, out.validate()
}
