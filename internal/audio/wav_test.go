package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(rate, channels, frames int) PCM {
	p := PCM{SampleRate: rate, Channels: channels, Data: make([][]float32, channels)}
	for c := range p.Data {
		p.Data[c] = make([]float32, frames)
		for i := range p.Data[c] {
			p.Data[c][i] = float32(0.5 * math.Sin(float64(i+c)/8))
		}
	}
	return p
}

func TestEncodeWAV_Header(t *testing.T) {
	for _, tc := range []struct{ rate, channels, frames int }{
		{16000, 1, 1600},
		{44100, 2, 441},
		{8000, 3, 0},
	} {
		out, err := EncodeWAV(sine(tc.rate, tc.channels, tc.frames))
		require.NoError(t, err)

		le := binary.LittleEndian
		dataLen := tc.frames * tc.channels * 2
		require.Len(t, out, 44+dataLen)
		assert.Equal(t, "RIFF", string(out[0:4]))
		assert.Equal(t, uint32(36+dataLen), le.Uint32(out[4:8]))
		assert.Equal(t, "WAVEfmt ", string(out[8:16]))
		assert.Equal(t, uint32(16), le.Uint32(out[16:20]))
		assert.Equal(t, uint16(1), le.Uint16(out[20:22]))
		assert.Equal(t, uint16(tc.channels), le.Uint16(out[22:24]))
		assert.Equal(t, uint32(tc.rate), le.Uint32(out[24:28]))
		assert.Equal(t, uint32(tc.rate*tc.channels*2), le.Uint32(out[28:32]))
		assert.Equal(t, uint16(tc.channels*2), le.Uint16(out[32:34]))
		assert.Equal(t, uint16(16), le.Uint16(out[34:36]))
		assert.Equal(t, "data", string(out[36:40]))
		assert.Equal(t, uint32(dataLen), le.Uint32(out[40:44]))
	}
}

func TestEncodeWAV_ClampsAndInterleaves(t *testing.T) {
	p := PCM{
		SampleRate: 8000,
		Channels:   2,
		Data: [][]float32{
			{2, -1, 0.5},
			{-3, 1, -0.5},
		},
	}
	out, err := EncodeWAV(p)
	require.NoError(t, err)

	samples := make([]int16, 6)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(out[44+2*i:]))
	}
	assert.Equal(t, []int16{32767, -32768, -32768, 32767, 16383, -16384}, samples)
}

func TestEncodeWAV_RejectsRaggedChannels(t *testing.T) {
	_, err := EncodeWAV(PCM{SampleRate: 8000, Channels: 2, Data: [][]float32{{0, 0}, {0}}})
	assert.ErrorIs(t, err, ErrInvalidPCM)

	_, err = EncodeWAV(PCM{SampleRate: 8000, Channels: 2, Data: [][]float32{{0}}})
	assert.ErrorIs(t, err, ErrInvalidPCM)
}

func TestWAVDecoder(t *testing.T) {
	src := sine(16000, 2, 320)
	raw, err := EncodeWAV(src)
	require.NoError(t, err)

	got, err := WAVDecoder{}.Decode(raw, "audio/webm")
	require.NoError(t, err, "RIFF header wins over a wrong mime type")
	assert.Equal(t, 16000, got.SampleRate)
	assert.Equal(t, 2, got.Channels)
	assert.Equal(t, 320, got.Frames())
	assert.InDelta(t, src.Data[1][7], got.Data[1][7], 1.0/16384)

	_, err = WAVDecoder{}.Decode([]byte("OggS...."), "audio/ogg")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestClipDuration(t *testing.T) {
	raw, err := EncodeWAV(sine(8000, 1, 4000))
	require.NoError(t, err)
	d, err := ClipDuration(raw)
	require.NoError(t, err)
	assert.Equal(t, "500ms", d.String())
}
