package audio

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clip(t *testing.T, ms int) []byte {
	t.Helper()
	data, err := EncodeWAV(sine(1000, 1, ms))
	require.NoError(t, err)
	return data
}

func waitTimer(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
}

func next(t *testing.T, ch <-chan Finished) Finished {
	t.Helper()
	select {
	case f := <-ch:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no playback result")
		return Finished{}
	}
}

func TestPlayback_PlaysToEnd(t *testing.T) {
	clock := clockwork.NewFakeClock()
	finished := make(chan Finished, 4)
	pb := NewPlayback(ClockSpeaker{Clock: clock}, func(f Finished) { finished <- f }, nil)

	pb.Play(context.Background(), "c1", clip(t, 500), MIMEWav)
	waitTimer(t, clock)
	id, ok := pb.Playing()
	assert.True(t, ok)
	assert.Equal(t, "c1", id)

	clock.Advance(499 * time.Millisecond)
	assert.Empty(t, finished)

	clock.Advance(time.Millisecond)
	f := next(t, finished)
	assert.Equal(t, Finished{ClipID: "c1"}, f)
	_, ok = pb.Playing()
	assert.False(t, ok)
}

func TestPlayback_NewClipInterrupts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	finished := make(chan Finished, 4)
	pb := NewPlayback(ClockSpeaker{Clock: clock}, func(f Finished) { finished <- f }, nil)

	pb.Play(context.Background(), "c1", clip(t, 500), MIMEWav)
	waitTimer(t, clock)
	pb.Play(context.Background(), "c2", clip(t, 200), MIMEWav)

	assert.Equal(t, Finished{ClipID: "c1", Interrupted: true}, next(t, finished))
	id, _ := pb.Playing()
	assert.Equal(t, "c2", id)

	waitTimer(t, clock)
	pb.Stop()
	assert.Equal(t, Finished{ClipID: "c2", Interrupted: true}, next(t, finished))

	pb.Stop() // nothing playing
}

func TestPlayback_SpeakerError(t *testing.T) {
	finished := make(chan Finished, 1)
	pb := NewPlayback(ClockSpeaker{Clock: clockwork.NewFakeClock()}, func(f Finished) { finished <- f }, nil)

	pb.Play(context.Background(), "bad", []byte("not audio"), "audio/ogg")
	f := next(t, finished)
	assert.False(t, f.Interrupted)
	assert.True(t, errors.Is(f.Err, ErrUnsupportedFormat))
}

func TestFileDevice(t *testing.T) {
	_, err := FileDevice{}.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrDeviceUnavailable)

	_, err = FileDevice{Path: t.TempDir() + "/missing.wav"}.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrDeviceUnavailable)

	data := clip(t, 300)
	path := t.TempDir() + "/take.wav"
	require.NoError(t, os.WriteFile(path, data, 0o600))

	rec, err := FileDevice{Path: path, ChunkBytes: 100}.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MIMEWav, rec.MIMEType())

	buf := NewChunkBuffer(len(data))
	require.NoError(t, rec.Start(func(b []byte) { _ = buf.Append(b) }))
	require.Eventually(t, func() bool { return buf.Size() == len(data) }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, rec.Stop())
	require.NoError(t, rec.Stop())
	require.NoError(t, rec.Release())
	require.NoError(t, rec.Release())
	got, err := buf.Flush()
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
