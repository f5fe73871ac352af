package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-audio/wav"
	"github.com/jonboulle/clockwork"
)

// FileDevice stands in for a microphone by streaming a file from disk in
// fixed-size chunks. An empty Path means no capture capability.
type FileDevice struct {
	Path       string
	ChunkBytes int
}

func (d FileDevice) Acquire(ctx context.Context) (Recorder, error) {
	if d.Path == "" {
		return nil, ErrDeviceUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	chunk := d.ChunkBytes
	if chunk <= 0 {
		chunk = 4096
	}
	return &fileRecorder{f: f, chunk: chunk, mime: mimeFromExt(d.Path)}, nil
}

func mimeFromExt(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".wav":
		return MIMEWav
	case ".webm":
		return "audio/webm"
	case ".ogg":
		return "audio/ogg"
	}
	return "application/octet-stream"
}

type fileRecorder struct {
	f     *os.File
	chunk int
	mime  string

	mu          sync.Mutex
	stop        chan struct{}
	done        chan struct{}
	releaseOnce sync.Once
	releaseErr  error
}

func (r *fileRecorder) MIMEType() string { return r.mime }

func (r *fileRecorder) Start(onChunk func([]byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return errors.New("recorder already started")
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)
		buf := make([]byte, r.chunk)
		for {
			select {
			case <-stop:
				return
			default:
			}
			n, err := r.f.Read(buf)
			if n > 0 {
				onChunk(buf[:n])
			}
			if err != nil {
				// source exhausted; hold the device until stopped
				<-stop
				return
			}
		}
	}(r.stop, r.done)
	return nil
}

func (r *fileRecorder) Stop() error {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop = nil
	r.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}

// Release stops the reader if it is still running and closes the file.
func (r *fileRecorder) Release() error {
	r.releaseOnce.Do(func() {
		_ = r.Stop()
		r.releaseErr = r.f.Close()
	})
	return r.releaseErr
}

// ClockSpeaker "plays" a WAV clip by waiting out its duration on a clock.
type ClockSpeaker struct {
	Clock clockwork.Clock
}

func (s ClockSpeaker) Play(ctx context.Context, data []byte, mimeType string) error {
	d, err := ClipDuration(data)
	if err != nil {
		return err
	}
	t := s.Clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.Chan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClipDuration computes the play time of a WAV clip from its frame count.
func ClipDuration(data []byte) (time.Duration, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return 0, fmt.Errorf("%w: not a valid wav file", ErrUnsupportedFormat)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return 0, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return 0, fmt.Errorf("%w: missing format", ErrInvalidPCM)
	}
	frames := len(buf.Data) / buf.Format.NumChannels
	return time.Duration(frames) * time.Second / time.Duration(buf.Format.SampleRate), nil
}
