package audio

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/moonlit-client/internal/fault"
	"github.com/DoyleJ11/moonlit-client/internal/logging"
	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

var ErrDeviceUnavailable = errors.New("no capture device")
var ErrBusy = errors.New("capture already in progress")
var ErrNotRecording = errors.New("not recording")
var ErrEmptyCapture = errors.New("nothing was recorded")
var ErrTooLarge = errors.New("recording is too large to upload")
var ErrTornDown = errors.New("capture was torn down")

type State string

const (
	StateIdle        State = "idle"
	StateRecording   State = "recording"
	StateStopping    State = "stopping"
	StateTranscoding State = "transcoding"
	StateUploading   State = "uploading"
	StateDone        State = "done"
	StateError       State = "error"
)

// Busy reports whether a capture holds the device or has an artifact in
// flight.
func (s State) Busy() bool {
	switch s {
	case StateRecording, StateStopping, StateTranscoding, StateUploading:
		return true
	}
	return false
}

// Device hands out exclusive recorder handles.
type Device interface {
	Acquire(ctx context.Context) (Recorder, error)
}

// Recorder is one open capture. Release must be safe to call after a failed
// or skipped Stop.
type Recorder interface {
	Start(onChunk func([]byte)) error
	Stop() error
	Release() error
	MIMEType() string
}

type Decoder interface {
	Decode(raw []byte, mimeType string) (PCM, error)
}

type Uploader interface {
	UploadAudio(ctx context.Context, sessionID, playerID, filename, contentType string, data []byte) (types.UploadResponse, error)
}

// Owner ties a capture to the session and player it uploads for.
type Owner struct {
	SessionID string
	PlayerID  string
}

type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
	Transcoded  bool // false when the raw capture was forwarded
}

// Status is published on every transition. Seq increases monotonically.
type Status struct {
	Seq     uint64
	State   State
	Message string
	ClipID  string
	Err     error
}

type Options struct {
	MaxBytes int
	OnChange func(Status)
	Logger   *zap.Logger
}

// Pipeline is the capture state machine. It owns at most one recorder and
// guarantees the recorder is released on every exit path.
type Pipeline struct {
	device   Device
	decoder  Decoder
	uploader Uploader
	buf      *ChunkBuffer
	maxBytes int
	onChange func(Status)
	log      *zap.Logger

	mu     sync.Mutex
	state  State
	rec    Recorder
	owner  Owner
	mime   string
	gen    uint64 // bumped by Close; work from an older gen is discarded
	seq    uint64
	cancel context.CancelFunc
	pubMu  sync.Mutex // serialises onChange calls
}

func NewPipeline(device Device, decoder Decoder, uploader Uploader, opts Options) *Pipeline {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 5 * 1024 * 1024
	}
	log := logging.OrNop(opts.Logger)
	return &Pipeline{
		device:   device,
		decoder:  decoder,
		uploader: uploader,
		buf:      NewChunkBuffer(opts.MaxBytes),
		maxBytes: opts.MaxBytes,
		onChange: opts.OnChange,
		log:      log.Named("capture"),
		state:    StateIdle,
	}
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// transition moves to next if gen is still current. The observer runs
// outside p.mu.
func (p *Pipeline) transition(gen uint64, next State, st Status) bool {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return false
	}
	p.state = next
	p.seq++
	st.Seq = p.seq
	st.State = next
	p.mu.Unlock()

	p.publish(st)
	return true
}

func (p *Pipeline) publish(st Status) {
	if p.onChange == nil {
		return
	}
	p.pubMu.Lock()
	defer p.pubMu.Unlock()
	p.onChange(st)
}

// fail reports err and returns the pipeline to idle. The idle status keeps
// the error so it stays visible until the next capture.
func (p *Pipeline) fail(gen uint64, err error) error {
	p.log.Warn("capture failed", zap.Error(err))
	st := Status{Message: fault.Message(err), Err: err}
	p.transition(gen, StateError, st)
	p.transition(gen, StateIdle, st)
	return err
}

// Start acquires the device and begins buffering chunks.
func (p *Pipeline) Start(ctx context.Context, owner Owner) error {
	p.mu.Lock()
	if p.rec != nil || p.state != StateIdle {
		p.mu.Unlock()
		return ErrBusy
	}
	p.state = StateRecording
	p.owner = owner
	gen := p.gen
	p.mu.Unlock()
	p.buf.Clear()

	rec, err := p.device.Acquire(ctx)
	if err != nil {
		if !errors.Is(err, ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
		}
		return p.fail(gen, fault.DeviceUnavailable(err))
	}

	p.mu.Lock()
	if gen != p.gen {
		// torn down while the device was being acquired
		p.mu.Unlock()
		return multierr.Append(ErrTornDown, rec.Release())
	}
	p.rec = rec
	p.mime = rec.MIMEType()
	p.mu.Unlock()

	if err := rec.Start(p.chunkSink(gen)); err != nil {
		p.mu.Lock()
		if p.rec == rec {
			p.rec = nil
		}
		p.mu.Unlock()
		err = multierr.Append(fmt.Errorf("start recorder: %w", err), rec.Release())
		return p.fail(gen, fault.DeviceUnavailable(err))
	}

	p.transition(gen, StateRecording, Status{Message: "Recording..."})
	return nil
}

func (p *Pipeline) chunkSink(gen uint64) func([]byte) {
	return func(chunk []byte) {
		p.mu.Lock()
		stale := gen != p.gen
		p.mu.Unlock()
		if stale || len(chunk) == 0 {
			return
		}
		full := p.buf.Overflowed()
		if err := p.buf.Append(chunk); err != nil && !full {
			p.log.Warn("capture exceeded size limit",
				zap.Int("buffered", p.buf.Size()), zap.Int("limit", p.maxBytes))
		}
	}
}

// stopAndRelease stops rec and releases it no matter how Stop returns,
// including a panic inside the recorder.
func stopAndRelease(rec Recorder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = multierr.Append(err, fmt.Errorf("recorder panic: %v", r))
		}
		err = multierr.Append(err, rec.Release())
	}()
	return rec.Stop()
}

// Stop ends the capture, converts it and uploads it. It blocks until the
// upload finishes and returns the stored clip id.
func (p *Pipeline) Stop(ctx context.Context) (string, error) {
	p.mu.Lock()
	rec := p.rec
	if rec == nil || p.state != StateRecording {
		p.mu.Unlock()
		return "", ErrNotRecording
	}
	p.rec = nil
	gen, owner, mime := p.gen, p.owner, p.mime
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	p.transition(gen, StateStopping, Status{Message: "Stopping..."})
	stopErr := stopAndRelease(rec)
	raw, bufErr := p.buf.Flush()
	if stopErr != nil {
		p.log.Warn("recorder stop", zap.Error(stopErr))
	}
	if bufErr != nil {
		return "", p.fail(gen, fault.Validation(fmt.Errorf("%w (limit %d bytes): %w", ErrTooLarge, p.maxBytes, bufErr)))
	}
	if len(raw) == 0 {
		return "", p.fail(gen, fault.Validation(multierr.Append(ErrEmptyCapture, stopErr)))
	}

	if !p.transition(gen, StateTranscoding, Status{Message: "Converting..."}) {
		return "", ErrTornDown
	}
	art := p.transcode(raw, mime)
	if len(art.Data) > p.maxBytes {
		return "", p.fail(gen, fault.Validation(fmt.Errorf("%w (%d bytes, limit %d)", ErrTooLarge, len(art.Data), p.maxBytes)))
	}

	if !p.transition(gen, StateUploading, Status{Message: "Uploading..."}) {
		return "", ErrTornDown
	}
	resp, err := p.uploader.UploadAudio(ctx, owner.SessionID, owner.PlayerID, art.Filename, art.ContentType, art.Data)

	p.mu.Lock()
	stale := gen != p.gen
	if !stale {
		p.cancel = nil
	}
	p.mu.Unlock()
	if stale {
		return "", ErrTornDown
	}
	if err != nil {
		return "", p.fail(gen, fmt.Errorf("upload: %w", err))
	}

	msg := "Uploaded."
	if !art.Transcoded {
		msg = "Uploaded original recording."
	}
	done := Status{Message: msg, ClipID: resp.ClipID}
	p.transition(gen, StateDone, done)
	p.transition(gen, StateIdle, done)
	return resp.ClipID, nil
}

// transcode converts raw into a WAV artifact, forwarding raw unchanged when
// it cannot be decoded.
func (p *Pipeline) transcode(raw []byte, mime string) Artifact {
	name := uuid.NewString()
	pcm, err := p.decoder.Decode(raw, mime)
	if err == nil {
		var data []byte
		if data, err = EncodeWAV(pcm); err == nil {
			return Artifact{Filename: name + ".wav", ContentType: MIMEWav, Data: data, Transcoded: true}
		}
	}
	p.log.Warn("transcode failed; forwarding raw capture",
		zap.String("mime", mime), zap.Error(fault.DecodeFailure(err)))
	if mime == "" {
		mime = "application/octet-stream"
	}
	return Artifact{Filename: name + extFor(mime), ContentType: mime, Data: raw}
}

func extFor(mime string) string {
	base := strings.TrimSpace(strings.SplitN(mime, ";", 2)[0])
	sub := path.Base(base)
	switch sub {
	case "wav", "x-wav", "wave":
		return ".wav"
	case "webm", "ogg", "mp4", "mpeg":
		return "." + sub
	}
	return ".bin"
}

// Close tears the pipeline down: any open recorder is stopped and released,
// buffered audio is discarded and an in-flight upload is cancelled and its
// result ignored. Close is safe to call repeatedly.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	p.gen++
	rec := p.rec
	p.rec = nil
	cancel := p.cancel
	p.cancel = nil
	was := p.state
	p.state = StateIdle
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	var err error
	if rec != nil {
		err = stopAndRelease(rec)
	}
	if cancel != nil {
		cancel()
	}
	p.buf.Clear()

	if was != StateIdle {
		p.publish(Status{Seq: seq, State: StateIdle})
	}
	return err
}
