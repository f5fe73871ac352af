package audio

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/DoyleJ11/moonlit-client/internal/logging"
)

// Speaker plays one clip and blocks until it ends or ctx is cancelled.
type Speaker interface {
	Play(ctx context.Context, data []byte, mimeType string) error
}

// Finished is reported once per clip handed to Playback.
type Finished struct {
	ClipID      string
	Interrupted bool
	Err         error
}

// Playback owns the speaker. Only one clip plays at a time; starting a new
// clip or calling Stop interrupts the current one.
type Playback struct {
	speaker  Speaker
	onFinish func(Finished)
	log      *zap.Logger

	mu     sync.Mutex
	clipID string
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPlayback(speaker Speaker, onFinish func(Finished), log *zap.Logger) *Playback {
	log = logging.OrNop(log)
	if onFinish == nil {
		onFinish = func(Finished) {}
	}
	return &Playback{speaker: speaker, onFinish: onFinish, log: log.Named("playback")}
}

// Play interrupts whatever is playing and starts clipID.
func (pb *Playback) Play(ctx context.Context, clipID string, data []byte, mimeType string) {
	pb.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	pb.mu.Lock()
	pb.clipID, pb.cancel, pb.done = clipID, cancel, done
	pb.mu.Unlock()

	go func() {
		err := pb.speaker.Play(ctx, data, mimeType)
		interrupted := ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled))
		if interrupted {
			err = nil
		}

		pb.mu.Lock()
		if pb.done == done {
			pb.clipID, pb.cancel, pb.done = "", nil, nil
		}
		pb.mu.Unlock()
		cancel()
		close(done)

		if err != nil {
			pb.log.Warn("clip playback failed", zap.String("clip_id", clipID), zap.Error(err))
		}
		pb.onFinish(Finished{ClipID: clipID, Interrupted: interrupted, Err: err})
	}()
}

// Stop interrupts the current clip and waits until the speaker lets go.
func (pb *Playback) Stop() {
	pb.mu.Lock()
	cancel, done := pb.cancel, pb.done
	pb.clipID, pb.cancel, pb.done = "", nil, nil
	pb.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Playing returns the clip currently on the speaker.
func (pb *Playback) Playing() (string, bool) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.clipID, pb.clipID != ""
}
