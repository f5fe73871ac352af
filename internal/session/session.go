package session

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/moonlit-client/internal/audio"
	"github.com/DoyleJ11/moonlit-client/internal/engine"
	"github.com/DoyleJ11/moonlit-client/internal/fault"
	"github.com/DoyleJ11/moonlit-client/internal/logging"
	"github.com/DoyleJ11/moonlit-client/internal/turn"
	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

var ErrBusy = errors.New("that action is already in progress")
var ErrReset = errors.New("session was reset")
var ErrClosed = errors.New("session closed")

const DefaultPollInterval = 3 * time.Second

type Msg interface{ isSessionMsg() }

// Do runs a command. Reply, if set, receives the outcome once the remote
// call settles; the loop itself never waits for it.
type Do struct {
	Cmd   engine.Command
	Reply chan error
}

func (Do) isSessionMsg() {}

// Refresh polls immediately, outside the ticker cadence.
type Refresh struct{}

func (Refresh) isSessionMsg() {}

type Reset struct {
	Reply chan struct{}
}

func (Reset) isSessionMsg() {}

type GetView struct {
	Reply chan View
}

func (GetView) isSessionMsg() {}

type Subscribe struct {
	ID     string
	Outbox chan View // receives a view after every change
}

func (Subscribe) isSessionMsg() {}

type Unsubscribe struct{ ID string }

func (Unsubscribe) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// continuations posted back by goroutines the loop started

type pollResult struct {
	epoch, seq uint64
	patch      types.SnapshotPatch
	assignment types.Assignment
	err        error
}

func (pollResult) isSessionMsg() {}

type actionResult struct {
	epoch   uint64
	cmd     engine.Command
	reply   chan error
	outcome outcome
	err     error
}

func (actionResult) isSessionMsg() {}

type captureChanged struct{ status audio.Status }

func (captureChanged) isSessionMsg() {}

type playbackFinished struct{ finished audio.Finished }

func (playbackFinished) isSessionMsg() {}

type Options struct {
	Remote         Remote
	Device         audio.Device
	Decoder        audio.Decoder
	Speaker        audio.Speaker
	Clock          clockwork.Clock
	PollInterval   time.Duration
	MaxUploadBytes int
	Logger         *zap.Logger
}

// Session is the single owner of the local copy of a game: snapshot,
// assignment, identity, turn flags, busy set and the audio devices. All of
// it is touched only from loop.
type Session struct {
	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	remote   Remote
	clock    clockwork.Clock
	interval time.Duration
	log      *zap.Logger
	capture  *audio.Pipeline
	playback *audio.Playback

	snap          types.Snapshot
	assignment    types.Assignment
	hasAssignment bool
	playerID      string
	flags         turn.Flags
	lastPhase     engine.Phase
	busy          map[engine.CommandType]bool
	banner        string
	debug         types.DebugInfo
	captureStatus audio.Status
	captureSeq    uint64
	playingClip   string

	// epoch is bumped by every reset; results started under an older
	// epoch are discarded.
	epoch       uint64
	epochCtx    context.Context
	epochCancel context.CancelFunc

	ticker  clockwork.Ticker
	pollSeq uint64 // last issued
	applied uint64 // last merged, or superseded by an action response

	version int
	clients map[string]chan View
}

func New(parent context.Context, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	log := logging.OrNop(opts.Logger)

	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		inbox:         make(chan Msg, 64),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		remote:        opts.Remote,
		clock:         opts.Clock,
		interval:      opts.PollInterval,
		log:           log.Named("session"),
		busy:          make(map[engine.CommandType]bool),
		captureStatus: audio.Status{State: audio.StateIdle},
		lastPhase:     engine.PhaseNone,
		clients:       make(map[string]chan View),
	}
	s.epochCtx, s.epochCancel = context.WithCancel(ctx)

	// Device callbacks can fire from inside Close or Stop while the loop
	// is the caller, so they must never block on the inbox.
	s.capture = audio.NewPipeline(opts.Device, opts.Decoder, opts.Remote, audio.Options{
		MaxBytes: opts.MaxUploadBytes,
		OnChange: func(st audio.Status) { go s.post(captureChanged{st}) },
		Logger:   log,
	})
	s.playback = audio.NewPlayback(opts.Speaker, func(f audio.Finished) { go s.post(playbackFinished{f}) }, log)

	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		var tick <-chan time.Time
		if s.ticker != nil {
			tick = s.ticker.Chan()
		}

		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case <-tick:
			s.poll()

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Do:
				s.handleDo(msg)

			case actionResult:
				s.handleResult(msg)

			case pollResult:
				s.handlePoll(msg)

			case Refresh:
				s.poll()

			case captureChanged:
				if msg.status.Seq <= s.captureSeq {
					break
				}
				s.captureSeq = msg.status.Seq
				s.captureStatus = msg.status
				s.changed()

			case playbackFinished:
				f := msg.finished
				if f.Err != nil {
					s.log.Warn("clip playback failed", zap.String("clip_id", f.ClipID), zap.Error(f.Err))
				}
				if f.ClipID == "" || f.ClipID != s.playingClip {
					break
				}
				s.playingClip = ""
				s.flags.AudioPlaying = false
				s.changed()

			case Reset:
				s.reset()
				s.changed()
				if msg.Reply != nil {
					msg.Reply <- struct{}{}
				}

			case GetView:
				msg.Reply <- s.view()

			case Subscribe:
				s.clients[msg.ID] = msg.Outbox
				s.send(msg.ID, msg.Outbox, s.view())

			case Unsubscribe:
				delete(s.clients, msg.ID)

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

// post delivers a continuation unless the session is gone.
func (s *Session) post(m Msg) {
	select {
	case s.inbox <- m:
	case <-s.ctx.Done():
	}
}

func (s *Session) changed() {
	s.version++
	v := s.view()
	for id, ch := range s.clients {
		s.send(id, ch, v)
	}
}

func (s *Session) send(id string, ch chan View, v View) {
	select {
	case ch <- v:
	default:
		// slow subscriber
		close(ch)
		delete(s.clients, id)
	}
}

func (s *Session) engineView() engine.View {
	return engine.View{
		Snapshot:      s.snap,
		Assignment:    s.assignment,
		HasAssignment: s.hasAssignment,
		LocalPlayerID: s.playerID,
		Flags:         s.flags,
		CaptureBusy:   s.capture.State().Busy(),
	}
}

// setSnapshot installs a merged snapshot and re-keys the turn flags.
func (s *Session) setSnapshot(next types.Snapshot) {
	s.snap = next
	s.flags = turn.Reconcile(s.flags, next)
	if s.playingClip != "" && !s.flags.AudioPlaying {
		// the turn moved on under a playing clip
		s.stopPlayback()
	}

	phase := s.engineView().Phase()
	if engine.EnteredNight(s.lastPhase, phase) {
		s.flags = turn.EnterNight(s.flags)
	}
	s.lastPhase = phase
}

func (s *Session) pollable() bool {
	return s.snap.SessionID != "" && s.playerID != ""
}

func (s *Session) ensurePolling() {
	if s.ticker == nil && s.pollable() {
		s.ticker = s.clock.NewTicker(s.interval)
	}
}

func (s *Session) stopPolling() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

// poll fetches the snapshot and assignment concurrently. Results carry a
// sequence number so a slow response never overwrites a newer one.
func (s *Session) poll() {
	if !s.pollable() {
		return
	}
	s.pollSeq++
	sid, pid := s.snap.SessionID, s.playerID
	res := pollResult{epoch: s.epoch, seq: s.pollSeq}
	ctx := s.epochCtx

	go func() {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			p, err := s.remote.Snapshot(gctx, sid)
			res.patch = p
			return err
		})
		g.Go(func() error {
			a, err := s.remote.Assignment(gctx, sid, pid)
			res.assignment = a
			return err
		})
		res.err = g.Wait()
		s.post(res)
	}()
}

func (s *Session) handlePoll(m pollResult) {
	if m.epoch != s.epoch || m.seq <= s.applied {
		s.log.Debug("dropping superseded poll", zap.Uint64("seq", m.seq), zap.Uint64("applied", s.applied))
		return
	}
	if m.err != nil {
		s.log.Warn("poll failed",
			zap.String("session_id", s.snap.SessionID),
			zap.Uint64("seq", m.seq),
			zap.Error(fault.TransientPoll(m.err)))
		return
	}
	s.applied = m.seq

	next := m.patch.Apply(s.snap)
	if s.hasAssignment && reflect.DeepEqual(next, s.snap) && reflect.DeepEqual(m.assignment, s.assignment) {
		return
	}
	s.assignment = m.assignment
	s.hasAssignment = true
	s.setSnapshot(next)
	s.changed()
}

func (s *Session) stopPlayback() {
	s.playingClip = ""
	s.flags.AudioPlaying = false
	s.playback.Stop()
}

// teardown releases every resource in a fixed order: capture first, then
// playback, then the poll ticker.
func (s *Session) teardown() {
	if err := s.capture.Close(); err != nil {
		s.log.Warn("capture teardown", zap.Error(err))
	}
	s.stopPlayback()
	s.stopPolling()
}

func (s *Session) reset() {
	s.teardown()

	s.epochCancel()
	s.epoch++
	s.epochCtx, s.epochCancel = context.WithCancel(s.ctx)

	s.snap = types.Snapshot{}
	s.assignment = types.Assignment{}
	s.hasAssignment = false
	s.playerID = ""
	s.flags = turn.Flags{}
	s.lastPhase = engine.PhaseNone
	s.busy = make(map[engine.CommandType]bool)
	s.banner = ""
	s.debug = types.DebugInfo{}
	s.captureStatus = audio.Status{State: audio.StateIdle}
	s.applied = s.pollSeq
}

func (s *Session) shutdown() {
	s.teardown()
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	s.epochCancel()
	s.cancel()
}

// Inbox exposes the loop's mailbox.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the loop has exited and every resource is released.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) deliver(ctx context.Context, m Msg) error {
	select {
	case s.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// Do submits cmd and waits for its outcome.
func (s *Session) Do(ctx context.Context, cmd engine.Command) error {
	reply := make(chan error, 1)
	if err := s.deliver(ctx, Do{Cmd: cmd, Reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

func (s *Session) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := s.deliver(ctx, GetView{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-s.done:
		return View{}, ErrClosed
	}
}

// Reset leaves the current game and releases every device.
func (s *Session) Reset(ctx context.Context) error {
	reply := make(chan struct{}, 1)
	if err := s.deliver(ctx, Reset{Reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// Refresh asks for an immediate poll.
func (s *Session) Refresh(ctx context.Context) error {
	return s.deliver(ctx, Refresh{})
}

// Close stops the loop and waits for teardown.
func (s *Session) Close() {
	select {
	case s.inbox <- Shutdown{}:
	case <-s.done:
	}
	<-s.done
}
