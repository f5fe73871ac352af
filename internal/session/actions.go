package session

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/DoyleJ11/moonlit-client/internal/audio"
	"github.com/DoyleJ11/moonlit-client/internal/engine"
	"github.com/DoyleJ11/moonlit-client/internal/fault"
	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

// outcome is what an action hands back to the loop.
type outcome struct {
	patch      *types.SnapshotPatch
	assignment *types.Assignment
	playerID   string // identity established by create or join
	fresh      bool   // drop the previous session before applying
	speakerID  string
	clip       *fetchedClip
	debug      *types.DebugInfo
	clipID     string // uploaded recording
	archived   int    // bytes written by Archive
}

type fetchedClip struct {
	id          string
	contentType string
	data        []byte
}

type action func(ctx context.Context) (outcome, error)

func withPatch(call func(ctx context.Context) (types.SnapshotPatch, error)) action {
	return func(ctx context.Context) (outcome, error) {
		p, err := call(ctx)
		if err != nil {
			return outcome{}, err
		}
		return outcome{patch: &p}, nil
	}
}

func reply(ch chan error, err error) {
	if ch != nil {
		ch <- err
	}
}

func (s *Session) handleDo(m Do) {
	cmd := m.Cmd
	if err := engine.Check(s.engineView(), cmd); err != nil {
		err = fault.Validation(err)
		s.banner = fault.Message(err)
		s.changed()
		reply(m.Reply, err)
		return
	}
	if s.busy[cmd.Type] {
		reply(m.Reply, ErrBusy)
		return
	}

	run := s.prepare(cmd)
	s.busy[cmd.Type] = true
	s.changed()

	epoch, ctx := s.epoch, s.epochCtx
	go func() {
		out, err := run(ctx)
		s.post(actionResult{epoch: epoch, cmd: cmd, reply: m.Reply, outcome: out, err: err})
	}()
}

// prepare binds cmd to the current identity and performs the local side
// effects that must happen before the call goes out.
func (s *Session) prepare(cmd engine.Command) action {
	sid, pid := s.snap.SessionID, s.playerID
	r := s.remote

	switch cmd.Type {
	case engine.CmdCreate:
		name := strings.TrimSpace(cmd.Name)
		return func(ctx context.Context) (outcome, error) {
			resp, err := r.CreateSession(ctx, name)
			if err != nil {
				return outcome{}, err
			}
			return outcome{patch: &resp.SnapshotPatch, playerID: resp.HostPlayerID, fresh: true}, nil
		}

	case engine.CmdFindByCode:
		code := cmd.Code
		return func(ctx context.Context) (outcome, error) {
			p, err := r.FindByCode(ctx, code)
			if err != nil {
				return outcome{}, err
			}
			return outcome{patch: &p, fresh: true}, nil
		}

	case engine.CmdJoin:
		name := strings.TrimSpace(cmd.Name)
		return func(ctx context.Context) (outcome, error) {
			a, err := r.Join(ctx, sid, name)
			if err != nil {
				return outcome{}, err
			}
			return outcome{assignment: &a, playerID: a.PlayerID}, nil
		}

	case engine.CmdStart:
		return withPatch(func(ctx context.Context) (types.SnapshotPatch, error) { return r.Start(ctx, sid, pid) })
	case engine.CmdReveal:
		return withPatch(func(ctx context.Context) (types.SnapshotPatch, error) { return r.Reveal(ctx, sid, pid) })
	case engine.CmdAdvanceNight:
		return withPatch(func(ctx context.Context) (types.SnapshotPatch, error) { return r.AdvanceNight(ctx, sid, pid) })
	case engine.CmdResolveNight:
		return withPatch(func(ctx context.Context) (types.SnapshotPatch, error) { return r.ResolveNight(ctx, sid, pid) })
	case engine.CmdTriggerAIVotes:
		return withPatch(func(ctx context.Context) (types.SnapshotPatch, error) { return r.TriggerAIVotes(ctx, sid, pid) })

	case engine.CmdAddAI:
		name := strings.TrimSpace(cmd.Name)
		return withPatch(func(ctx context.Context) (types.SnapshotPatch, error) { return r.AddAI(ctx, sid, pid, name) })

	case engine.CmdRemovePlayer:
		return withPatch(func(ctx context.Context) (types.SnapshotPatch, error) {
			return r.RemovePlayer(ctx, sid, pid, cmd.TargetID)
		})

	case engine.CmdSubmitWolf:
		return withPatch(func(ctx context.Context) (types.SnapshotPatch, error) {
			return r.SubmitWolfTarget(ctx, sid, pid, cmd.TargetID)
		})

	case engine.CmdSubmitDetective:
		return withPatch(func(ctx context.Context) (types.SnapshotPatch, error) {
			return r.SubmitDetectiveTarget(ctx, sid, pid, cmd.TargetID)
		})

	case engine.CmdAdvanceTurn:
		s.flags.AdvanceInFlight = true
		return withPatch(func(ctx context.Context) (types.SnapshotPatch, error) { return r.AdvanceTurn(ctx, sid, pid) })

	case engine.CmdCueSpeech:
		speaker, _ := s.snap.CurrentSpeaker()
		return s.cue(sid, pid, speaker.PlayerID)

	case engine.CmdVote:
		var target *string
		if !cmd.Abstain {
			t := cmd.TargetID
			target = &t
		}
		return withPatch(func(ctx context.Context) (types.SnapshotPatch, error) { return r.Vote(ctx, sid, pid, target) })

	case engine.CmdResolveVotes:
		res := engine.Resolve(s.engineView())
		s.log.Info("resolving votes",
			zap.String("resolution", string(res.Type)),
			zap.String("target", res.TargetID),
			zap.Int("top_count", res.Tally.Top.Count),
			zap.Bool("tie", res.Tally.Top.IsTie))
		if res.Type == engine.ResolveEliminate {
			return withPatch(func(ctx context.Context) (types.SnapshotPatch, error) {
				return r.ApplyVotes(ctx, sid, pid, res.TargetID)
			})
		}
		return withPatch(func(ctx context.Context) (types.SnapshotPatch, error) { return r.FinishRound(ctx, sid, pid) })

	case engine.CmdChat:
		text := strings.TrimSpace(cmd.Text)
		return withPatch(func(ctx context.Context) (types.SnapshotPatch, error) { return r.Chat(ctx, sid, pid, text) })

	case engine.CmdRecordStart:
		// recording and playback never overlap
		s.stopPlayback()
		owner := audio.Owner{SessionID: sid, PlayerID: pid}
		return func(ctx context.Context) (outcome, error) {
			return outcome{}, s.capture.Start(ctx, owner)
		}

	case engine.CmdRecordStop:
		return func(ctx context.Context) (outcome, error) {
			id, err := s.capture.Stop(ctx)
			return outcome{clipID: id}, err
		}

	case engine.CmdDelete:
		return func(ctx context.Context) (outcome, error) {
			return outcome{}, r.Delete(ctx, sid, pid)
		}

	case engine.CmdToggleDebug:
		enabled := cmd.Enabled
		return func(ctx context.Context) (outcome, error) {
			d, err := r.SetDebug(ctx, sid, pid, enabled)
			if err != nil {
				return outcome{}, err
			}
			return outcome{debug: &d}, nil
		}

	case engine.CmdLoadDebug:
		return func(ctx context.Context) (outcome, error) {
			d, err := r.Debug(ctx, sid)
			if err != nil {
				return outcome{}, err
			}
			return outcome{debug: &d}, nil
		}

	case engine.CmdArchive:
		dest := strings.TrimSpace(cmd.Path)
		return func(ctx context.Context) (outcome, error) {
			data, err := r.AudioArchive(ctx, sid, pid)
			if err != nil {
				return outcome{}, err
			}
			if err := os.WriteFile(dest, data, 0o600); err != nil {
				return outcome{}, fmt.Errorf("save archive: %w", err)
			}
			return outcome{archived: len(data)}, nil
		}
	}

	// Check rejects anything not listed above.
	return func(context.Context) (outcome, error) { return outcome{}, engine.ErrUnsupportedCommand }
}

// cue asks the service for the speaker's turn and downloads the clip it
// produced, if any. A failed download still counts as a cue.
func (s *Session) cue(sid, pid, speakerID string) action {
	return func(ctx context.Context) (outcome, error) {
		resp, err := s.remote.CueSpeech(ctx, sid, pid, speakerID)
		if err != nil {
			return outcome{}, err
		}
		out := outcome{speakerID: speakerID}
		if resp.AudioClip == nil || resp.AudioClip.ClipID == "" {
			return out, nil
		}
		data, err := s.remote.FetchAudio(ctx, sid, resp.AudioClip.ClipID)
		if err != nil {
			s.log.Warn("fetching cued clip", zap.String("clip_id", resp.AudioClip.ClipID), zap.Error(err))
			return out, nil
		}
		ct := resp.AudioClip.ContentType
		if ct == "" {
			ct = audio.MIMEWav
		}
		out.clip = &fetchedClip{id: resp.AudioClip.ClipID, contentType: ct, data: data}
		return out, nil
	}
}

func (s *Session) handleResult(m actionResult) {
	if m.epoch != s.epoch {
		reply(m.reply, ErrReset)
		return
	}
	delete(s.busy, m.cmd.Type)
	if m.cmd.Type == engine.CmdAdvanceTurn {
		s.flags.AdvanceInFlight = false
	}

	if m.err != nil {
		if fault.Surfaced(m.err) {
			s.banner = fault.Message(m.err)
		}
		s.log.Info("action failed", zap.String("command", string(m.cmd.Type)), zap.Error(m.err))
		s.changed()
		reply(m.reply, m.err)
		return
	}

	s.banner = ""
	out := m.outcome
	if out.fresh {
		s.reset()
	}
	wasPollable := s.pollable()
	if out.playerID != "" {
		s.playerID = out.playerID
	}
	if out.assignment != nil {
		s.assignment = *out.assignment
		s.hasAssignment = true
	}
	if out.patch != nil {
		// every poll issued so far is older than this response
		s.applied = s.pollSeq
		s.setSnapshot(out.patch.Apply(s.snap))
	}

	switch m.cmd.Type {
	case engine.CmdSubmitWolf:
		s.flags.WolfSubmitted = true
	case engine.CmdSubmitDetective:
		s.flags.DetectiveSubmitted = true
	case engine.CmdCueSpeech:
		s.cued(out)
		s.poll()
	case engine.CmdRecordStop:
		s.log.Info("recording uploaded", zap.String("clip_id", out.clipID))
		s.poll()
	case engine.CmdToggleDebug, engine.CmdLoadDebug:
		s.debug = *out.debug
	case engine.CmdArchive:
		s.log.Info("audio archive saved", zap.String("path", m.cmd.Path), zap.Int("bytes", out.archived))
	case engine.CmdDelete:
		s.reset()
	}

	s.ensurePolling()
	if !wasPollable && s.pollable() {
		s.poll()
	}
	s.changed()
	reply(m.reply, nil)
}

// cued records a successful cue and, when a clip came back, takes the
// speaker away from any capture in progress and plays it.
func (s *Session) cued(out outcome) {
	if s.flags.TurnPlayerID != out.speakerID {
		// the turn moved while the cue was in flight
		return
	}
	s.flags.Cued = true
	if out.clip == nil {
		return
	}
	if err := s.capture.Close(); err != nil {
		s.log.Warn("capture teardown for playback", zap.Error(err))
	}
	s.flags.AudioPlaying = true
	s.playingClip = out.clip.id
	s.playback.Play(s.epochCtx, out.clip.id, out.clip.data, out.clip.contentType)
}
