package turn

import "github.com/DoyleJ11/moonlit-client/pkg/types"

// Flags is the client's ephemeral per-turn and per-night record. Nothing in
// here is sent to the service.
type Flags struct {
	// Keys the flags were last reconciled against.
	TurnPlayerID string
	Stage        types.WorkflowStage
	NightStage   types.NightStage

	Cued            bool // the current AI speaker has been cued this turn
	AudioPlaying    bool // the cued clip is still playing
	AdvanceInFlight bool

	WolfSubmitted      bool
	DetectiveSubmitted bool
}

// Reconcile re-keys the flags against a fresh snapshot. Turn flags are
// cleared exactly when the current speaker or the workflow stage changes,
// night flags when the night stage changes. AdvanceInFlight belongs to the
// caller and survives reconciliation.
func Reconcile(f Flags, s types.Snapshot) Flags {
	turnChanged := f.TurnPlayerID != s.CurrentTurnPlayerID
	stageChanged := f.Stage != s.WorkflowStage
	if turnChanged || stageChanged {
		f.Cued = false
		f.AudioPlaying = false
	}
	if f.NightStage != s.NightStage || stageChanged {
		f.WolfSubmitted = false
		f.DetectiveSubmitted = false
	}
	f.TurnPlayerID = s.CurrentTurnPlayerID
	f.Stage = s.WorkflowStage
	f.NightStage = s.NightStage
	return f
}

// EnterNight clears every per-round flag.
func EnterNight(f Flags) Flags {
	return Flags{
		TurnPlayerID:    f.TurnPlayerID,
		Stage:           f.Stage,
		NightStage:      f.NightStage,
		AdvanceInFlight: f.AdvanceInFlight,
	}
}

// Input is what the gate needs beyond the snapshot.
type Input struct {
	Snapshot    types.Snapshot
	Flags       Flags
	IsHost      bool
	CaptureBusy bool // recording, transcoding or uploading
}

// CueSatisfied reports whether the current speaker no longer blocks the
// turn: humans always satisfy it, AI speakers once cued and silent.
func CueSatisfied(in Input) bool {
	speaker, ok := in.Snapshot.CurrentSpeaker()
	if !ok {
		return false
	}
	if !speaker.IsAI {
		return true
	}
	return in.Flags.Cued && !in.Flags.AudioPlaying
}

func atTerminal(s types.Snapshot) bool {
	n := len(s.TurnOrder)
	return n > 0 && s.CurrentTurnPosition == n
}

// AllSpoken reports whether the discussion has reached the last speaker and
// that speaker is done. It gates the derived voting phase.
func AllSpoken(in Input) bool {
	s := in.Snapshot
	if s.WorkflowStage != types.StageDiscussion || !atTerminal(s) {
		return false
	}
	if in.Flags.AudioPlaying || in.Flags.AdvanceInFlight {
		return false
	}
	return CueSatisfied(in)
}

// CanAdvanceTurn reports whether the host may move to the next speaker.
func CanAdvanceTurn(in Input) bool {
	s := in.Snapshot
	switch {
	case !in.IsHost:
		return false
	case s.WorkflowStage != types.StageDiscussion:
		return false
	case len(s.TurnOrder) == 0 || atTerminal(s):
		return false
	case in.Flags.AdvanceInFlight, in.Flags.AudioPlaying, in.CaptureBusy:
		return false
	}
	return CueSatisfied(in)
}

// NeedsCue reports whether the current speaker is an AI that still has to
// be cued this turn.
func NeedsCue(in Input) bool {
	speaker, ok := in.Snapshot.CurrentSpeaker()
	return ok && speaker.IsAI && !in.Flags.Cued &&
		in.Snapshot.WorkflowStage == types.StageDiscussion
}
