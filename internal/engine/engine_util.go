package engine

import "github.com/DoyleJ11/moonlit-client/pkg/types"

// AllCommands is the order controls are listed in.
var AllCommands = []CommandType{
	CmdCreate, CmdFindByCode, CmdJoin,
	CmdAddAI, CmdRemovePlayer, CmdStart,
	CmdSubmitWolf, CmdSubmitDetective, CmdAdvanceNight, CmdResolveNight,
	CmdCueSpeech, CmdAdvanceTurn,
	CmdVote, CmdTriggerAIVotes, CmdResolveVotes,
	CmdRecordStart, CmdRecordStop, CmdChat,
	CmdArchive, CmdReveal, CmdToggleDebug, CmdLoadDebug, CmdDelete,
}

func ContainsCommand(cmds []CommandType, t CommandType) bool {
	for _, c := range cmds {
		if c == t {
			return true
		}
	}
	return false
}

// DerivePhase maps a snapshot onto the client lifecycle. allSpoken promotes
// discussion to the voting sub-phase.
func DerivePhase(s types.Snapshot, allSpoken bool) Phase {
	if s.SessionID == "" {
		return PhaseNone
	}
	if s.Status == types.StatusEnded || s.WorkflowStage == types.StageEnded {
		return PhaseEnded
	}
	if s.Status == types.StatusWaiting || s.Status == "" {
		return PhaseWaiting
	}

	switch s.WorkflowStage {
	case types.StageNight:
		return nightPhase(s.NightStage)
	case types.StageDiscussion, types.StageVoting:
		if allSpoken {
			return PhaseVoting
		}
		return PhaseDiscussion
	}
	return PhaseWaiting
}

// EnteredNight reports a transition into night from any other phase, the
// point where every per-round flag is dropped.
func EnteredNight(prev, next Phase) bool {
	return next.Night() && !prev.Night()
}
