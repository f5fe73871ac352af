package session

import (
	"github.com/DoyleJ11/moonlit-client/internal/audio"
	"github.com/DoyleJ11/moonlit-client/internal/engine"
	"github.com/DoyleJ11/moonlit-client/internal/turn"
	"github.com/DoyleJ11/moonlit-client/internal/vote"
	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

// View is a read-only copy of everything a front end renders. Version
// increases with every change the loop publishes.
type View struct {
	Version       int
	Snapshot      types.Snapshot
	Assignment    types.Assignment
	HasAssignment bool
	PlayerID      string
	IsHost        bool

	Phase          engine.Phase
	Legal          []engine.CommandType
	Busy           []engine.CommandType
	Flags          turn.Flags
	AllSpoken      bool
	CanAdvanceTurn bool
	NeedsCue       bool

	VotingComplete bool
	Voted          bool // the local player has a vote on record
	Tally          vote.Result

	Capture     audio.Status
	PlayingClip string
	Banner      string
	Debug       types.DebugInfo
	Polling     bool

	VictoryTeam    string
	VictoryMessage string
}

func (s *Session) view() View {
	ev := s.engineView()
	alive := vote.AliveVotes(s.snap.Votes, s.snap.Players)

	v := View{
		Version:       s.version,
		Snapshot:      s.snap,
		Assignment:    s.assignment,
		HasAssignment: s.hasAssignment,
		PlayerID:      s.playerID,
		IsHost:        ev.IsHost(),

		Phase:          ev.Phase(),
		Legal:          engine.Legal(ev),
		Flags:          s.flags,
		AllSpoken:      ev.AllSpoken(),
		CanAdvanceTurn: ev.CanAdvanceTurn(),
		NeedsCue: turn.NeedsCue(turn.Input{
			Snapshot: s.snap, Flags: s.flags, IsHost: ev.IsHost(), CaptureBusy: ev.CaptureBusy,
		}),

		VotingComplete: vote.Complete(alive, s.snap.Players),
		Voted:          s.playerID != "" && vote.HasVoted(alive, s.playerID),
		Tally:          vote.Tally(alive, s.snap.Players),

		Capture:     s.captureStatus,
		PlayingClip: s.playingClip,
		Banner:      s.banner,
		Debug:       s.debug,
		Polling:     s.ticker != nil,
	}
	for _, t := range engine.AllCommands {
		if s.busy[t] {
			v.Busy = append(v.Busy, t)
		}
	}
	if v.Phase == engine.PhaseEnded {
		v.VictoryTeam = s.snap.VictoryTeam
		v.VictoryMessage = s.snap.VictoryMessage
	}
	return v
}

// Allowed reports whether t is legal and not already running.
func (v View) Allowed(t engine.CommandType) bool {
	return engine.ContainsCommand(v.Legal, t) && !engine.ContainsCommand(v.Busy, t)
}
