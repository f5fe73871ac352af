package engine

import (
	"errors"
	"strings"

	"github.com/DoyleJ11/moonlit-client/internal/turn"
	"github.com/DoyleJ11/moonlit-client/internal/vote"
	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

var ErrNoSession = errors.New("no active session")
var ErrNotHost = errors.New("only the host can do that")
var ErrWrongPhase = errors.New("not available in this phase")
var ErrTurnBlocked = errors.New("current speaker has not finished")
var ErrNotAlive = errors.New("eliminated players cannot act")
var ErrWrongRole = errors.New("your role cannot do that")
var ErrInvalidTarget = errors.New("invalid target")
var ErrActionPending = errors.New("night action not submitted yet")
var ErrNotEnoughPlayers = errors.New("need at least 4 players to start")
var ErrNameRequired = errors.New("name is required")
var ErrCodeRequired = errors.New("join code is required")
var ErrTextRequired = errors.New("message cannot be empty")
var ErrPathRequired = errors.New("destination path is required")
var ErrCaptureBusy = errors.New("audio capture in progress")
var ErrAlreadyCued = errors.New("speaker already cued")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrSessionEnded = errors.New("session already ended")

// MinPlayers is the smallest table the service will deal roles to.
const MinPlayers = 4

type Phase string

const (
	PhaseNone           Phase = "none"
	PhaseWaiting        Phase = "waiting"
	PhaseNightWolves    Phase = "night_wolves"
	PhaseNightDetective Phase = "night_detective"
	PhaseNightSummary   Phase = "night_summary"
	PhaseDiscussion     Phase = "discussion"
	PhaseVoting         Phase = "voting" // derived, never sent by the service
	PhaseEnded          Phase = "ended"
)

func (p Phase) Night() bool {
	return p == PhaseNightWolves || p == PhaseNightDetective || p == PhaseNightSummary
}

type CommandType string

const (
	CmdCreate          CommandType = "Create"
	CmdFindByCode      CommandType = "FindByCode"
	CmdJoin            CommandType = "Join"
	CmdStart           CommandType = "Start"
	CmdAddAI           CommandType = "AddAI"
	CmdRemovePlayer    CommandType = "RemovePlayer"
	CmdAdvanceNight    CommandType = "AdvanceNight"
	CmdResolveNight    CommandType = "ResolveNight"
	CmdSubmitWolf      CommandType = "SubmitWolf"
	CmdSubmitDetective CommandType = "SubmitDetective"
	CmdCueSpeech       CommandType = "CueSpeech"
	CmdAdvanceTurn     CommandType = "AdvanceTurn"
	CmdVote            CommandType = "Vote"
	CmdTriggerAIVotes  CommandType = "TriggerAIVotes"
	CmdResolveVotes    CommandType = "ResolveVotes"
	CmdReveal          CommandType = "Reveal"
	CmdChat            CommandType = "Chat"
	CmdRecordStart     CommandType = "RecordStart"
	CmdRecordStop      CommandType = "RecordStop"
	CmdDelete          CommandType = "Delete"
	CmdToggleDebug     CommandType = "ToggleDebug"
	CmdLoadDebug       CommandType = "LoadDebug"
	CmdArchive         CommandType = "Archive"
)

/*
	Create / FindByCode / Join    -> identity established, polling starts
	Start                        -> night{wolves}
	SubmitWolf, AdvanceNight     -> night{detective}
	SubmitDetective, AdvanceNight-> night{summary}
	AdvanceNight | ResolveNight  -> discussion (or ended)
	CueSpeech, AdvanceTurn ...   -> last speaker done => voting (local only)
	Vote*, ResolveVotes          -> night (next round) or ended
	Reveal                       -> ended from anywhere in progress
*/

type Command struct {
	Type     CommandType
	TargetID string // RemovePlayer, SubmitWolf, SubmitDetective, Vote
	Abstain  bool   // Vote with no target
	Name     string // host, player or AI name
	Code     string
	Text     string
	Enabled  bool
	Path     string // Archive destination
}

// View is everything the state machine reads. It is assembled by the
// session owner and never mutated here.
type View struct {
	Snapshot      types.Snapshot
	Assignment    types.Assignment
	HasAssignment bool
	LocalPlayerID string
	Flags         turn.Flags
	CaptureBusy   bool
}

func (v View) local() (types.Player, bool) {
	return v.Snapshot.Player(v.LocalPlayerID)
}

// IsHost reports whether the local player hosts the session.
func (v View) IsHost() bool {
	p, ok := v.local()
	return ok && p.IsHost
}

func (v View) alive() bool {
	if v.HasAssignment {
		return v.Assignment.IsAlive
	}
	p, ok := v.local()
	return ok && p.IsAlive
}

func (v View) role() types.Role {
	if v.HasAssignment {
		return v.Assignment.Role
	}
	return ""
}

func (v View) gate() turn.Input {
	return turn.Input{
		Snapshot:    v.Snapshot,
		Flags:       v.Flags,
		IsHost:      v.IsHost(),
		CaptureBusy: v.CaptureBusy,
	}
}

// AllSpoken is the discussion-complete predicate for this view.
func (v View) AllSpoken() bool { return turn.AllSpoken(v.gate()) }

// CanAdvanceTurn is the turn gate for this view.
func (v View) CanAdvanceTurn() bool { return turn.CanAdvanceTurn(v.gate()) }

func (v View) Phase() Phase { return DerivePhase(v.Snapshot, v.AllSpoken()) }

// Check validates cmd against the view before any remote call is made.
// The service re-validates everything; a nil error only means the control
// should be enabled.
func Check(v View, cmd Command) error {
	if err := gate(v, cmd.Type); err != nil {
		return err
	}
	return validate(v, cmd)
}

// gate is the role and phase check for a command type, ignoring its
// arguments.
func gate(v View, t CommandType) error {
	switch t {
	case CmdCreate, CmdFindByCode:
		return nil
	case CmdJoin:
		if v.Snapshot.SessionID == "" {
			return ErrNoSession
		}
		if v.Snapshot.Status != types.StatusWaiting {
			return ErrWrongPhase
		}
		return nil
	}

	if v.Snapshot.SessionID == "" || v.LocalPlayerID == "" {
		return ErrNoSession
	}
	phase := v.Phase()

	switch t {
	case CmdStart:
		if !v.IsHost() {
			return ErrNotHost
		}
		if phase != PhaseWaiting {
			return ErrWrongPhase
		}
		if len(v.Snapshot.Players) < MinPlayers {
			return ErrNotEnoughPlayers
		}

	case CmdAddAI, CmdRemovePlayer:
		if !v.IsHost() {
			return ErrNotHost
		}
		if phase != PhaseWaiting {
			return ErrWrongPhase
		}

	case CmdAdvanceNight:
		if !v.IsHost() {
			return ErrNotHost
		}
		if !phase.Night() {
			return ErrWrongPhase
		}
		// Only our own pending action is visible to us; the service checks
		// the rest.
		if pendingNightAction(v, phase) {
			return ErrActionPending
		}

	case CmdResolveNight:
		if !v.IsHost() {
			return ErrNotHost
		}
		if phase != PhaseNightSummary {
			return ErrWrongPhase
		}

	case CmdSubmitWolf:
		if phase != PhaseNightWolves {
			return ErrWrongPhase
		}
		if v.role() != types.RoleWerewolf {
			return ErrWrongRole
		}
		if !v.alive() {
			return ErrNotAlive
		}

	case CmdSubmitDetective:
		if phase != PhaseNightDetective {
			return ErrWrongPhase
		}
		if v.role() != types.RoleDetective {
			return ErrWrongRole
		}
		if !v.alive() {
			return ErrNotAlive
		}

	case CmdCueSpeech:
		if phase != PhaseDiscussion && phase != PhaseVoting {
			return ErrWrongPhase
		}
		speaker, ok := v.Snapshot.CurrentSpeaker()
		if !ok || !speaker.IsAI {
			return ErrWrongPhase
		}
		if !v.IsHost() && speaker.PlayerID != v.LocalPlayerID {
			return ErrNotHost
		}
		if v.Flags.Cued {
			return ErrAlreadyCued
		}

	case CmdAdvanceTurn:
		if !v.IsHost() {
			return ErrNotHost
		}
		if phase != PhaseDiscussion {
			return ErrWrongPhase
		}
		if v.CaptureBusy {
			return ErrCaptureBusy
		}
		if !v.CanAdvanceTurn() {
			return ErrTurnBlocked
		}

	case CmdVote:
		if phase != PhaseVoting {
			return ErrWrongPhase
		}
		if !v.alive() {
			return ErrNotAlive
		}

	case CmdTriggerAIVotes, CmdResolveVotes:
		if !v.IsHost() {
			return ErrNotHost
		}
		if phase != PhaseVoting {
			return ErrWrongPhase
		}

	case CmdReveal:
		if !v.IsHost() {
			return ErrNotHost
		}
		if phase == PhaseWaiting || phase == PhaseNone {
			return ErrWrongPhase
		}
		if phase == PhaseEnded {
			return ErrSessionEnded
		}

	case CmdRecordStart:
		if v.CaptureBusy {
			return ErrCaptureBusy
		}
		if phase != PhaseWaiting && !v.alive() {
			return ErrNotAlive
		}

	case CmdRecordStop, CmdChat, CmdArchive:
		// always available inside a session

	case CmdDelete, CmdToggleDebug, CmdLoadDebug:
		if !v.IsHost() {
			return ErrNotHost
		}

	default:
		return ErrUnsupportedCommand
	}
	return nil
}

func validate(v View, cmd Command) error {
	switch cmd.Type {
	case CmdCreate, CmdJoin:
		if strings.TrimSpace(cmd.Name) == "" {
			return ErrNameRequired
		}
	case CmdFindByCode:
		if strings.TrimSpace(cmd.Code) == "" {
			return ErrCodeRequired
		}
	case CmdChat:
		if strings.TrimSpace(cmd.Text) == "" {
			return ErrTextRequired
		}
	case CmdArchive:
		if strings.TrimSpace(cmd.Path) == "" {
			return ErrPathRequired
		}
	case CmdRemovePlayer:
		p, ok := v.Snapshot.Player(cmd.TargetID)
		if !ok || p.IsHost {
			return ErrInvalidTarget
		}
	case CmdSubmitWolf, CmdSubmitDetective:
		return aliveOther(v, cmd.TargetID)
	case CmdVote:
		if cmd.Abstain {
			return nil
		}
		return aliveOther(v, cmd.TargetID)
	}
	return nil
}

func aliveOther(v View, id string) error {
	if id == "" || id == v.LocalPlayerID {
		return ErrInvalidTarget
	}
	p, ok := v.Snapshot.Player(id)
	if !ok || !p.IsAlive {
		return ErrInvalidTarget
	}
	return nil
}

func pendingNightAction(v View, phase Phase) bool {
	if !v.alive() {
		return false
	}
	switch phase {
	case PhaseNightWolves:
		return v.role() == types.RoleWerewolf && !v.Flags.WolfSubmitted
	case PhaseNightDetective:
		return v.role() == types.RoleDetective && !v.Flags.DetectiveSubmitted
	}
	return false
}

// Legal lists the command types whose controls should be enabled. Target
// and text arguments are not considered.
func Legal(v View) []CommandType {
	var out []CommandType
	for _, t := range AllCommands {
		if gate(v, t) == nil {
			out = append(out, t)
		}
	}
	return out
}

type ResolutionType string

const (
	ResolveEliminate ResolutionType = "eliminate"
	ResolveClose     ResolutionType = "close"
)

type Resolution struct {
	Type     ResolutionType
	TargetID string
	Tally    vote.Result
}

// Resolve decides how the host ends the voting phase: eliminate the clear
// leader, or close the day on a tie or abstain majority.
func Resolve(v View) Resolution {
	s := v.Snapshot
	res := vote.Tally(vote.AliveVotes(s.Votes, s.Players), s.Players)
	if id, ok := res.Eliminates(); ok {
		return Resolution{Type: ResolveEliminate, TargetID: id, Tally: res}
	}
	return Resolution{Type: ResolveClose, Tally: res}
}
