package engine

import (
	"errors"
	"testing"

	"github.com/DoyleJ11/moonlit-client/internal/turn"
	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

func ptr(s string) *string { return &s }

// table: host h, humans p1/p2, AI a1. Local player defaults to the host.
func newView() View {
	return View{
		LocalPlayerID: "h",
		Snapshot: types.Snapshot{
			SessionID: "g1",
			JoinCode:  "ABCD",
			Status:    types.StatusWaiting,
			Players: []types.Player{
				{PlayerID: "h", Name: "Host", IsHost: true, IsAlive: true},
				{PlayerID: "p1", Name: "P1", IsAlive: true},
				{PlayerID: "p2", Name: "P2", IsAlive: true},
				{PlayerID: "a1", Name: "AI", IsAI: true, IsAlive: true},
			},
		},
	}
}

func atNight(v View, stage types.NightStage) View {
	v.Snapshot.Status = types.StatusInProgress
	v.Snapshot.WorkflowStage = types.StageNight
	v.Snapshot.NightStage = stage
	v.Flags = turn.Reconcile(v.Flags, v.Snapshot)
	return v
}

// atDiscussion points the turn at pos over speakers h, a1, p1, p2.
func atDiscussion(v View, pos int) View {
	v.Snapshot.Status = types.StatusInProgress
	v.Snapshot.WorkflowStage = types.StageDiscussion
	v.Snapshot.RoundNumber = 1
	v.Snapshot.TurnOrder = nil
	for i, id := range []string{"h", "a1", "p1", "p2"} {
		p, _ := v.Snapshot.Player(id)
		v.Snapshot.TurnOrder = append(v.Snapshot.TurnOrder, types.TurnEntry{
			PlayerID: id, Name: p.Name, Order: i + 1, IsAI: p.IsAI, IsCurrent: i+1 == pos,
		})
		if i+1 == pos {
			v.Snapshot.CurrentTurnPlayerID = id
		}
	}
	v.Snapshot.CurrentTurnPosition = pos
	v.Flags = turn.Reconcile(v.Flags, v.Snapshot)
	return v
}

func withRole(v View, id string, role types.Role) View {
	v.LocalPlayerID = id
	v.HasAssignment = true
	v.Assignment = types.Assignment{PlayerID: id, Role: role, IsAlive: true}
	return v
}

func TestDerivePhase(t *testing.T) {
	cases := []struct {
		name      string
		snap      types.Snapshot
		allSpoken bool
		want      Phase
	}{
		{"no session", types.Snapshot{}, false, PhaseNone},
		{"lobby", types.Snapshot{SessionID: "g", Status: types.StatusWaiting, WorkflowStage: types.StageLobby}, false, PhaseWaiting},
		{"night unset stage", types.Snapshot{SessionID: "g", Status: types.StatusInProgress, WorkflowStage: types.StageNight}, false, PhaseNightWolves},
		{"night detective", types.Snapshot{SessionID: "g", Status: types.StatusInProgress, WorkflowStage: types.StageNight, NightStage: types.NightDetective}, false, PhaseNightDetective},
		{"night summary", types.Snapshot{SessionID: "g", Status: types.StatusInProgress, WorkflowStage: types.StageNight, NightStage: types.NightSummary}, false, PhaseNightSummary},
		{"discussion", types.Snapshot{SessionID: "g", Status: types.StatusInProgress, WorkflowStage: types.StageDiscussion}, false, PhaseDiscussion},
		{"voting is derived", types.Snapshot{SessionID: "g", Status: types.StatusInProgress, WorkflowStage: types.StageDiscussion}, true, PhaseVoting},
		{"ended", types.Snapshot{SessionID: "g", Status: types.StatusEnded, WorkflowStage: types.StageNight}, false, PhaseEnded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DerivePhase(tc.snap, tc.allSpoken); got != tc.want {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	cases := []struct {
		name    string
		view    View
		cmd     Command
		wantErr error
	}{
		{
			name:    "create needs a name",
			view:    View{},
			cmd:     Command{Type: CmdCreate, Name: "  "},
			wantErr: ErrNameRequired,
		},
		{
			name:    "find needs a code",
			view:    View{},
			cmd:     Command{Type: CmdFindByCode},
			wantErr: ErrCodeRequired,
		},
		{
			name:    "join after start is rejected",
			view:    atNight(newView(), types.NightWolves),
			cmd:     Command{Type: CmdJoin, Name: "Late"},
			wantErr: ErrWrongPhase,
		},
		{
			name: "start is host only",
			view: func() View { v := newView(); v.LocalPlayerID = "p1"; return v }(),
			cmd:  Command{Type: CmdStart}, wantErr: ErrNotHost,
		},
		{
			name: "start needs four players",
			view: func() View { v := newView(); v.Snapshot.Players = v.Snapshot.Players[:3]; return v }(),
			cmd:  Command{Type: CmdStart}, wantErr: ErrNotEnoughPlayers,
		},
		{
			name: "start with four players",
			view: newView(),
			cmd:  Command{Type: CmdStart},
		},
		{
			name: "host cannot be removed",
			view: newView(),
			cmd:  Command{Type: CmdRemovePlayer, TargetID: "h"}, wantErr: ErrInvalidTarget,
		},
		{
			name: "remove is lobby only",
			view: atNight(newView(), types.NightWolves),
			cmd:  Command{Type: CmdRemovePlayer, TargetID: "p1"}, wantErr: ErrWrongPhase,
		},
		{
			name: "wolf host must hunt before advancing",
			view: withRole(atNight(newView(), types.NightWolves), "h", types.RoleWerewolf),
			cmd:  Command{Type: CmdAdvanceNight}, wantErr: ErrActionPending,
		},
		{
			name: "civilian host may advance wolves",
			view: withRole(atNight(newView(), types.NightWolves), "h", types.RoleCivilian),
			cmd:  Command{Type: CmdAdvanceNight},
		},
		{
			name: "wolf host after hunting",
			view: func() View {
				v := withRole(atNight(newView(), types.NightWolves), "h", types.RoleWerewolf)
				v.Flags.WolfSubmitted = true
				return v
			}(),
			cmd: Command{Type: CmdAdvanceNight},
		},
		{
			name: "detective acts only in detective stage",
			view: withRole(atNight(newView(), types.NightWolves), "p1", types.RoleDetective),
			cmd:  Command{Type: CmdSubmitDetective, TargetID: "p2"}, wantErr: ErrWrongPhase,
		},
		{
			name: "civilian cannot hunt",
			view: withRole(atNight(newView(), types.NightWolves), "p1", types.RoleCivilian),
			cmd:  Command{Type: CmdSubmitWolf, TargetID: "p2"}, wantErr: ErrWrongRole,
		},
		{
			name: "wolf cannot target self",
			view: withRole(atNight(newView(), types.NightWolves), "p1", types.RoleWerewolf),
			cmd:  Command{Type: CmdSubmitWolf, TargetID: "p1"}, wantErr: ErrInvalidTarget,
		},
		{
			name: "resolve night only at summary",
			view: atNight(newView(), types.NightDetective),
			cmd:  Command{Type: CmdResolveNight}, wantErr: ErrWrongPhase,
		},
		{
			name: "advance past uncued ai",
			view: atDiscussion(newView(), 2),
			cmd:  Command{Type: CmdAdvanceTurn}, wantErr: ErrTurnBlocked,
		},
		{
			name: "advance blocked by capture",
			view: func() View { v := atDiscussion(newView(), 1); v.CaptureBusy = true; return v }(),
			cmd:  Command{Type: CmdAdvanceTurn}, wantErr: ErrCaptureBusy,
		},
		{
			name: "advance past cued ai",
			view: func() View { v := atDiscussion(newView(), 2); v.Flags.Cued = true; return v }(),
			cmd:  Command{Type: CmdAdvanceTurn},
		},
		{
			name: "cue twice",
			view: func() View { v := atDiscussion(newView(), 2); v.Flags.Cued = true; return v }(),
			cmd:  Command{Type: CmdCueSpeech}, wantErr: ErrAlreadyCued,
		},
		{
			name: "cue a human",
			view: atDiscussion(newView(), 1),
			cmd:  Command{Type: CmdCueSpeech}, wantErr: ErrWrongPhase,
		},
		{
			name: "vote before everyone spoke",
			view: atDiscussion(newView(), 3),
			cmd:  Command{Type: CmdVote, Abstain: true}, wantErr: ErrWrongPhase,
		},
		{
			name: "abstain in voting",
			view: atDiscussion(newView(), 4),
			cmd:  Command{Type: CmdVote, Abstain: true},
		},
		{
			name: "vote for self",
			view: atDiscussion(newView(), 4),
			cmd:  Command{Type: CmdVote, TargetID: "h"}, wantErr: ErrInvalidTarget,
		},
		{
			name: "vote for eliminated player",
			view: func() View {
				v := atDiscussion(newView(), 4)
				v.Snapshot.Players[1].IsAlive = false
				return v
			}(),
			cmd: Command{Type: CmdVote, TargetID: "p1"}, wantErr: ErrInvalidTarget,
		},
		{
			name: "dead players cannot vote",
			view: func() View {
				v := withRole(atDiscussion(newView(), 4), "p2", types.RoleCivilian)
				v.Assignment.IsAlive = false
				return v
			}(),
			cmd: Command{Type: CmdVote, Abstain: true}, wantErr: ErrNotAlive,
		},
		{
			name: "reveal in lobby",
			view: newView(),
			cmd:  Command{Type: CmdReveal}, wantErr: ErrWrongPhase,
		},
		{
			name: "reveal mid-night",
			view: atNight(newView(), types.NightDetective),
			cmd:  Command{Type: CmdReveal},
		},
		{
			name: "chat needs text",
			view: newView(),
			cmd:  Command{Type: CmdChat, Text: " "}, wantErr: ErrTextRequired,
		},
		{
			name: "archive needs a path",
			view: withRole(atNight(newView(), types.NightWolves), "p1", types.RoleCivilian),
			cmd:  Command{Type: CmdArchive, Path: " "}, wantErr: ErrPathRequired,
		},
		{
			name: "any player can archive",
			view: withRole(atNight(newView(), types.NightWolves), "p1", types.RoleCivilian),
			cmd:  Command{Type: CmdArchive, Path: "clips.zip"},
		},
		{
			name: "debug read is host only",
			view: withRole(newView(), "p1", types.RoleCivilian),
			cmd:  Command{Type: CmdLoadDebug}, wantErr: ErrNotHost,
		},
		{
			name: "no session",
			view: View{},
			cmd:  Command{Type: CmdAdvanceTurn}, wantErr: ErrNoSession,
		},
		{
			name: "unknown command",
			view: newView(),
			cmd:  Command{Type: "Dance"}, wantErr: ErrUnsupportedCommand,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.view, tc.cmd)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLegal_HostVsPlayer(t *testing.T) {
	v := atDiscussion(newView(), 1)

	host := Legal(v)
	if !ContainsCommand(host, CmdAdvanceTurn) {
		t.Fatalf("host should be able to advance, got %v", host)
	}
	if ContainsCommand(host, CmdVote) {
		t.Fatalf("voting should be closed mid-discussion, got %v", host)
	}

	v.LocalPlayerID = "p1"
	player := Legal(v)
	for _, c := range []CommandType{CmdAdvanceTurn, CmdReveal, CmdDelete, CmdStart} {
		if ContainsCommand(player, c) {
			t.Fatalf("non-host should not get %s", c)
		}
	}
	if !ContainsCommand(player, CmdChat) {
		t.Fatalf("chat should be open to everyone, got %v", player)
	}
}

func TestResolve(t *testing.T) {
	v := atDiscussion(newView(), 4)
	v.Snapshot.Votes = []types.Vote{
		{VoterID: "h", TargetPlayerID: ptr("a1")},
		{VoterID: "p1", TargetPlayerID: ptr("a1")},
		{VoterID: "p2", TargetPlayerID: ptr("p1")},
	}
	got := Resolve(v)
	if got.Type != ResolveEliminate || got.TargetID != "a1" {
		t.Fatalf("want eliminate a1, got %+v", got)
	}

	v.Snapshot.Votes = []types.Vote{
		{VoterID: "h", TargetPlayerID: ptr("a1")},
		{VoterID: "p1", TargetPlayerID: ptr("p2")},
	}
	if got := Resolve(v); got.Type != ResolveClose || !got.Tally.Top.IsTie {
		t.Fatalf("want close on tie, got %+v", got)
	}

	// votes from the eliminated no longer count
	v.Snapshot.Players[1].IsAlive = false
	v.Snapshot.Votes = []types.Vote{
		{VoterID: "p1", TargetPlayerID: ptr("p2")},
		{VoterID: "h"},
	}
	if got := Resolve(v); got.Type != ResolveClose {
		t.Fatalf("want close on abstain majority, got %+v", got)
	}
}

func TestNightOrder(t *testing.T) {
	stage := types.NightNone
	var seen []types.NightStage
	for {
		next, ok := NextNightStage(stage)
		if !ok {
			break
		}
		seen = append(seen, next)
		stage = next
	}
	if len(seen) != 2 || seen[0] != types.NightDetective || seen[1] != types.NightSummary {
		t.Fatalf("unexpected night order %v", seen)
	}
	if !EnteredNight(PhaseDiscussion, PhaseNightWolves) || EnteredNight(PhaseNightWolves, PhaseNightDetective) {
		t.Fatalf("EnteredNight misreports transitions")
	}
}
