package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/DoyleJ11/moonlit-client/internal/audio"
	"github.com/DoyleJ11/moonlit-client/internal/engine"
	"github.com/DoyleJ11/moonlit-client/internal/session"
	"github.com/DoyleJ11/moonlit-client/internal/vote"
)

func phaseTitle(v session.View) string {
	switch v.Phase {
	case engine.PhaseNone:
		return "no game"
	case engine.PhaseWaiting:
		return fmt.Sprintf("lobby %s", v.Snapshot.JoinCode)
	case engine.PhaseEnded:
		return "game over: " + v.VictoryMessage
	}
	return fmt.Sprintf("round %d, %s", v.Snapshot.RoundNumber, strings.ReplaceAll(string(v.Phase), "_", " "))
}

func nameOf(v session.View, id string) string {
	if p, ok := v.Snapshot.Player(id); ok {
		return p.Name
	}
	return id
}

func render(w io.Writer, v session.View) {
	fmt.Fprintf(w, "\n%s\n", phaseTitle(v))
	if v.Phase == engine.PhaseNone {
		return
	}

	if v.HasAssignment && v.Assignment.Role != "" {
		fmt.Fprintf(w, "you are %s, a %s. %s\n", v.Assignment.Name, v.Assignment.Role, v.Assignment.RoleSummary)
		if len(v.Assignment.KnownAllies) > 0 {
			fmt.Fprintf(w, "pack: %s\n", strings.Join(v.Assignment.KnownAllies, ", "))
		}
		for _, n := range v.Assignment.Notes {
			fmt.Fprintf(w, "note: %s\n", n)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range v.Snapshot.Players {
		var tags []string
		if p.PlayerID == v.PlayerID {
			tags = append(tags, "you")
		}
		if p.IsHost {
			tags = append(tags, "host")
		}
		if p.IsAI {
			tags = append(tags, "ai")
		}
		if !p.IsAlive {
			tags = append(tags, "out")
		}
		if p.Role != "" {
			tags = append(tags, string(p.Role))
		}
		mark := " "
		if p.PlayerID == v.Snapshot.CurrentTurnPlayerID {
			mark = ">"
		}
		fmt.Fprintf(tw, "%s %s\t%s\n", mark, p.Name, strings.Join(tags, " "))
	}
	_ = tw.Flush()

	if n := len(v.Snapshot.TurnOrder); n > 0 {
		fmt.Fprintf(w, "turn %d/%d", v.Snapshot.CurrentTurnPosition, n)
		if v.NeedsCue {
			fmt.Fprint(w, " (waiting for cue)")
		}
		if v.Flags.AudioPlaying {
			fmt.Fprint(w, " (playing)")
		}
		fmt.Fprintln(w)
	}

	if len(v.Tally.Breakdown) > 0 {
		fmt.Fprint(w, "votes:")
		for _, b := range v.Tally.Breakdown {
			name := b.Name
			if b.TargetID == vote.AbstainKey {
				name = "abstain"
			}
			fmt.Fprintf(w, " %s=%d", name, b.Count)
		}
		if v.Tally.Top.IsTie {
			fmt.Fprint(w, " (tie)")
		}
		if v.Voted {
			fmt.Fprint(w, " (you voted)")
		}
		fmt.Fprintln(w)
	}

	switch {
	case v.Capture.State != "" && v.Capture.State != audio.StateIdle:
		fmt.Fprintf(w, "mic: %s %s\n", v.Capture.State, v.Capture.Message)
	case v.Capture.Message != "":
		fmt.Fprintf(w, "mic: %s\n", v.Capture.Message)
	}
	if v.Debug.Enabled && v.Debug.History != "" {
		fmt.Fprintf(w, "debug:\n%s\n", v.Debug.History)
	}
	if v.Banner != "" {
		fmt.Fprintf(w, "! %s\n", v.Banner)
	}

	var can []string
	for _, t := range v.Legal {
		if v.Allowed(t) {
			can = append(can, string(t))
		}
	}
	fmt.Fprintf(w, "available: %s\n", strings.Join(can, " "))
}
