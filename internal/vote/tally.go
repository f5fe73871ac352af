package vote

import (
	"sort"

	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

// AbstainKey is the bucket key for votes without a target.
const AbstainKey = ""

type Bucket struct {
	TargetID string // AbstainKey for abstentions
	Name     string
	Count    int
}

func (b Bucket) Abstain() bool { return b.TargetID == AbstainKey }

// Top is the leading bucket. ID is nil when nobody voted or when the
// abstain bucket leads.
type Top struct {
	ID    *string
	Count int
	IsTie bool
}

type Result struct {
	Top Top
	// Breakdown is display-only: count desc, then name.
	Breakdown []Bucket
}

// Eliminates reports the player the tally removes, if any. Ties and
// abstain-led tallies eliminate nobody.
func (r Result) Eliminates() (string, bool) {
	if r.Top.IsTie || r.Top.ID == nil {
		return "", false
	}
	return *r.Top.ID, true
}

// Tally aggregates votes. The roster is used only to resolve names; callers
// restrict votes to alive voters with AliveVotes first.
func Tally(votes []types.Vote, roster []types.Player) Result {
	latest := make(map[string]string, len(votes))
	for _, v := range votes {
		target := AbstainKey
		if v.TargetPlayerID != nil {
			target = *v.TargetPlayerID
		}
		latest[v.VoterID] = target
	}

	counts := make(map[string]int)
	for _, target := range latest {
		counts[target]++
	}

	// Keys are scanned in sorted order so the reported top id is stable
	// under ties; max/second do not depend on the order anyway.
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		topKey string
		max    int
		second int
	)
	for _, k := range keys {
		c := counts[k]
		switch {
		case c > max:
			second = max
			max = c
			topKey = k
		case c > second:
			second = c
		}
	}

	res := Result{Top: Top{Count: max, IsTie: max > 0 && second == max}}
	if max > 0 && topKey != AbstainKey {
		id := topKey
		res.Top.ID = &id
	}

	names := make(map[string]string, len(roster))
	for _, p := range roster {
		names[p.PlayerID] = p.Name
	}
	for _, k := range keys {
		name := names[k]
		if k == AbstainKey {
			name = "Abstain"
		} else if name == "" {
			name = k
		}
		res.Breakdown = append(res.Breakdown, Bucket{TargetID: k, Name: name, Count: counts[k]})
	}
	sort.SliceStable(res.Breakdown, func(i, j int) bool {
		if res.Breakdown[i].Count != res.Breakdown[j].Count {
			return res.Breakdown[i].Count > res.Breakdown[j].Count
		}
		return res.Breakdown[i].Name < res.Breakdown[j].Name
	})
	return res
}

// AliveVotes drops votes cast by players who are no longer alive or no
// longer on the roster.
func AliveVotes(votes []types.Vote, roster []types.Player) []types.Vote {
	alive := aliveSet(roster)
	out := make([]types.Vote, 0, len(votes))
	for _, v := range votes {
		if alive[v.VoterID] {
			out = append(out, v)
		}
	}
	return out
}

// Complete reports whether every alive player has a live vote.
func Complete(votes []types.Vote, roster []types.Player) bool {
	alive := aliveSet(roster)
	if len(alive) == 0 {
		return false
	}
	voted := make(map[string]bool, len(votes))
	for _, v := range votes {
		if alive[v.VoterID] {
			voted[v.VoterID] = true
		}
	}
	return len(voted) == len(alive)
}

// HasVoted reports whether voterID has a live vote.
func HasVoted(votes []types.Vote, voterID string) bool {
	for _, v := range votes {
		if v.VoterID == voterID {
			return true
		}
	}
	return false
}

func aliveSet(roster []types.Player) map[string]bool {
	alive := make(map[string]bool, len(roster))
	for _, p := range roster {
		if p.IsAlive {
			alive[p.PlayerID] = true
		}
	}
	return alive
}
