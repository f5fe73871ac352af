package vote

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

func target(id string) *string { return &id }

func roster(ids ...string) []types.Player {
	out := make([]types.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.Player{PlayerID: id, Name: "name-" + id, IsAlive: true})
	}
	return out
}

func TestTally(t *testing.T) {
	players := roster("A", "B", "C", "D", "X", "Y")

	cases := []struct {
		name      string
		votes     []types.Vote
		wantID    *string
		wantCount int
		wantTie   bool
		eliminate bool
	}{
		{
			name: "clear majority with abstain",
			votes: []types.Vote{
				{VoterID: "A", TargetPlayerID: target("X")},
				{VoterID: "B", TargetPlayerID: target("X")},
				{VoterID: "C", TargetPlayerID: target("Y")},
				{VoterID: "D", TargetPlayerID: nil},
			},
			wantID:    target("X"),
			wantCount: 2,
			eliminate: true,
		},
		{
			name: "two-way tie",
			votes: []types.Vote{
				{VoterID: "A", TargetPlayerID: target("X")},
				{VoterID: "B", TargetPlayerID: target("Y")},
			},
			wantID:    target("X"),
			wantCount: 1,
			wantTie:   true,
		},
		{
			name:      "no votes",
			wantCount: 0,
		},
		{
			name: "abstain leads",
			votes: []types.Vote{
				{VoterID: "A"},
				{VoterID: "B"},
				{VoterID: "C", TargetPlayerID: target("X")},
			},
			wantCount: 2,
		},
		{
			name: "abstain ties with a target",
			votes: []types.Vote{
				{VoterID: "A"},
				{VoterID: "C", TargetPlayerID: target("X")},
			},
			wantCount: 1,
			wantTie:   true,
		},
		{
			name: "last vote per voter wins",
			votes: []types.Vote{
				{VoterID: "A", TargetPlayerID: target("X")},
				{VoterID: "B", TargetPlayerID: target("Y")},
				{VoterID: "A", TargetPlayerID: target("Y")},
			},
			wantID:    target("Y"),
			wantCount: 2,
			eliminate: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Tally(tc.votes, players)
			assert.Equal(t, tc.wantCount, res.Top.Count)
			assert.Equal(t, tc.wantTie, res.Top.IsTie)
			assert.Equal(t, tc.wantID, res.Top.ID)

			id, ok := res.Eliminates()
			assert.Equal(t, tc.eliminate, ok)
			if ok {
				assert.Equal(t, *tc.wantID, id)
			}
		})
	}
}

func TestTally_TopDominatesEveryBucket(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids := []string{"A", "B", "C", "D", "E", "F", "G"}
	players := roster(ids...)

	for i := 0; i < 200; i++ {
		var votes []types.Vote
		for _, voter := range ids {
			if rng.Intn(4) == 0 {
				continue
			}
			var tgt *string
			if n := rng.Intn(len(ids) + 1); n < len(ids) {
				tgt = target(ids[n])
			}
			votes = append(votes, types.Vote{VoterID: voter, TargetPlayerID: tgt})
		}

		res := Tally(votes, players)
		atMax := 0
		for _, b := range res.Breakdown {
			require.LessOrEqual(t, b.Count, res.Top.Count)
			if b.Count == res.Top.Count {
				atMax++
			}
		}
		assert.Equal(t, atMax >= 2, res.Top.IsTie, "votes=%v", votes)
	}
}

func TestTally_PermutationInvariant(t *testing.T) {
	players := roster("A", "B", "C", "D", "E", "X", "Y")
	votes := []types.Vote{
		{VoterID: "A", TargetPlayerID: target("X")},
		{VoterID: "B", TargetPlayerID: target("Y")},
		{VoterID: "C", TargetPlayerID: target("X")},
		{VoterID: "D"},
		{VoterID: "E", TargetPlayerID: target("Y")},
	}
	want := Tally(votes, players)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]types.Vote(nil), votes...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want.Top, Tally(shuffled, players).Top)
	}
}

func TestTally_BreakdownNamesAndOrder(t *testing.T) {
	players := roster("A", "B", "C", "X", "Y")
	res := Tally([]types.Vote{
		{VoterID: "A", TargetPlayerID: target("Y")},
		{VoterID: "B", TargetPlayerID: target("Y")},
		{VoterID: "C"},
		{VoterID: "X", TargetPlayerID: target("ghost")},
	}, players)

	require.Len(t, res.Breakdown, 3)
	assert.Equal(t, "name-Y", res.Breakdown[0].Name)
	assert.Equal(t, 2, res.Breakdown[0].Count)
	assert.Equal(t, "Abstain", res.Breakdown[1].Name)
	assert.True(t, res.Breakdown[1].Abstain())
	assert.Equal(t, "ghost", res.Breakdown[2].Name)
}

func TestAliveVotesAndComplete(t *testing.T) {
	players := roster("A", "B", "C")
	players[2].IsAlive = false

	votes := []types.Vote{
		{VoterID: "A", TargetPlayerID: target("B")},
		{VoterID: "C", TargetPlayerID: target("A")},
	}

	alive := AliveVotes(votes, players)
	require.Len(t, alive, 1)
	assert.Equal(t, "A", alive[0].VoterID)
	assert.False(t, Complete(votes, players))
	assert.True(t, HasVoted(votes, "C"))

	votes = append(votes, types.Vote{VoterID: "B"})
	assert.True(t, Complete(votes, players))
	assert.False(t, Complete(nil, nil))
}
