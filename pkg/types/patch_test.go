package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePatch(t *testing.T, raw string) SnapshotPatch {
	t.Helper()
	var p SnapshotPatch
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestApply_AbsentFieldsPersist(t *testing.T) {
	prev := Snapshot{
		SessionID:      "g1",
		JoinCode:       "ABCD",
		Status:         StatusInProgress,
		WorkflowStage:  StageNight,
		NightStage:     NightWolves,
		VictoryMessage: "",
		Players:        []Player{{PlayerID: "p1", Name: "Ann", IsAlive: true}},
	}

	got := decodePatch(t, `{"nightStage":"detective"}`).Apply(prev)

	assert.Equal(t, NightDetective, got.NightStage)
	assert.Equal(t, "ABCD", got.JoinCode)
	assert.Equal(t, StageNight, got.WorkflowStage)
	assert.Len(t, got.Players, 1)
}

func TestApply_NullClearsField(t *testing.T) {
	prev := Snapshot{
		WorkflowStage:       StageDiscussion,
		CurrentTurnPlayerID: "p2",
		CurrentTurnPosition: 2,
	}

	got := decodePatch(t, `{"workflowStage":"night","nightStage":"wolves","currentTurnPlayerId":null,"currentTurnPosition":null}`).Apply(prev)

	assert.Equal(t, "", got.CurrentTurnPlayerID)
	assert.Equal(t, 0, got.CurrentTurnPosition)
	assert.Equal(t, NightWolves, got.NightStage)
}

func TestApply_Idempotent(t *testing.T) {
	prev := Snapshot{SessionID: "g1", Status: StatusWaiting}
	p := decodePatch(t, `{
		"status":"in_progress",
		"workflowStage":"discussion",
		"turnOrder":[{"playerId":"a","name":"A","order":1,"isAI":false,"isCurrent":true}],
		"currentTurnPlayerId":"a",
		"currentTurnPosition":1,
		"votes":[{"voterId":"a","targetPlayerId":null}]
	}`)

	once := p.Apply(prev)
	twice := p.Apply(once)

	assert.Equal(t, once, twice)
	require.Len(t, twice.Votes, 1)
	assert.Nil(t, twice.Votes[0].TargetPlayerID)
}

func TestCreateSessionResponse_EmbedsPatch(t *testing.T) {
	var resp CreateSessionResponse
	require.NoError(t, json.Unmarshal([]byte(`{"gameId":"g9","joinCode":"WXYZ","status":"waiting","hostPlayerId":"h1"}`), &resp))

	snap := resp.Apply(Snapshot{})
	assert.Equal(t, "g9", snap.SessionID)
	assert.Equal(t, "h1", resp.HostPlayerID)
	assert.False(t, resp.Players.Set)
}

func TestCurrentSpeaker_FallsBackToPosition(t *testing.T) {
	s := Snapshot{
		CurrentTurnPosition: 2,
		TurnOrder: []TurnEntry{
			{PlayerID: "a", Order: 1},
			{PlayerID: "b", Order: 2},
		},
	}
	e, ok := s.CurrentSpeaker()
	require.True(t, ok)
	assert.Equal(t, "b", e.PlayerID)
}
