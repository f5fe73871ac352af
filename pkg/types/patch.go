package types

import (
	"bytes"
	"encoding/json"
)

// Field records whether a key was present in a decoded payload. A present
// JSON null sets the zero value, which lets the service clear a field.
type Field[T any] struct {
	Set   bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		var zero T
		f.Value = zero
		return nil
	}
	return json.Unmarshal(b, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value)
}

// Some returns a present field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// SnapshotPatch is a snapshot-shaped response where every key is optional.
type SnapshotPatch struct {
	SessionID           Field[string]        `json:"gameId"`
	JoinCode            Field[string]        `json:"joinCode"`
	Status              Field[Status]        `json:"status"`
	WorkflowStage       Field[WorkflowStage] `json:"workflowStage"`
	NightStage          Field[NightStage]    `json:"nightStage"`
	RoundNumber         Field[int]           `json:"roundNumber"`
	Players             Field[[]Player]      `json:"players"`
	TurnOrder           Field[[]TurnEntry]   `json:"turnOrder"`
	CurrentTurnPlayerID Field[string]        `json:"currentTurnPlayerId"`
	CurrentTurnPosition Field[int]           `json:"currentTurnPosition"`
	Votes               Field[[]Vote]        `json:"votes"`
	AudioClips          Field[[]AudioClip]   `json:"audioClips"`
	ChatMessages        Field[[]ChatMessage] `json:"chatMessages"`
	Events              Field[[]Event]       `json:"events"`
	AIMessages          Field[[]AISpeech]    `json:"aiMessages"`
	VictoryTeam         Field[string]        `json:"victoryTeam"`
	VictoryMessage      Field[string]        `json:"victoryMessage"`
}

// Apply overlays the present fields of p onto s. Absent fields keep their
// previous value, so applying the same patch twice is a no-op.
func (p SnapshotPatch) Apply(s Snapshot) Snapshot {
	set(&s.SessionID, p.SessionID)
	set(&s.JoinCode, p.JoinCode)
	set(&s.Status, p.Status)
	set(&s.WorkflowStage, p.WorkflowStage)
	set(&s.NightStage, p.NightStage)
	set(&s.RoundNumber, p.RoundNumber)
	set(&s.Players, p.Players)
	set(&s.TurnOrder, p.TurnOrder)
	set(&s.CurrentTurnPlayerID, p.CurrentTurnPlayerID)
	set(&s.CurrentTurnPosition, p.CurrentTurnPosition)
	set(&s.Votes, p.Votes)
	set(&s.AudioClips, p.AudioClips)
	set(&s.ChatMessages, p.ChatMessages)
	set(&s.Events, p.Events)
	set(&s.AIMessages, p.AIMessages)
	set(&s.VictoryTeam, p.VictoryTeam)
	set(&s.VictoryMessage, p.VictoryMessage)
	return s
}

func set[T any](dst *T, f Field[T]) {
	if f.Set {
		*dst = f.Value
	}
}

// PatchOf builds a patch with every field of s present.
func PatchOf(s Snapshot) SnapshotPatch {
	return SnapshotPatch{
		SessionID:           Some(s.SessionID),
		JoinCode:            Some(s.JoinCode),
		Status:              Some(s.Status),
		WorkflowStage:       Some(s.WorkflowStage),
		NightStage:          Some(s.NightStage),
		RoundNumber:         Some(s.RoundNumber),
		Players:             Some(s.Players),
		TurnOrder:           Some(s.TurnOrder),
		CurrentTurnPlayerID: Some(s.CurrentTurnPlayerID),
		CurrentTurnPosition: Some(s.CurrentTurnPosition),
		Votes:               Some(s.Votes),
		AudioClips:          Some(s.AudioClips),
		ChatMessages:        Some(s.ChatMessages),
		Events:              Some(s.Events),
		AIMessages:          Some(s.AIMessages),
		VictoryTeam:         Some(s.VictoryTeam),
		VictoryMessage:      Some(s.VictoryMessage),
	}
}
