package session

import (
	"context"

	"github.com/DoyleJ11/moonlit-client/internal/audio"
	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

// Remote is the slice of the game service the session drives.
// *remote.GameClient satisfies it.
type Remote interface {
	audio.Uploader

	CreateSession(ctx context.Context, hostName string) (types.CreateSessionResponse, error)
	FindByCode(ctx context.Context, code string) (types.SnapshotPatch, error)
	Join(ctx context.Context, sessionID, playerName string) (types.Assignment, error)
	Snapshot(ctx context.Context, sessionID string) (types.SnapshotPatch, error)
	Assignment(ctx context.Context, sessionID, playerID string) (types.Assignment, error)

	Start(ctx context.Context, sessionID, playerID string) (types.SnapshotPatch, error)
	Reveal(ctx context.Context, sessionID, playerID string) (types.SnapshotPatch, error)
	AdvanceNight(ctx context.Context, sessionID, playerID string) (types.SnapshotPatch, error)
	ResolveNight(ctx context.Context, sessionID, playerID string) (types.SnapshotPatch, error)
	AddAI(ctx context.Context, sessionID, playerID, name string) (types.SnapshotPatch, error)
	RemovePlayer(ctx context.Context, sessionID, playerID, targetID string) (types.SnapshotPatch, error)
	SubmitWolfTarget(ctx context.Context, sessionID, playerID, targetID string) (types.SnapshotPatch, error)
	SubmitDetectiveTarget(ctx context.Context, sessionID, playerID, targetID string) (types.SnapshotPatch, error)

	CueSpeech(ctx context.Context, sessionID, playerID, speakerID string) (types.SpeechResponse, error)
	AdvanceTurn(ctx context.Context, sessionID, playerID string) (types.SnapshotPatch, error)
	FetchAudio(ctx context.Context, sessionID, clipID string) ([]byte, error)
	AudioArchive(ctx context.Context, sessionID, playerID string) ([]byte, error)

	Vote(ctx context.Context, sessionID, playerID string, targetID *string) (types.SnapshotPatch, error)
	TriggerAIVotes(ctx context.Context, sessionID, playerID string) (types.SnapshotPatch, error)
	ApplyVotes(ctx context.Context, sessionID, playerID, targetID string) (types.SnapshotPatch, error)
	FinishRound(ctx context.Context, sessionID, playerID string) (types.SnapshotPatch, error)

	Chat(ctx context.Context, sessionID, playerID, text string) (types.SnapshotPatch, error)
	Delete(ctx context.Context, sessionID, playerID string) error
	Debug(ctx context.Context, sessionID string) (types.DebugInfo, error)
	SetDebug(ctx context.Context, sessionID, playerID string, enabled bool) (types.DebugInfo, error)
}
