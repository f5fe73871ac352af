package types

// Client -> Service request bodies. Every mutating call is a POST carrying
// the acting player's id.

type CreateSessionRequest struct {
	HostName string `json:"hostName"`
}

type JoinRequest struct {
	PlayerName string `json:"playerName"`
}

type PlayerActionRequest struct {
	PlayerID string `json:"playerId"`
}

type AddAIRequest struct {
	PlayerID string `json:"playerId"`
	AIName   string `json:"aiName,omitempty"`
}

type TargetRequest struct {
	PlayerID       string `json:"playerId"`
	TargetPlayerID string `json:"targetPlayerId"`
}

// VoteRequest keeps the target nullable: null means abstain.
type VoteRequest struct {
	PlayerID       string  `json:"playerId"`
	TargetPlayerID *string `json:"targetPlayerId"`
}

type SpeechRequest struct {
	PlayerID        string `json:"playerId"`
	SpeakerPlayerID string `json:"speakerPlayerId,omitempty"`
}

type ChatRequest struct {
	PlayerID string `json:"playerId"`
	Text     string `json:"text"`
}

type DebugToggleRequest struct {
	PlayerID string `json:"playerId"`
	Enabled  bool   `json:"enabled"`
}

// Service -> Client response bodies.

// CreateSessionResponse is a full snapshot plus the host's player id.
type CreateSessionResponse struct {
	SnapshotPatch
	HostPlayerID string `json:"hostPlayerId"`
}

type SpeechResponse struct {
	Message   AISpeech   `json:"message"`
	AudioClip *AudioClip `json:"audioClip"`
}

type UploadResponse struct {
	ClipID string `json:"clipId"`
	Status string `json:"status"`
}

type DebugInfo struct {
	Enabled  bool   `json:"enabled"`
	History  string `json:"history,omitempty"`
	ThinkRaw string `json:"thinkRaw,omitempty"`
}

// ErrorBody is the structured error the service returns on rejection.
// Detail is either a string or a list of validation entries.
type ErrorBody struct {
	Detail any `json:"detail"`
}
