package types

// Status is the lifecycle of a whole session.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusEnded      Status = "ended"
)

// WorkflowStage is the top-level phase reported by the remote service.
// StageVoting is never transmitted; the client derives it.
type WorkflowStage string

const (
	StageNone       WorkflowStage = ""
	StageLobby      WorkflowStage = "lobby"
	StageNight      WorkflowStage = "night"
	StageDiscussion WorkflowStage = "discussion"
	StageVoting     WorkflowStage = "voting"
	StageEnded      WorkflowStage = "ended"
)

type NightStage string

const (
	NightNone      NightStage = ""
	NightWolves    NightStage = "wolves"
	NightDetective NightStage = "detective"
	NightSummary   NightStage = "summary"
)

type Role string

const (
	RoleCivilian  Role = "civilian"
	RoleDetective Role = "detective"
	RoleWerewolf  Role = "werewolf"
)

type Player struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	IsHost   bool   `json:"isHost"`
	IsAI     bool   `json:"isAI"`
	IsAlive  bool   `json:"isAlive"`
	Role     Role   `json:"role,omitempty"`
}

// TurnEntry is one speaker slot. Order is 1-based.
type TurnEntry struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
	IsAI      bool   `json:"isAI"`
	IsCurrent bool   `json:"isCurrent"`
}

// Vote with a nil TargetPlayerID is an abstention.
type Vote struct {
	VoterID        string  `json:"voterId"`
	TargetPlayerID *string `json:"targetPlayerId"`
}

type AudioClip struct {
	ClipID      string  `json:"clipId"`
	PlayerID    string  `json:"playerId"`
	Name        string  `json:"name"`
	Filename    string  `json:"filename"`
	ContentType string  `json:"contentType"`
	Size        int64   `json:"size"`
	Transcript  string  `json:"transcript,omitempty"`
	Timestamp   float64 `json:"timestamp,omitempty"`
}

type ChatMessage struct {
	MessageID string  `json:"messageId"`
	PlayerID  string  `json:"playerId"`
	Name      string  `json:"name"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

type Event struct {
	EventID   string  `json:"eventId"`
	Text      string  `json:"text"`
	Phase     string  `json:"phase"`
	Timestamp float64 `json:"timestamp"`
}

type AISpeech struct {
	AIPlayerID string  `json:"aiPlayerId"`
	Name       string  `json:"name"`
	Message    string  `json:"message"`
	Timestamp  float64 `json:"timestamp"`
}

// Snapshot is the client's copy of the authoritative session state.
type Snapshot struct {
	SessionID           string        `json:"gameId"`
	JoinCode            string        `json:"joinCode"`
	Status              Status        `json:"status"`
	WorkflowStage       WorkflowStage `json:"workflowStage"`
	NightStage          NightStage    `json:"nightStage"`
	RoundNumber         int           `json:"roundNumber"`
	Players             []Player      `json:"players"`
	TurnOrder           []TurnEntry   `json:"turnOrder"`
	CurrentTurnPlayerID string        `json:"currentTurnPlayerId"`
	CurrentTurnPosition int           `json:"currentTurnPosition"`
	Votes               []Vote        `json:"votes"`
	AudioClips          []AudioClip   `json:"audioClips"`
	ChatMessages        []ChatMessage `json:"chatMessages"`
	Events              []Event       `json:"events"`
	AIMessages          []AISpeech    `json:"aiMessages"`
	VictoryTeam         string        `json:"victoryTeam"`
	VictoryMessage      string        `json:"victoryMessage"`
}

// Player looks up a roster entry by id.
func (s Snapshot) Player(id string) (Player, bool) {
	for _, p := range s.Players {
		if p.PlayerID == id {
			return p, true
		}
	}
	return Player{}, false
}

// CurrentSpeaker returns the turn entry flagged as current, falling back to
// the entry at CurrentTurnPosition.
func (s Snapshot) CurrentSpeaker() (TurnEntry, bool) {
	for _, e := range s.TurnOrder {
		if e.IsCurrent {
			return e, true
		}
	}
	for _, e := range s.TurnOrder {
		if e.Order == s.CurrentTurnPosition && s.CurrentTurnPosition > 0 {
			return e, true
		}
	}
	return TurnEntry{}, false
}

// Assignment is the per-player secret view fetched for the local player.
type Assignment struct {
	PlayerID    string   `json:"playerId"`
	Name        string   `json:"name"`
	Role        Role     `json:"role"`
	Status      Status   `json:"status"`
	IsAlive     bool     `json:"isAlive"`
	IsAI        bool     `json:"isAI"`
	RoleSummary string   `json:"roleSummary"`
	Notes       []string `json:"notes"`
	KnownAllies []string `json:"knownAllies"`
}
