package remote

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

// GameClient speaks the game service's HTTP contract. Every mutating call
// returns the service's updated snapshot as a patch.
type GameClient struct {
	*BaseClient
}

func NewGameClient(baseURL string, log *zap.Logger) *GameClient {
	return &GameClient{BaseClient: NewBaseClient(baseURL, log)}
}

// NormalizeCode trims and upper-cases a join code; codes are matched
// case-insensitively by convention.
func NormalizeCode(code string) string {
	// a Caser keeps state, so one per call
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}

func (c *GameClient) postPatch(ctx context.Context, endpoint string, payload any) (types.SnapshotPatch, error) {
	body, err := c.PostJSON(ctx, endpoint, payload)
	if err != nil {
		return types.SnapshotPatch{}, err
	}
	return decode[types.SnapshotPatch](body)
}

func (c *GameClient) act(ctx context.Context, sessionID, suffix, playerID string) (types.SnapshotPatch, error) {
	return c.postPatch(ctx, gamePath(sessionID, suffix), types.PlayerActionRequest{PlayerID: playerID})
}

func (c *GameClient) CreateSession(ctx context.Context, hostName string) (types.CreateSessionResponse, error) {
	body, err := c.PostJSON(ctx, GamesEndpoint, types.CreateSessionRequest{HostName: hostName})
	if err != nil {
		return types.CreateSessionResponse{}, fmt.Errorf("create session: %w", err)
	}
	return decode[types.CreateSessionResponse](body)
}

func (c *GameClient) FindByCode(ctx context.Context, code string) (types.SnapshotPatch, error) {
	endpoint := fmt.Sprintf(ByCodeEndpoint, url.PathEscape(NormalizeCode(code)))
	return c.postPatch(ctx, endpoint, nil)
}

func (c *GameClient) Join(ctx context.Context, sessionID, playerName string) (types.Assignment, error) {
	body, err := c.PostJSON(ctx, gamePath(sessionID, "/join"), types.JoinRequest{PlayerName: playerName})
	if err != nil {
		return types.Assignment{}, fmt.Errorf("join: %w", err)
	}
	return decode[types.Assignment](body)
}

func (c *GameClient) Snapshot(ctx context.Context, sessionID string) (types.SnapshotPatch, error) {
	body, err := c.Get(ctx, gamePath(sessionID, "/state"))
	if err != nil {
		return types.SnapshotPatch{}, err
	}
	return decode[types.SnapshotPatch](body)
}

func (c *GameClient) Assignment(ctx context.Context, sessionID, playerID string) (types.Assignment, error) {
	body, err := c.Get(ctx, playerPath(sessionID, playerID, ""))
	if err != nil {
		return types.Assignment{}, err
	}
	return decode[types.Assignment](body)
}

func (c *GameClient) Start(ctx context.Context, sessionID, playerID string) (types.SnapshotPatch, error) {
	return c.act(ctx, sessionID, "/start", playerID)
}

func (c *GameClient) Reveal(ctx context.Context, sessionID, playerID string) (types.SnapshotPatch, error) {
	return c.act(ctx, sessionID, "/reveal", playerID)
}

func (c *GameClient) AdvanceNight(ctx context.Context, sessionID, playerID string) (types.SnapshotPatch, error) {
	return c.act(ctx, sessionID, "/night/advance", playerID)
}

func (c *GameClient) ResolveNight(ctx context.Context, sessionID, playerID string) (types.SnapshotPatch, error) {
	return c.act(ctx, sessionID, "/night/resolve", playerID)
}

func (c *GameClient) AddAI(ctx context.Context, sessionID, playerID, name string) (types.SnapshotPatch, error) {
	return c.postPatch(ctx, gamePath(sessionID, "/ai"), types.AddAIRequest{PlayerID: playerID, AIName: name})
}

func (c *GameClient) RemovePlayer(ctx context.Context, sessionID, playerID, targetID string) (types.SnapshotPatch, error) {
	return c.postPatch(ctx, gamePath(sessionID, "/players/remove"),
		types.TargetRequest{PlayerID: playerID, TargetPlayerID: targetID})
}

// Vote casts or replaces the player's vote. A nil target abstains.
func (c *GameClient) Vote(ctx context.Context, sessionID, playerID string, targetID *string) (types.SnapshotPatch, error) {
	return c.postPatch(ctx, gamePath(sessionID, "/vote"),
		types.VoteRequest{PlayerID: playerID, TargetPlayerID: targetID})
}

func (c *GameClient) TriggerAIVotes(ctx context.Context, sessionID, playerID string) (types.SnapshotPatch, error) {
	return c.act(ctx, sessionID, "/vote/ai", playerID)
}

func (c *GameClient) ApplyVotes(ctx context.Context, sessionID, playerID, targetID string) (types.SnapshotPatch, error) {
	return c.postPatch(ctx, gamePath(sessionID, "/vote/apply"),
		types.TargetRequest{PlayerID: playerID, TargetPlayerID: targetID})
}

func (c *GameClient) AdvanceTurn(ctx context.Context, sessionID, playerID string) (types.SnapshotPatch, error) {
	return c.act(ctx, sessionID, "/turns/next", playerID)
}

func (c *GameClient) FinishRound(ctx context.Context, sessionID, playerID string) (types.SnapshotPatch, error) {
	return c.act(ctx, sessionID, "/round/finish", playerID)
}

func (c *GameClient) CueSpeech(ctx context.Context, sessionID, playerID, speakerID string) (types.SpeechResponse, error) {
	body, err := c.PostJSON(ctx, gamePath(sessionID, "/turns/speech"),
		types.SpeechRequest{PlayerID: playerID, SpeakerPlayerID: speakerID})
	if err != nil {
		return types.SpeechResponse{}, err
	}
	return decode[types.SpeechResponse](body)
}

func (c *GameClient) SubmitWolfTarget(ctx context.Context, sessionID, playerID, targetID string) (types.SnapshotPatch, error) {
	return c.postPatch(ctx, gamePath(sessionID, "/night/wolf"),
		types.TargetRequest{PlayerID: playerID, TargetPlayerID: targetID})
}

func (c *GameClient) SubmitDetectiveTarget(ctx context.Context, sessionID, playerID, targetID string) (types.SnapshotPatch, error) {
	return c.postPatch(ctx, gamePath(sessionID, "/night/detect"),
		types.TargetRequest{PlayerID: playerID, TargetPlayerID: targetID})
}

// UploadAudio posts data as a multipart file attachment.
func (c *GameClient) UploadAudio(ctx context.Context, sessionID, playerID, filename, contentType string, data []byte) (types.UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, AudioFormField, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return types.UploadResponse{}, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return types.UploadResponse{}, fmt.Errorf("write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return types.UploadResponse{}, fmt.Errorf("close form: %w", err)
	}

	body, err := c.MakeRequest(ctx, "POST", playerPath(sessionID, playerID, "/audio"), mw.FormDataContentType(), &buf)
	if err != nil {
		return types.UploadResponse{}, err
	}
	return decode[types.UploadResponse](body)
}

func (c *GameClient) FetchAudio(ctx context.Context, sessionID, clipID string) ([]byte, error) {
	return c.Get(ctx, gamePath(sessionID, "/audio/"+url.PathEscape(clipID)))
}

// AudioArchive downloads every clip a player recorded as one zip.
func (c *GameClient) AudioArchive(ctx context.Context, sessionID, playerID string) ([]byte, error) {
	return c.Get(ctx, playerPath(sessionID, playerID, "/audio/archive"))
}

func (c *GameClient) Chat(ctx context.Context, sessionID, playerID, text string) (types.SnapshotPatch, error) {
	return c.postPatch(ctx, gamePath(sessionID, "/chat"), types.ChatRequest{PlayerID: playerID, Text: text})
}

func (c *GameClient) Delete(ctx context.Context, sessionID, playerID string) error {
	_, err := c.DeleteJSON(ctx, gamePath(sessionID, ""), types.PlayerActionRequest{PlayerID: playerID})
	return err
}

func (c *GameClient) Debug(ctx context.Context, sessionID string) (types.DebugInfo, error) {
	body, err := c.Get(ctx, gamePath(sessionID, "/debug"))
	if err != nil {
		return types.DebugInfo{}, err
	}
	return decode[types.DebugInfo](body)
}

func (c *GameClient) SetDebug(ctx context.Context, sessionID, playerID string, enabled bool) (types.DebugInfo, error) {
	body, err := c.PostJSON(ctx, gamePath(sessionID, "/debug"),
		types.DebugToggleRequest{PlayerID: playerID, Enabled: enabled})
	if err != nil {
		return types.DebugInfo{}, err
	}
	return decode[types.DebugInfo](body)
}
