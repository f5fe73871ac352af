package gametest

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DoyleJ11/moonlit-client/internal/audio"
	"github.com/DoyleJ11/moonlit-client/internal/engine"
	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

const MaxUploadBytes = 5 * 1024 * 1024

var roleSummaries = map[types.Role]string{
	types.RoleCivilian:  "Stay vigilant, discuss clues, and vote smart to catch the pack.",
	types.RoleDetective: "Investigate quietly each night. Share just enough to sway the group.",
	types.RoleWerewolf:  "Blend in during the day and secretly thin the crowd at night.",
}

var aiLines = []string{
	"The moon feels restless; someone is hiding long teeth.",
	"Listen for shaky stories. Wolves always trip over the details.",
	"If the crowd talks in circles, a wolf is steering the debate.",
	"When accusations fly too fast, someone is covering their tracks.",
}

// apiError becomes a {"detail": ...} body with its status.
type apiError struct {
	status int
	detail string
}

func (e *apiError) Error() string { return e.detail }

func badRequest(detail string) error { return &apiError{http.StatusBadRequest, detail} }
func forbidden(detail string) error  { return &apiError{http.StatusForbidden, detail} }
func notFound(detail string) error   { return &apiError{http.StatusNotFound, detail} }

type player struct {
	id     string
	name   string
	host   bool
	ai     bool
	alive  bool
	role   types.Role
	notes  []string
	allies []string
}

type storedClip struct {
	info types.AudioClip
	data []byte
}

// game is one session. It is only touched from the registry loop.
type game struct {
	id, code string
	status   types.Status
	stage    types.WorkflowStage
	night    types.NightStage
	round    int

	players map[string]*player
	joinSeq []string
	hostID  string

	turnOrder []string
	turnIdx   int // -1 outside discussion

	votes     map[string]*string
	voteSeq   []string
	wolfVotes map[string]string
	detective string
	inspect   string

	events   []types.Event
	chat     []types.ChatMessage
	aiSpeech []types.AISpeech
	clips    []storedClip

	victoryTeam, victoryMessage string

	debug       bool
	lastHistory string

	rng   *rand.Rand
	now   func() time.Time
	deal  Deal
	voice func(speaker string) []byte
}

func newGame(id, code, hostName string, o *Options) *game {
	g := &game{
		id:        id,
		code:      code,
		status:    types.StatusWaiting,
		stage:     types.StageLobby,
		players:   make(map[string]*player),
		turnIdx:   -1,
		votes:     make(map[string]*string),
		wolfVotes: make(map[string]string),
		rng:       o.rng,
		now:       o.Clock.Now,
		deal:      o.Deal,
		voice:     o.Voice,
	}
	host := g.addPlayer(hostName, false)
	host.host = true
	g.hostID = host.id
	return g
}

func (g *game) stamp() float64 {
	return float64(g.now().UnixNano()) / 1e9
}

func (g *game) record(text string, phase string) {
	if phase == "" {
		phase = string(g.stage)
	}
	g.events = append(g.events, types.Event{EventID: uuid.NewString(), Text: text, Phase: phase, Timestamp: g.stamp()})
}

func (g *game) addPlayer(name string, ai bool) *player {
	p := &player{id: uuid.NewString(), name: name, ai: ai, alive: true}
	g.players[p.id] = p
	g.joinSeq = append(g.joinSeq, p.id)
	return p
}

func (g *game) player(id string) (*player, error) {
	p, ok := g.players[id]
	if !ok {
		return nil, notFound("Player not found in this game.")
	}
	return p, nil
}

func (g *game) host(id string, action string) error {
	p, err := g.player(id)
	if err != nil {
		return err
	}
	if !p.host {
		return forbidden("Only the host can " + action + ".")
	}
	return nil
}

func (g *game) inDiscussion() bool {
	return g.status == types.StatusInProgress && g.stage == types.StageDiscussion
}

func (g *game) alive() []*player {
	var out []*player
	for _, id := range g.joinSeq {
		if p := g.players[id]; p != nil && p.alive {
			out = append(out, p)
		}
	}
	return out
}

func (g *game) aliveWolves() (wolves, villagers []*player) {
	for _, p := range g.alive() {
		if p.role == types.RoleWerewolf {
			wolves = append(wolves, p)
		} else {
			villagers = append(villagers, p)
		}
	}
	return wolves, villagers
}

func (g *game) declareVictory(team, msg string) {
	g.status = types.StatusEnded
	g.stage = types.StageEnded
	g.night = types.NightNone
	g.turnIdx = -1
	g.victoryTeam = team
	g.victoryMessage = msg
	g.record(msg, string(types.StageEnded))
}

func (g *game) evaluateVictory() bool {
	wolves, villagers := g.aliveWolves()
	switch {
	case len(wolves) == 0:
		g.declareVictory("village", "The town prevails! No werewolves remain.")
		return true
	case len(wolves) >= len(villagers):
		g.declareVictory("werewolves", "The pack overpowers the town. Wolves win.")
		return true
	}
	return false
}

func (g *game) startNight(intro string) {
	g.stage = types.StageNight
	g.night = types.NightWolves
	g.turnIdx = -1
	g.turnOrder = nil
	g.wolfVotes = make(map[string]string)
	g.inspect = ""
	g.clearVotes()
	if intro != "" {
		g.record(intro, string(types.StageNight))
	}
}

func (g *game) clearVotes() {
	g.votes = make(map[string]*string)
	g.voteSeq = nil
}

func (g *game) prepareTurnOrder() {
	g.clearVotes()
	g.turnOrder = nil
	for _, p := range g.alive() {
		g.turnOrder = append(g.turnOrder, p.id)
	}
	if len(g.turnOrder) == 0 {
		g.stage = types.StageNight
		g.turnIdx = -1
		return
	}
	g.turnIdx = 0
	g.round++
	g.stage = types.StageDiscussion
	g.record(fmt.Sprintf("Day %d discussion begins.", g.round), string(types.StageDiscussion))
}

// Lobby

func (g *game) join(name string) (*player, error) {
	if g.status != types.StatusWaiting {
		return nil, badRequest("Game already started.")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, badRequest("Player name cannot be empty.")
	}
	p := g.addPlayer(name, false)
	g.record(name+" joined the lobby.", "lobby")
	return p, nil
}

func (g *game) addAI(hostID, name string) error {
	if err := g.host(hostID, "add AI players"); err != nil {
		return err
	}
	if g.status != types.StatusWaiting {
		return badRequest("Cannot add AI players after the game starts.")
	}
	base := strings.TrimSpace(name)
	if base == "" {
		n := 0
		for _, p := range g.players {
			if p.ai {
				n++
			}
		}
		base = fmt.Sprintf("AI Agent %d", n+1)
	}
	taken := make(map[string]bool, len(g.players))
	for _, p := range g.players {
		taken[p.name] = true
	}
	candidate := base
	for i := 2; taken[candidate]; i++ {
		candidate = fmt.Sprintf("%s %d", base, i)
	}
	g.addPlayer(candidate, true)
	g.record(candidate+" joined the lobby.", "lobby")
	return nil
}

func (g *game) removePlayer(hostID, targetID string) error {
	if err := g.host(hostID, "remove players"); err != nil {
		return err
	}
	if g.status != types.StatusWaiting {
		return badRequest("Players can only be removed in the lobby before the game starts.")
	}
	if targetID == g.hostID {
		return badRequest("Cannot remove the host.")
	}
	target, ok := g.players[targetID]
	if !ok {
		return notFound("Target player not found.")
	}
	delete(g.players, targetID)
	g.joinSeq = slices.DeleteFunc(g.joinSeq, func(id string) bool { return id == targetID })
	g.record(target.name+" was removed from the lobby by the host.", "lobby")
	return nil
}

func (g *game) start(hostID string) error {
	if err := g.host(hostID, "start the game"); err != nil {
		return err
	}
	if len(g.players) < 4 {
		return badRequest("Need at least 4 players to start.")
	}
	if g.status != types.StatusWaiting {
		return badRequest("Game already started.")
	}

	roles := g.deal(slices.Clone(g.joinSeq), g.rng)
	var wolves []*player
	for _, id := range g.joinSeq {
		p := g.players[id]
		p.alive = true
		p.notes = nil
		p.allies = nil
		p.role = roles[id]
		if p.role == "" {
			p.role = types.RoleCivilian
		}
		switch p.role {
		case types.RoleDetective:
			g.detective = id
		case types.RoleWerewolf:
			wolves = append(wolves, p)
		}
	}
	for _, w := range wolves {
		for _, other := range wolves {
			if other != w {
				w.allies = append(w.allies, other.name)
			}
		}
	}

	g.status = types.StatusInProgress
	g.round = 0
	g.events = nil
	g.victoryTeam, g.victoryMessage = "", ""
	g.startNight("Roles assigned. Night falls over the village.")
	return nil
}

// Night

func (g *game) submitWolf(playerID, targetID string) error {
	if g.status != types.StatusInProgress || g.stage != types.StageNight {
		return badRequest("Werewolves act only at night.")
	}
	wolf, err := g.player(playerID)
	if err != nil {
		return err
	}
	if !wolf.alive || wolf.role != types.RoleWerewolf {
		return forbidden("Only alive werewolves can choose a target.")
	}
	if g.night != types.NightWolves {
		return badRequest("Werewolf actions have already been processed.")
	}
	target, ok := g.players[targetID]
	if !ok || !target.alive {
		return notFound("Target not found or not alive.")
	}
	if target.role == types.RoleWerewolf {
		return badRequest("Werewolves cannot attack a packmate.")
	}
	g.wolfVotes[wolf.id] = target.id
	return nil
}

func (g *game) submitDetective(playerID, targetID string) error {
	if g.status != types.StatusInProgress || g.stage != types.StageNight {
		return badRequest("Detective acts only at night.")
	}
	if g.detective == "" {
		return badRequest("This game has no detective.")
	}
	det, err := g.player(playerID)
	if err != nil {
		return err
	}
	if det.id != g.detective {
		return forbidden("Only the detective can inspect.")
	}
	if !det.alive {
		return badRequest("Eliminated detective cannot inspect.")
	}
	if g.night != types.NightDetective {
		return badRequest("Detective actions are not available right now.")
	}
	target, ok := g.players[targetID]
	if !ok || !target.alive {
		return notFound("Target not found or not alive.")
	}
	if target.id == det.id {
		return badRequest("Detective cannot inspect themselves.")
	}
	g.inspect = target.id
	return nil
}

// pendingHuman reports whether a living human still owes the current night
// stage its action.
func (g *game) pendingHuman() bool {
	switch g.night {
	case types.NightWolves:
		wolves, _ := g.aliveWolves()
		for _, w := range wolves {
			if _, ok := g.wolfVotes[w.id]; !ok && !w.ai {
				return true
			}
		}
	case types.NightDetective:
		det := g.players[g.detective]
		return det != nil && det.alive && !det.ai && g.inspect == ""
	}
	return false
}

func (g *game) advanceNight(hostID string) error {
	if err := g.host(hostID, "advance the night"); err != nil {
		return err
	}
	if g.status != types.StatusInProgress {
		return badRequest("Game is not running.")
	}
	if g.stage != types.StageNight {
		return badRequest("Night actions are already complete.")
	}
	if g.pendingHuman() {
		return badRequest("Waiting for the " + string(g.night) + " to act.")
	}
	if g.evaluateVictory() {
		return nil
	}

	switch g.night {
	case types.NightWolves, types.NightNone:
		g.wolfStage()
		if g.evaluateVictory() {
			return nil
		}
	case types.NightDetective:
		g.detectiveStage()
	}
	if next, ok := engine.NextNightStage(g.night); ok {
		g.night = next
		return nil
	}

	// past the summary: day breaks
	g.wolfVotes = make(map[string]string)
	g.inspect = ""
	g.night = types.NightNone
	if g.evaluateVictory() {
		return nil
	}
	g.prepareTurnOrder()
	return nil
}

func (g *game) wolfStage() {
	wolves, villagers := g.aliveWolves()
	if len(wolves) == 0 || len(villagers) == 0 {
		g.record("The night passed quietly. No villagers were harmed.", "night")
		return
	}
	for _, w := range wolves {
		if _, ok := g.wolfVotes[w.id]; w.ai && !ok {
			g.wolfVotes[w.id] = villagers[g.rng.IntN(len(villagers))].id
		}
	}

	tally := make(map[string]int)
	for _, w := range wolves {
		if t, ok := g.wolfVotes[w.id]; ok && g.players[t].alive && g.players[t].role != types.RoleWerewolf {
			tally[t]++
		}
	}
	var top []string
	best := 0
	for _, v := range villagers {
		switch c := tally[v.id]; {
		case c > best:
			best, top = c, []string{v.id}
		case c == best && c > 0:
			top = append(top, v.id)
		}
	}
	if len(top) == 0 {
		g.record("The night passed quietly. No villagers were harmed.", "night")
		return
	}
	victim := g.players[top[g.rng.IntN(len(top))]]
	victim.alive = false
	g.record(fmt.Sprintf("Werewolves eliminated %s under the moonlight.", victim.name), "night")
}

func (g *game) detectiveStage() {
	det := g.players[g.detective]
	if det == nil || !det.alive {
		g.inspect = ""
		return
	}
	if g.inspect == "" || !g.players[g.inspect].alive {
		var suspects []*player
		for _, p := range g.alive() {
			if p.id != det.id {
				suspects = append(suspects, p)
			}
		}
		if len(suspects) > 0 {
			g.inspect = suspects[g.rng.IntN(len(suspects))].id
		}
	}
	if g.inspect != "" {
		det.notes = append(det.notes, fmt.Sprintf("You inspected %s.", g.players[g.inspect].name))
		if len(det.notes) > 5 {
			det.notes = det.notes[len(det.notes)-5:]
		}
	}
	g.inspect = ""
}

// Day

func (g *game) currentSpeaker() string {
	if g.stage != types.StageDiscussion || g.turnIdx < 0 || g.turnIdx >= len(g.turnOrder) {
		return ""
	}
	return g.turnOrder[g.turnIdx]
}

func (g *game) advanceTurn(hostID string) error {
	if err := g.host(hostID, "advance turns"); err != nil {
		return err
	}
	if g.status != types.StatusInProgress {
		return badRequest("Cannot advance turns unless the game is active.")
	}
	if g.stage != types.StageDiscussion {
		return badRequest("Discussion is not active. Resolve the night first.")
	}
	if len(g.turnOrder) == 0 {
		return badRequest("No speakers available. Resolve the night again.")
	}
	if g.turnIdx >= len(g.turnOrder)-1 {
		return badRequest("All players have spoken. Close the day to continue.")
	}
	g.turnIdx++
	return nil
}

func (g *game) speak(requesterID, speakerID string) (types.SpeechResponse, error) {
	requester, err := g.player(requesterID)
	if err != nil {
		return types.SpeechResponse{}, err
	}
	if g.status == types.StatusWaiting {
		return types.SpeechResponse{}, badRequest("Start the game before cueing speech.")
	}
	if speakerID == "" {
		speakerID = g.currentSpeaker()
	}
	if speakerID == "" {
		return types.SpeechResponse{}, badRequest("No speaker is currently active.")
	}
	speaker, ok := g.players[speakerID]
	if !ok || !speaker.alive {
		return types.SpeechResponse{}, notFound("Speaker not found or not alive.")
	}
	if requester.id != speaker.id && !requester.host {
		return types.SpeechResponse{}, forbidden("Only the host or the speaker may trigger speech.")
	}
	if !speaker.ai {
		return types.SpeechResponse{}, badRequest("AI speech can only be triggered for AI players.")
	}

	line := aiLines[g.rng.IntN(len(aiLines))]
	msg := types.AISpeech{AIPlayerID: speaker.id, Name: speaker.name, Message: line, Timestamp: g.stamp()}
	g.aiSpeech = append(g.aiSpeech, msg)
	if len(g.aiSpeech) > 20 {
		g.aiSpeech = g.aiSpeech[len(g.aiSpeech)-20:]
	}
	g.lastHistory = g.history()

	resp := types.SpeechResponse{Message: msg}
	if data := g.voice(speaker.id); len(data) > 0 {
		clip := g.storeClip(speaker, speaker.name+".wav", audio.MIMEWav, data, line)
		resp.AudioClip = &clip
	}
	return resp, nil
}

func (g *game) history() string {
	var b strings.Builder
	for _, e := range g.events {
		fmt.Fprintf(&b, "[%s] %s\n", e.Phase, e.Text)
	}
	return b.String()
}

func (g *game) vote(voterID string, targetID *string) error {
	if g.status != types.StatusInProgress {
		return badRequest("Voting is only available during the game.")
	}
	if g.stage != types.StageDiscussion {
		return badRequest("Voting is only allowed during the day discussion.")
	}
	voter, err := g.player(voterID)
	if err != nil {
		return err
	}
	if !voter.alive {
		return badRequest("Eliminated players cannot vote.")
	}
	var target *player
	if targetID != nil {
		if *targetID == voter.id {
			return badRequest("You cannot vote for yourself.")
		}
		t, ok := g.players[*targetID]
		if !ok || !t.alive {
			return notFound("Target player not found or not alive.")
		}
		target = t
	}

	prev, had := g.votes[voter.id]
	if !had {
		g.voteSeq = append(g.voteSeq, voter.id)
	}
	if target == nil {
		g.votes[voter.id] = nil
	} else {
		id := target.id
		g.votes[voter.id] = &id
	}

	changed := !had || (prev == nil) != (target == nil) || (prev != nil && target != nil && *prev != target.id)
	if changed {
		if target != nil {
			g.record(fmt.Sprintf("%s voted to remove %s.", voter.name, target.name), "discussion")
		} else {
			g.record(voter.name+" chose to abstain.", "discussion")
		}
	}
	return nil
}

func (g *game) aiVotes(hostID string) error {
	if err := g.host(hostID, "trigger AI votes"); err != nil {
		return err
	}
	if g.status != types.StatusInProgress {
		return badRequest("Voting is only available during the game.")
	}
	if g.stage != types.StageDiscussion {
		return badRequest("AI votes can only be triggered during the day discussion.")
	}
	alive := g.alive()
	for _, ai := range alive {
		if !ai.ai {
			continue
		}
		if _, voted := g.votes[ai.id]; voted {
			continue
		}
		var candidates []string
		for _, p := range alive {
			if p.id != ai.id {
				candidates = append(candidates, p.id)
			}
		}
		var target *string
		if len(candidates) > 0 && g.rng.Float64() >= 0.2 {
			t := candidates[g.rng.IntN(len(candidates))]
			target = &t
		}
		if err := g.vote(ai.id, target); err != nil {
			return fmt.Errorf("vote for %s: %w", ai.name, err)
		}
	}
	return nil
}

// applyVotes removes the target the host's tally settled on, then closes
// the day.
func (g *game) applyVotes(hostID, targetID string) error {
	if err := g.host(hostID, "apply votes"); err != nil {
		return err
	}
	if !g.inDiscussion() {
		return badRequest("Votes can only be applied during the day discussion.")
	}
	target, ok := g.players[targetID]
	if !ok || !target.alive {
		return notFound("Target player not found or not alive.")
	}
	target.alive = false
	g.record(fmt.Sprintf("The town has voted. %s is removed from the game.", target.name), "discussion")
	if g.evaluateVictory() {
		return nil
	}
	g.startNight(fmt.Sprintf("Day %d closes after a vote. Night %d begins.", g.round, g.round+1))
	return nil
}

func (g *game) finishRound(hostID string) error {
	if err := g.host(hostID, "finish the round"); err != nil {
		return err
	}
	if g.status != types.StatusInProgress {
		return badRequest("Cannot finish the round right now.")
	}
	if g.stage != types.StageDiscussion {
		return badRequest("Only discussions can be closed.")
	}
	g.startNight(fmt.Sprintf("Day %d closes. Night %d begins.", g.round, g.round+1))
	return nil
}

func (g *game) reveal(hostID string) error {
	if err := g.host(hostID, "reveal players"); err != nil {
		return err
	}
	if g.status == types.StatusWaiting {
		return badRequest("Game has not started.")
	}
	if g.status != types.StatusEnded {
		g.declareVictory("host", "The host revealed every role. The game is over.")
	}
	return nil
}

// Chat and audio

func (g *game) postChat(playerID, text string) error {
	p, err := g.player(playerID)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return badRequest("Message cannot be empty.")
	}
	g.chat = append(g.chat, types.ChatMessage{
		MessageID: uuid.NewString(), PlayerID: p.id, Name: p.name, Text: text, Timestamp: g.stamp(),
	})
	return nil
}

func isWAV(data []byte, filename, contentType string) bool {
	if len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(filename), ".wav") ||
		contentType == "audio/wav" || contentType == "audio/x-wav"
}

func (g *game) upload(playerID, filename, contentType string, data []byte) (types.UploadResponse, error) {
	p, err := g.player(playerID)
	if err != nil {
		return types.UploadResponse{}, err
	}
	if len(data) == 0 {
		return types.UploadResponse{}, badRequest("Uploaded audio file is empty.")
	}
	if len(data) > MaxUploadBytes {
		return types.UploadResponse{}, badRequest("Audio file is too large (limit 5 MB).")
	}
	if !isWAV(data, filename, contentType) {
		return types.UploadResponse{}, &apiError{http.StatusUnsupportedMediaType, "Only WAV audio is supported."}
	}
	clip := g.storeClip(p, filename, audio.MIMEWav, data, fmt.Sprintf("%s speaks (%d bytes).", p.name, len(data)))
	return types.UploadResponse{ClipID: clip.ClipID, Status: "stored"}, nil
}

func (g *game) storeClip(p *player, filename, contentType string, data []byte, transcript string) types.AudioClip {
	info := types.AudioClip{
		ClipID:      uuid.NewString(),
		PlayerID:    p.id,
		Name:        p.name,
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Transcript:  transcript,
		Timestamp:   g.stamp(),
	}
	g.clips = append(g.clips, storedClip{info: info, data: data})
	return info
}

func (g *game) clip(id string) (storedClip, error) {
	for _, c := range g.clips {
		if c.info.ClipID == id {
			return c, nil
		}
	}
	return storedClip{}, notFound("Audio clip not found.")
}

func (g *game) setDebug(hostID string, enabled bool) (types.DebugInfo, error) {
	if err := g.host(hostID, "toggle debug window"); err != nil {
		return types.DebugInfo{}, err
	}
	g.debug = enabled
	return g.debugInfo(), nil
}

func (g *game) debugInfo() types.DebugInfo {
	if !g.debug {
		return types.DebugInfo{}
	}
	return types.DebugInfo{Enabled: true, History: g.lastHistory}
}

// Views

func (g *game) snapshot() types.Snapshot {
	s := types.Snapshot{
		SessionID:      g.id,
		JoinCode:       g.code,
		Status:         g.status,
		WorkflowStage:  g.stage,
		NightStage:     g.night,
		RoundNumber:    g.round,
		Events:         slices.Clone(g.events),
		ChatMessages:   slices.Clone(g.chat),
		AIMessages:     slices.Clone(g.aiSpeech),
		VictoryTeam:    g.victoryTeam,
		VictoryMessage: g.victoryMessage,
	}
	for _, id := range g.joinSeq {
		p := g.players[id]
		pub := types.Player{PlayerID: p.id, Name: p.name, IsHost: p.host, IsAI: p.ai, IsAlive: p.alive}
		if g.status == types.StatusEnded {
			pub.Role = p.role
		}
		s.Players = append(s.Players, pub)
	}

	speaker := g.currentSpeaker()
	for i, id := range g.turnOrder {
		p := g.players[id]
		if p == nil || !p.alive {
			continue
		}
		s.TurnOrder = append(s.TurnOrder, types.TurnEntry{
			PlayerID: id, Name: p.name, Order: i + 1, IsAI: p.ai, IsCurrent: id == speaker,
		})
	}
	if speaker != "" {
		s.CurrentTurnPlayerID = speaker
		s.CurrentTurnPosition = g.turnIdx + 1
	}

	for _, voter := range g.voteSeq {
		if t, ok := g.votes[voter]; ok {
			s.Votes = append(s.Votes, types.Vote{VoterID: voter, TargetPlayerID: t})
		}
	}
	for _, c := range g.clips {
		s.AudioClips = append(s.AudioClips, c.info)
	}
	return s
}

func (g *game) assignment(playerID string) (types.Assignment, error) {
	p, err := g.player(playerID)
	if err != nil {
		return types.Assignment{}, err
	}
	a := types.Assignment{
		PlayerID: p.id,
		Name:     p.name,
		Status:   g.status,
		IsAlive:  p.alive,
		IsAI:     p.ai,
		Notes:    slices.Clone(p.notes),
	}
	if g.status != types.StatusWaiting {
		a.Role = p.role
		a.RoleSummary = roleSummaries[p.role]
		if p.role == types.RoleWerewolf {
			a.KnownAllies = slices.Clone(p.allies)
		}
	}
	return a, nil
}
