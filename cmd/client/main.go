package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/DoyleJ11/moonlit-client/internal/audio"
	"github.com/DoyleJ11/moonlit-client/internal/config"
	"github.com/DoyleJ11/moonlit-client/internal/engine"
	"github.com/DoyleJ11/moonlit-client/internal/logging"
	"github.com/DoyleJ11/moonlit-client/internal/remote"
	"github.com/DoyleJ11/moonlit-client/internal/session"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := remote.NewGameClient(cfg.BaseURL, log)
	api.SetTimeout(cfg.RequestTimeout)

	sess := session.New(ctx, session.Options{
		Remote:         api,
		Device:         audio.FileDevice{Path: cfg.CaptureSource, ChunkBytes: cfg.CaptureChunkBytes},
		Decoder:        audio.WAVDecoder{},
		Speaker:        audio.ClockSpeaker{Clock: clockwork.NewRealClock()},
		PollInterval:   cfg.PollInterval,
		MaxUploadBytes: int(cfg.MaxUploadBytes),
		Logger:         log,
	})
	defer sess.Close()

	log.Info("client ready", zap.String("base_url", cfg.BaseURL), zap.Duration("poll_interval", cfg.PollInterval))

	updates := make(chan session.View, 16)
	sess.Inbox() <- session.Subscribe{ID: "cli", Outbox: updates}
	go announce(os.Stdout, updates)

	repl(ctx, sess, os.Stdin, os.Stdout)
}

// announce prints a line whenever the phase, the speaker or the banner
// changes.
func announce(w io.Writer, updates <-chan session.View) {
	var last session.View
	for v := range updates {
		switch {
		case v.Phase != last.Phase:
			fmt.Fprintf(w, "\n== %s ==\n", phaseTitle(v))
		case v.Snapshot.CurrentTurnPlayerID != last.Snapshot.CurrentTurnPlayerID && v.Snapshot.CurrentTurnPlayerID != "":
			fmt.Fprintf(w, "\n-- speaking: %s\n", nameOf(v, v.Snapshot.CurrentTurnPlayerID))
		}
		if v.Banner != "" && v.Banner != last.Banner {
			fmt.Fprintf(w, "! %s\n", v.Banner)
		}
		last = v
	}
}

func repl(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer) {
	sc := bufio.NewScanner(in)
	fmt.Fprintln(out, `moonlit client. Type "help" for commands.`)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		verb, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch verb {
		case "quit", "exit":
			return
		case "help":
			fmt.Fprint(out, helpText)
			continue
		case "status", "s":
			if v, err := sess.View(ctx); err == nil {
				render(out, v)
			}
			continue
		case "leave":
			if err := sess.Reset(ctx); err != nil {
				fmt.Fprintln(out, "error:", err)
			}
			continue
		}

		v, err := sess.View(ctx)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			return
		}
		cmd, err := parse(v, verb, arg)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			continue
		}
		if err := sess.Do(ctx, cmd); err != nil {
			if errors.Is(err, session.ErrClosed) || errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintln(out, "error:", err)
			continue
		}
		if v, err := sess.View(ctx); err == nil {
			render(out, v)
		}
	}
}

const helpText = `
  create <name>        host a new game
  find <code>          look up a game by join code
  join <name>          join the game you found
  ai [name]            add an AI player (host)
  kick <player>        remove a player from the lobby (host)
  start                deal roles and begin the first night (host)
  hunt <player>        choose the wolves' victim
  inspect <player>     investigate a player as detective
  night                advance the night (host)
  dawn                 resolve the night summary (host)
  cue                  let the current AI speaker talk
  next                 move to the next speaker (host)
  vote <player>|abstain
  aivotes              make AI players vote (host)
  close                resolve the votes (host)
  reveal               end the game and show every role (host)
  say <text>           post to chat
  rec / stop           record and upload a clip
  debug [on|off]       show or toggle the debug window (host)
  archive <file.zip>   save every clip you recorded
  delete               delete the game (host)
  status               show the table
  leave                forget the current game
  quit
`

func parse(v session.View, verb, arg string) (engine.Command, error) {
	c := func(t engine.CommandType) engine.Command { return engine.Command{Type: t} }

	switch verb {
	case "create":
		return engine.Command{Type: engine.CmdCreate, Name: arg}, nil
	case "find":
		return engine.Command{Type: engine.CmdFindByCode, Code: arg}, nil
	case "join":
		return engine.Command{Type: engine.CmdJoin, Name: arg}, nil
	case "ai":
		return engine.Command{Type: engine.CmdAddAI, Name: arg}, nil
	case "start":
		return c(engine.CmdStart), nil
	case "night":
		return c(engine.CmdAdvanceNight), nil
	case "dawn":
		return c(engine.CmdResolveNight), nil
	case "cue":
		return c(engine.CmdCueSpeech), nil
	case "next":
		return c(engine.CmdAdvanceTurn), nil
	case "aivotes":
		return c(engine.CmdTriggerAIVotes), nil
	case "close":
		return c(engine.CmdResolveVotes), nil
	case "reveal":
		return c(engine.CmdReveal), nil
	case "rec":
		return c(engine.CmdRecordStart), nil
	case "stop":
		return c(engine.CmdRecordStop), nil
	case "delete":
		return c(engine.CmdDelete), nil
	case "say":
		return engine.Command{Type: engine.CmdChat, Text: arg}, nil
	case "debug":
		if arg == "" {
			return c(engine.CmdLoadDebug), nil
		}
		return engine.Command{Type: engine.CmdToggleDebug, Enabled: arg == "on"}, nil
	case "archive":
		return engine.Command{Type: engine.CmdArchive, Path: arg}, nil
	case "vote":
		if arg == "abstain" {
			return engine.Command{Type: engine.CmdVote, Abstain: true}, nil
		}
	}

	targeted := map[string]engine.CommandType{
		"kick":    engine.CmdRemovePlayer,
		"hunt":    engine.CmdSubmitWolf,
		"inspect": engine.CmdSubmitDetective,
		"vote":    engine.CmdVote,
	}
	t, ok := targeted[verb]
	if !ok {
		return engine.Command{}, fmt.Errorf("unknown command %q", verb)
	}
	id, err := lookup(v, arg)
	if err != nil {
		return engine.Command{}, err
	}
	return engine.Command{Type: t, TargetID: id}, nil
}

// lookup resolves a player by id, exact name or unique name prefix.
func lookup(v session.View, arg string) (string, error) {
	if arg == "" {
		return "", errors.New("which player?")
	}
	var matches []string
	for _, p := range v.Snapshot.Players {
		switch {
		case p.PlayerID == arg, strings.EqualFold(p.Name, arg):
			return p.PlayerID, nil
		case strings.HasPrefix(strings.ToLower(p.Name), strings.ToLower(arg)):
			matches = append(matches, p.PlayerID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no player matches %q", arg)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("%q matches %d players", arg, len(matches))
}
