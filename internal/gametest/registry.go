package gametest

import (
	"context"
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/DoyleJ11/moonlit-client/internal/remote"
	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

// Deal assigns roles given the players in join order. Unlisted players are
// civilians.
type Deal func(joinOrder []string, rng *mrand.Rand) map[string]types.Role

// RandomDeal picks one detective and one werewolf, two from six players up.
func RandomDeal(ids []string, rng *mrand.Rand) map[string]types.Role {
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	roles := map[string]types.Role{ids[0]: types.RoleDetective}
	wolves := 1
	if len(ids) >= 6 {
		wolves = 2
	}
	for _, id := range ids[1 : 1+wolves] {
		roles[id] = types.RoleWerewolf
	}
	return roles
}

// FixedDeal hands out roles by join position.
func FixedDeal(byPosition ...types.Role) Deal {
	return func(ids []string, _ *mrand.Rand) map[string]types.Role {
		roles := make(map[string]types.Role, len(ids))
		for i, r := range byPosition {
			if i < len(ids) && r != "" {
				roles[ids[i]] = r
			}
		}
		return roles
	}
}

type Options struct {
	Deal  Deal
	Clock clockwork.Clock
	Seed  uint64
	// Voice renders the clip an AI speaker produces when cued. A nil
	// result means the speech has no audio.
	Voice func(speakerID string) []byte

	rng *mrand.Rand
}

func (o *Options) defaults() {
	if o.Deal == nil {
		o.Deal = RandomDeal
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Voice == nil {
		o.Voice = func(string) []byte { return nil }
	}
	o.rng = mrand.New(mrand.NewPCG(o.Seed, o.Seed^0x9e3779b97f4a7c15))
}

// GenerateCode returns a random join code of n upper-case letters.
func GenerateCode(n int) (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	code := make([]byte, n)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type registryMsg interface{ isRegistryMsg() }

type createGame struct {
	HostName string
	Reply    chan createReply
}

type createReply struct {
	snap   types.Snapshot
	hostID string
	err    error
}

// withGame runs Fn against one game inside the registry loop.
type withGame struct {
	ID    string
	Code  string // used when ID is empty
	Fn    func(*game) error
	Reply chan error
}

type removeGame struct {
	ID    string
	Reply chan error
}

type shutdownRegistry struct{}

func (createGame) isRegistryMsg()       {}
func (withGame) isRegistryMsg()         {}
func (removeGame) isRegistryMsg()       {}
func (shutdownRegistry) isRegistryMsg() {}

// registry owns every game. Handlers never touch a game outside its loop.
type registry struct {
	inbox  chan registryMsg
	games  map[string]*game
	byCode map[string]string
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
}

func newRegistry(parent context.Context, opts Options) *registry {
	opts.defaults()
	ctx, cancel := context.WithCancel(parent)
	r := &registry{
		inbox:  make(chan registryMsg, 64),
		games:  make(map[string]*game),
		byCode: make(map[string]string),
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
	go r.loop()
	return r
}

func (r *registry) loop() {
	for {
		select {
		case <-r.ctx.Done():
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case createGame:
				msg.Reply <- r.create(msg.HostName)

			case withGame:
				id := msg.ID
				if id == "" {
					id = r.byCode[remote.NormalizeCode(msg.Code)]
				}
				g := r.games[id]
				if g == nil {
					msg.Reply <- notFound("Game not found.")
					break
				}
				msg.Reply <- msg.Fn(g)

			case removeGame:
				g := r.games[msg.ID]
				if g == nil {
					msg.Reply <- notFound("Game not found.")
					break
				}
				delete(r.byCode, g.code)
				delete(r.games, msg.ID)
				msg.Reply <- nil

			case shutdownRegistry:
				clear(r.games)
				clear(r.byCode)
				r.cancel()
				return
			}
		}
	}
}

func (r *registry) create(hostName string) createReply {
	if hostName == "" {
		return createReply{err: badRequest("Host name cannot be empty.")}
	}
	var code string
	for {
		c, err := GenerateCode(4)
		if err != nil {
			return createReply{err: err}
		}
		if _, taken := r.byCode[c]; !taken {
			code = c
			break
		}
	}
	g := newGame(uuid.NewString(), code, hostName, &r.opts)
	r.games[g.id] = g
	r.byCode[code] = g.id
	return createReply{snap: g.snapshot(), hostID: g.hostID}
}

func (r *registry) send(ctx context.Context, m registryMsg) error {
	select {
	case r.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

func (r *registry) with(ctx context.Context, id, code string, fn func(*game) error) error {
	reply := make(chan error, 1)
	if err := r.send(ctx, withGame{ID: id, Code: code, Fn: fn, Reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
