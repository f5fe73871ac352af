// Package gametest is an in-memory game service speaking the same HTTP
// contract as the real one. Tests drive the client against it.
package gametest

import (
	"context"
	"net/http"
	"net/http/httptest"

	"go.uber.org/zap"

	"github.com/DoyleJ11/moonlit-client/internal/logging"
	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

type Server struct {
	*httptest.Server
	reg *registry
}

func NewServer(opts Options, log *zap.Logger) *Server {
	log = logging.OrNop(log)
	reg := newRegistry(context.Background(), opts)
	h := &handlers{reg: reg, log: log.Named("gametest")}
	return &Server{Server: httptest.NewServer(h.routes()), reg: reg}
}

// Handler exposes the router without a listener.
func Handler(opts Options, log *zap.Logger) http.Handler {
	return (&handlers{reg: newRegistry(context.Background(), opts), log: logging.OrNop(log)}).routes()
}

func (s *Server) Close() {
	s.Server.Close()
	_ = s.reg.send(context.Background(), shutdownRegistry{})
}

// Snapshot reads a game's state directly, bypassing HTTP.
func (s *Server) Snapshot(ctx context.Context, id string) (types.Snapshot, error) {
	var snap types.Snapshot
	err := s.reg.with(ctx, id, "", func(g *game) error {
		snap = g.snapshot()
		return nil
	})
	return snap, err
}

// Roles reports the dealt role of every player.
func (s *Server) Roles(ctx context.Context, id string) (map[string]types.Role, error) {
	roles := make(map[string]types.Role)
	err := s.reg.with(ctx, id, "", func(g *game) error {
		for pid, p := range g.players {
			roles[pid] = p.role
		}
		return nil
	})
	return roles, err
}
