package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/moonlit-client/internal/gametest"
	"github.com/DoyleJ11/moonlit-client/internal/logging"
)

// server runs the in-memory game service so the client can be tried
// without the real backend.
func main() {
	addr := flag.String("addr", ":8000", "listen address")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "role deal and AI seed")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log, err := logging.New(*level, "console")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           gametest.Handler(gametest.Options{Seed: *seed}, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening", zap.String("addr", *addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("serve", zap.Error(err))
	}
}
