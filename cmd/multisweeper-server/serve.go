package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/lguibr/multisweeper/config"
	"github.com/lguibr/multisweeper/httpapi"
	"github.com/lguibr/multisweeper/listener"
	"github.com/lguibr/multisweeper/lobby"
	"github.com/lguibr/multisweeper/registry"
)

// Serve wires the registry, the per-lobby actor options, the WebSocket
// listener, and the debug HTTP surface together and blocks until the
// server exits.
func Serve(ctx context.Context, cfg config.Config, verbose bool) error {
	logger := log.New(os.Stdout, "multisweeper: ", log.LstdFlags)
	if !verbose {
		logger.SetFlags(0)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	reg := registry.New(seed, logger)
	opts := lobby.Options{
		TurnTimeout: int64(cfg.TurnTimeout),
		Difficulty:  cfg.Difficulty,
	}

	ln := listener.New(reg, logger, opts)
	api := httpapi.New(reg, logger)

	mux := http.NewServeMux()
	mux.Handle("/", api.Router())
	mux.Handle("/ws", ln.Handler())

	server := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: mux,
	}

	logger.Printf("listening on %s (difficulty=%s, turn-timeout=%s)", cfg.ListenAddress, cfg.Difficulty, cfg.TurnTimeout)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("multisweeper: server exited: %w", err)
		}
		return nil
	}
}
