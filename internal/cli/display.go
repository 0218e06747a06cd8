package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/chordmap/internal/server"
)

// Execute implements the go-flags Commander interface for DisplayCommand.
func (c *DisplayCommand) Execute(args []string) error {
	if err := validateSource("display", c.Args.Input, c.RunID); err != nil {
		return err
	}
	if err := validateThreshold(c.MinTransitions); err != nil {
		return err
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("--port must be between 1 and 65535, got %d", c.Port)
	}

	e, err := loadEnv(c.globals)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.serve(ctx, e)
}

// addr applies the --host and --port overrides to the configured address.
func (c *DisplayCommand) addr(e *env) string {
	host := e.cfg.Server.Host
	if c.Host != "" {
		host = c.Host
	}
	port := e.cfg.Server.Port
	if c.Port != 0 {
		port = c.Port
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// serve loads the diagram source and serves it until ctx is done.
func (c *DisplayCommand) serve(ctx context.Context, e *env) error {
	session, err := loadSession(ctx, c.globals, e, c.Args.Input, c.RunID)
	if err != nil {
		return err
	}

	// Fail before listening if the diagram cannot be drawn.
	minCount := threshold(c.MinTransitions, e.cfg)
	if _, err := session.Render(minCount); err != nil {
		return err
	}

	srv := server.New(session, server.Options{
		MinTransitions: minCount,
		Canvas:         canvas(e.cfg),
	}, e.logger)

	bound := make(chan string, 1)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, c.addr(e), bound)
	})
	g.Go(func() error {
		select {
		case addr := <-bound:
			fmt.Printf("Serving %s on http://%s (Ctrl-C to stop)\n", session.Source(), addr)
			if c.ready != nil {
				c.ready <- addr
			}
		case <-gctx.Done():
		}
		return nil
	})
	return g.Wait()
}
