package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/rewardroster/internal/dependencies/clock"
	"github.com/mcoot/rewardroster/internal/engine"
)

// withEngine connects a client engine to the server, runs fn and waits
// for its changes to be saved
func withEngine(cmd *cobra.Command, fn func(e *engine.Engine) error) error {
	ecfg := engine.DefaultConfig()
	ecfg.MessagesPath = cfg.Messages
	e, err := engine.New(client, nil, clock.New(), ecfg, logger)
	if err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		pushErr error
	)
	e.OnNotice(func(n engine.Notice) {
		if cfg.Verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", n.Level, n.Text)
		}
		mu.Lock()
		defer mu.Unlock()
		if n.Key == engine.NoticePushFailed && pushErr == nil {
			pushErr = n.Err
		}
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	runErr := make(chan error, 1)
	go func() {
		runErr <- e.Run(ctx)
	}()
	defer func() {
		cancel()
		<-runErr
	}()

	if err := waitConnected(ctx, e, runErr); err != nil {
		return err
	}
	if err := fn(e); err != nil {
		return err
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, cfg.Timeout)
	defer flushCancel()
	if err := e.Flush(flushCtx); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	if pushErr != nil {
		return fmt.Errorf("save failed: %w", pushErr)
	}
	return nil
}

func waitConnected(ctx context.Context, e *engine.Engine, runErr <-chan error) error {
	deadline := time.NewTimer(cfg.Timeout)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for !e.Connected() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-runErr:
			if err == nil {
				err = errors.New("engine stopped")
			}
			return err
		case <-deadline.C:
			return fmt.Errorf("could not connect to %s within %s", cfg.ServerURL, cfg.Timeout)
		case <-tick.C:
		}
	}
	return nil
}
