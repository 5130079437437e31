package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"llcqueue/internal/queue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, formatError(err))
		}
		stop()
		os.Exit(exitCode(err))
	}
}

// Exit codes let worker scripts tell a lost race from a broken setup.
const (
	exitFailure      = 1
	exitPrecondition = 2
	exitLockTimeout  = 3
	exitInvalidInput = 64
)

func exitCode(err error) int {
	switch queue.Kind(err) {
	case queue.KindNotPending, queue.KindNotInProgress, queue.KindNothingPending:
		return exitPrecondition
	case queue.KindLockTimeout:
		return exitLockTimeout
	case queue.KindInvalidInput:
		return exitInvalidInput
	default:
		return exitFailure
	}
}

func formatError(err error) string {
	kind := queue.Kind(err)
	if kind == queue.KindUnknown || kind == "" {
		return fmt.Sprintf("error: %v", err)
	}
	return fmt.Sprintf("error [%s]: %v", kind, err)
}
