package sigctx

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ForcedExitCode is used when a second interrupt arrives before cleanup
// finished.
const ForcedExitCode = 130

var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}

// NotifyContext returns a context canceled by the first shutdown signal.
// A second signal exits the process at once. stop releases the signal
// handlers and must be called.
func NotifyContext() (ctx context.Context, stop context.CancelFunc) {
	return notify(context.Background(), func() { os.Exit(ForcedExitCode) })
}

func notify(parent context.Context, forceExit func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, shutdownSignals...)

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-sigs:
			cancel()
		case <-done:
			return
		}
		select {
		case <-sigs:
			forceExit()
		case <-done:
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			signal.Stop(sigs)
			close(done)
			<-exited
			cancel()
		})
	}
	return ctx, stop
}
