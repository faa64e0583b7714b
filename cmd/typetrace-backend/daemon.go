package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/domi413/typetrace-backend/internal/apperrors"
	"github.com/domi413/typetrace-backend/internal/applog"
	"github.com/domi413/typetrace-backend/internal/config"
	"github.com/domi413/typetrace-backend/internal/eventhandler"
	"github.com/domi413/typetrace-backend/internal/keystroke"
	"github.com/domi413/typetrace-backend/internal/paths"
	"github.com/domi413/typetrace-backend/internal/store"
)

// runDaemon wires the event handler and store together and runs the
// capture loop until a shutdown signal arrives.
func runDaemon(global *cmdGlobal) error {
	log := applog.New(global.flagDebug)
	log.Info("Starting")
	defer log.Info("Stopped")

	cfg := config.Default()
	cfg.Debug = global.flagDebug

	handler, err := eventhandler.New(cfg, log)
	if err != nil {
		return err
	}

	storePath, err := paths.ResolveStorePath()
	if err != nil {
		handler.Close()
		return err
	}
	cfg.StorePath = storePath

	st, err := store.Open(storePath, log)
	if err != nil {
		handler.Close()
		return err
	}

	stats := &runStats{start: time.Now()}

	handler.SetFlushCallback(func(batch []keystroke.Event) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := st.WriteBatch(ctx, batch)
		if err == nil {
			stats.recordFlush(len(batch))
		}
		return err
	})

	running := installSignalHandlers(log)

	log.Infof("Listening for keyboard input, writing to %s", storePath)
	for running.Load() {
		if err := handler.Tick(); err != nil {
			// Runtime input-layer errors are logged and the loop
			// continues; only startup failures are fatal.
			log.Warnf("tick: %v", err)
		}
	}

	return shutdown(log, handler, st, stats)
}

// installSignalHandlers installs idempotent SIGINT/SIGTERM handlers that
// flip an atomic running flag; the handler itself performs no I/O, only
// the atomic store.
func installSignalHandlers(log *applog.Logger) *atomic.Bool {
	running := &atomic.Bool{}
	running.Store(true)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGTERM)

	var once sync.Once
	go func() {
		for range sigCh {
			once.Do(func() {
				log.Info("Received shutdown signal")
				running.Store(false)
			})
			// A second signal during shutdown is absorbed and ignored.
		}
	}()

	return running
}

// runStats accumulates the counters printed in the graceful-shutdown
// summary.
type runStats struct {
	start         time.Time
	mu            sync.Mutex
	flushes       int
	eventsWritten int
}

func (s *runStats) recordFlush(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	s.eventsWritten += n
}

// shutdown performs a final forced flush and a WAL checkpoint, then
// closes the event handler and, after it, the store.
func shutdown(log *applog.Logger, handler *eventhandler.EventHandler, st *store.Store, stats *runStats) error {
	if err := handler.Flush(); err != nil {
		log.Warnf("final flush: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := st.Checkpoint(ctx); err != nil {
		log.Warnf("checkpoint: %v", err)
	}

	handler.Close()

	if err := st.Close(); err != nil {
		log.Warnf("close store: %v", err)
		return apperrors.New(apperrors.KindStore, "close store: %v", err)
	}

	log.Infof("Run summary: flushes=%d events_written=%d uptime=%s",
		stats.flushes, stats.eventsWritten, time.Since(stats.start).Round(time.Second))

	return nil
}
