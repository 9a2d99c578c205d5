package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule refreshes the count every five minutes.
const DefaultSchedule = "@every 5m"

// Result is one watcher tick.
type Result struct {
	At    time.Time
	Count int
	Err   error
}

// Watcher refreshes the vacancy count on a cron schedule.
type Watcher struct {
	session *Session
	spec    string
	logger  *slog.Logger
}

// NewWatcher returns a Watcher for spec (standard cron syntax or a
// descriptor such as "@every 10m"). An empty spec uses DefaultSchedule.
func NewWatcher(session *Session, spec string, logger *slog.Logger) *Watcher {
	if spec == "" {
		spec = DefaultSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{session: session, spec: spec, logger: logger}
}

// Run fetches the count immediately and then on every tick, passing each
// result to report. Ticks that fire while a fetch is still running are
// skipped. Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, report func(Result)) error {
	cl := cronLogger{w.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	tick := func() {
		total, err := w.session.FetchCount(ctx)
		if err != nil && ctx.Err() != nil {
			return
		}
		report(Result{At: time.Now(), Count: total.TotalVacancies, Err: err})
	}

	if _, err := c.AddFunc(w.spec, tick); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	w.logger.Info("watch started", "schedule", w.spec)
	tick()
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	w.logger.Info("watch stopped")
	return nil
}

// cronLogger routes cron's diagnostics to slog.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
