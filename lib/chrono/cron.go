package chrono

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
)

// Cron runs callbacks on cron schedules, a callback that is still running
// when its next tick comes around is skipped for that tick.
type Cron struct {
	cron *cron.Cron
}

func NewCron(location *time.Location) Cron {
	if location == nil {
		location = time.Local
	}
	logger := cronLogger{}
	return Cron{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Schedule registers `callback` under a standard 5 field spec or a
// descriptor such as "@every 30m".
func (c Cron) Schedule(spec string, callback func()) error {
	_, err := c.cron.AddFunc(spec, callback)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Next returns when the earliest scheduled job runs next, zero when the
// scheduler is empty or not started.
func (c Cron) Next() time.Time {
	var next time.Time
	for _, entry := range c.cron.Entries() {
		if next.IsZero() || (!entry.Next.IsZero() && entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (c Cron) Run(ctx context.Context) {
	c.cron.Start()
	<-ctx.Done()
	<-c.cron.Stop().Done()
}

// LoadLocation resolves an IANA zone name, "" and "Local" mean the system zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(fmt.Sprintf("cron: %s", msg), keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(fmt.Sprintf("cron: %s", msg), append([]any{"err", err}, keysAndValues...)...)
}
