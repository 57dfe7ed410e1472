// Package cleanup runs the one scheduled job of the service: expiring
// gateway payments that never completed. Registration links deliberately
// have no job here — they expire lazily on read.
package cleanup

import (
	"log/slog"

	"dojohub/lib/sl"

	"github.com/robfig/cron/v3"
)

type Payments interface {
	ExpireStale()
}

// Start schedules the hourly payment sweep. Fire-and-forget: the sweep
// logs its own failures and never stops the schedule.
func Start(payments Payments, log *slog.Logger) (*cron.Cron, error) {
	logger := log.With(sl.Module("cleanup"))
	c := cron.New()
	_, err := c.AddFunc("@hourly", payments.ExpireStale)
	if err != nil {
		return nil, err
	}
	c.Start()
	logger.Info("payment expiry sweep scheduled")
	return c, nil
}
