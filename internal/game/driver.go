package game

import (
	"context"
	"log/slog"
	"time"
)

// Driver advances the service's live sessions on a fixed wall-clock
// interval. Each frame turns elapsed real time into whole ticks.
type Driver struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

func NewDriver(service *Service, interval time.Duration, logger *slog.Logger) *Driver {
	return &Driver{
		service:  service,
		interval: interval,
		logger:   logger.With("component", "driver"),
	}
}

// Run blocks until ctx is cancelled, then checkpoints every live session.
func (d *Driver) Run(ctx context.Context) {
	d.logger.Info("Simulation driver started", "interval", d.interval)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := d.service.Shutdown(shutdownCtx); err != nil {
				d.logger.Error("Driver shutdown incomplete", "error", err)
			}
			cancel()
			d.logger.Info("Simulation driver stopped")
			return
		case now := <-ticker.C:
			if ticks := d.service.Frame(ctx, now); ticks > 0 {
				d.logger.Debug("Frame advanced", "ticks", ticks)
			}
		}
	}
}
