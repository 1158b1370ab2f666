package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/painpoint-cli/internal/config"
)

// Checker collects a snapshot on a fixed interval and sends the alerts it
// triggers. An alert type that was sent within the cooldown is not sent
// again until the cooldown passes.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig

	lastSent map[AlertType]time.Time
	now      func() time.Time
}

// NewChecker creates a background alert checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
		lastSent:  make(map[AlertType]time.Time),
		now:       time.Now,
	}
}

// Run blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting alert checker",
		zap.Duration("interval", interval),
		zap.Int("lookback_hours", c.cfg.LookbackWindowHours),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("alert checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

// check runs one collection and returns how many alerts it dispatched.
func (c *Checker) check(ctx context.Context, log *zap.Logger) int {
	snap, err := c.collector.Collect(ctx, c.cfg.LookbackWindowHours)
	if err != nil {
		log.Error("monitoring: failed to collect metrics", zap.Error(err))
		return 0
	}

	triggered := c.alerter.Evaluate(snap)
	due := c.due(triggered)
	if len(due) == 0 {
		log.Debug("monitoring: no alerts due",
			zap.Int("runs_total", snap.RunsTotal),
			zap.Int("suppressed", len(triggered)),
		)
		return 0
	}

	sent := c.alerter.SendAlerts(ctx, due)
	now := c.now()
	for _, a := range due {
		c.lastSent[a.Type] = now
	}
	log.Info("monitoring: alert check complete",
		zap.Int("alerts_triggered", len(triggered)),
		zap.Int("alerts_due", len(due)),
		zap.Int("alerts_sent", sent),
	)
	return len(due)
}

func (c *Checker) due(alerts []Alert) []Alert {
	cooldown := time.Duration(c.cfg.AlertCooldownSecs) * time.Second
	now := c.now()
	out := alerts[:0:0]
	for _, a := range alerts {
		if last, ok := c.lastSent[a.Type]; ok && now.Sub(last) < cooldown {
			continue
		}
		out = append(out, a)
	}
	return out
}
