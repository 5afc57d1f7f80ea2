package simulator

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds one simulator run's Prometheus collectors. Kept
// per-instance rather than package-global so concurrent runs (e.g. a
// parameter sweep) don't collide on the same series.
type Metrics struct {
	fills             *prometheus.CounterVec
	rejections        *prometheus.CounterVec
	bracketTriggers   *prometheus.CounterVec
	killSwitchEngaged prometheus.Gauge
	equity            prometheus.Gauge
	peakEquity        prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		fills: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barsim_fills_total",
				Help: "Fills produced, by side.",
			},
			[]string{"side"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barsim_order_rejections_total",
				Help: "Orders rejected by the constraint or risk-cap pipeline, by reason.",
			},
			[]string{"reason"},
		),
		bracketTriggers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barsim_bracket_triggers_total",
				Help: "Bracket legs triggered, by leg type (stop_loss|take_profit).",
			},
			[]string{"leg"},
		),
		killSwitchEngaged: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "barsim_kill_switch_engaged",
				Help: "1 once the kill switch has tripped for this run, 0 until then.",
			},
		),
		equity: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "barsim_equity",
				Help: "Current account equity.",
			},
		),
		peakEquity: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "barsim_peak_equity",
				Help: "Peak account equity observed so far this run.",
			},
		),
	}
}

// Register adds this run's collectors to reg, so /metrics can expose them
// alongside any other registered instrumentation.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{m.fills, m.rejections, m.bracketTriggers, m.killSwitchEngaged, m.equity, m.peakEquity}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Metrics exposes the simulator's Prometheus collectors for external
// registration (e.g. against a run-scoped prometheus.Registry).
func (s *Simulator) Metrics() *Metrics {
	return s.metrics
}
