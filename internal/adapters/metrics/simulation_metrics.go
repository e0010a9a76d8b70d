package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/reliefops-go/internal/application/events"
	"github.com/andrescamacho/reliefops-go/internal/application/simulation"
)

// StatusFunc returns the current session summary. It is only called from
// Notify, i.e. on the goroutine draining the event queue.
type StatusFunc func() simulation.Status

// SimulationMetricsCollector turns queue events into Prometheus metrics.
// Counters follow task and delivery lifecycles; gauges are refreshed from the
// session status on every round advance.
type SimulationMetricsCollector struct {
	status StatusFunc

	tasksCreated   *prometheus.CounterVec
	tasksFinished  *prometheus.CounterVec
	notices        prometheus.Counter
	deliveries     *prometheus.CounterVec
	unitsDelivered *prometheus.CounterVec

	round       prometheus.Gauge
	counters    *prometheus.GaugeVec
	tasksByStat *prometheus.GaugeVec
	vehicles    *prometheus.GaugeVec
	floodTiles  prometheus.Gauge
}

// NewSimulationMetricsCollector creates the collector; status may be nil
func NewSimulationMetricsCollector(status StatusFunc) *SimulationMetricsCollector {
	return &SimulationMetricsCollector{
		status: status,

		tasksCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tasks_created_total",
				Help:      "Tasks instantiated by type",
			},
			[]string{"type"},
		),
		tasksFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tasks_finished_total",
				Help:      "Tasks reaching a terminal status by type and status",
			},
			[]string{"type", "status"},
		),
		notices: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "task_notices_total",
				Help:      "Notices shown to the player",
			},
		),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "deliveries_total",
				Help:      "Delivery lifecycle events by cargo and status",
			},
			[]string{"cargo", "status"},
		),
		unitsDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "units_delivered_total",
				Help:      "Units dropped off at destinations by cargo",
			},
			[]string{"cargo"},
		),

		round: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "round",
				Help:      "Current round",
			},
		),
		counters: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "counter_value",
				Help:      "Satisfaction, budget and workforce",
			},
			[]string{"counter"},
		),
		tasksByStat: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tasks",
				Help:      "Tasks in the book by status",
			},
			[]string{"status"},
		),
		vehicles: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "vehicles",
				Help:      "Vehicles by availability",
			},
			[]string{"state"},
		),
		floodTiles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "flooded_tiles",
				Help:      "Flooded tiles on the map",
			},
		),
	}
}

// Register registers all simulation metrics with the Prometheus registry
func (c *SimulationMetricsCollector) Register() error {
	return register(
		c.tasksCreated,
		c.tasksFinished,
		c.notices,
		c.deliveries,
		c.unitsDelivered,
		c.round,
		c.counters,
		c.tasksByStat,
		c.vehicles,
		c.floodTiles,
	)
}

// Notify implements events.Observer
func (c *SimulationMetricsCollector) Notify(ctx context.Context, e events.Event) {
	switch e.Type {
	case events.TaskCreated:
		if e.Task != nil {
			c.tasksCreated.WithLabelValues(e.Task.Type).Inc()
		}
	case events.TaskCompleted, events.TaskExpired:
		if e.Task != nil {
			c.tasksFinished.WithLabelValues(e.Task.Type, e.Task.Status).Inc()
		}
	case events.TaskNotice:
		c.notices.Inc()
	case events.DeliveryCreated, events.DeliveryCompleted, events.DeliveryFailed:
		if e.Delivery == nil {
			return
		}
		status := e.Delivery.Status
		if e.Type == events.DeliveryCreated {
			status = "CREATED"
		}
		c.deliveries.WithLabelValues(e.Delivery.Cargo, status).Inc()
		if e.Type == events.DeliveryCompleted && e.Delivery.Delivered > 0 {
			c.unitsDelivered.WithLabelValues(e.Delivery.Cargo).Add(float64(e.Delivery.Delivered))
		}
	case events.CounterChanged:
		if e.Counter != nil {
			c.counters.WithLabelValues(e.Counter.Counter).Set(float64(e.Counter.ValueAfter))
		}
	case events.RoundAdvanced:
		c.round.Set(float64(e.Round))
		c.refresh()
	}
}

func (c *SimulationMetricsCollector) refresh() {
	if c.status == nil {
		return
	}
	s := c.status()

	c.counters.WithLabelValues("SATISFACTION").Set(float64(s.Satisfaction))
	c.counters.WithLabelValues("BUDGET").Set(float64(s.Budget))
	c.counters.WithLabelValues("WORKFORCE").Set(float64(s.Workforce))
	c.floodTiles.Set(float64(s.FloodedTiles))

	c.tasksByStat.Reset()
	for status, n := range s.Tasks.ByStatus {
		c.tasksByStat.WithLabelValues(string(status)).Set(float64(n))
	}

	c.vehicles.WithLabelValues("available").Set(float64(s.Deliveries.AvailableVehicles))
	c.vehicles.WithLabelValues("busy").Set(float64(s.Deliveries.BusyVehicles))
	c.vehicles.WithLabelValues("damaged").Set(float64(s.Deliveries.DamagedVehicles))
}
