package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dategen/internal/evo"
	"dategen/internal/model"
)

const namespace = "dategen"

// Collector exports run progress as Prometheus metrics. It implements
// evo.Observer and is safe for concurrent runs.
type Collector struct {
	registry *prometheus.Registry

	coverage    *prometheus.GaugeVec
	redundancy  *prometheus.GaugeVec
	generations *prometheus.CounterVec
	runs        *prometheus.CounterVec
	accepted    *prometheus.CounterVec
	finalCov    *prometheus.HistogramVec
}

var _ evo.Observer = (*Collector)(nil)

func NewCollector() (*Collector, error) {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.coverage = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "coverage_percent",
		Help:      "Category coverage of the latest generation.",
	}, []string{"instance"})
	c.redundancy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "redundancy",
		Help:      "Redundant category discoveries in the latest generation.",
	}, []string{"instance"})
	c.generations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generations_total",
		Help:      "Generations executed.",
	}, []string{"instance"})
	c.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Completed runs by terminal state.",
	}, []string{"instance", "state"})
	c.accepted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refiner_accepted_total",
		Help:      "Neighbors accepted by local search.",
	}, []string{"instance"})
	c.finalCov = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "final_coverage_percent",
		Help:      "Final coverage per completed run.",
		Buckets:   []float64{25, 50, 75, 90, 95, 100},
	}, []string{"instance"})

	for _, collector := range []prometheus.Collector{c.coverage, c.redundancy, c.generations, c.runs, c.accepted, c.finalCov} {
		if err := c.registry.Register(collector); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return c, nil
}

func (c *Collector) ObserveGeneration(instance string, diag model.GenerationDiagnostics) {
	c.coverage.WithLabelValues(instance).Set(diag.Coverage)
	c.redundancy.WithLabelValues(instance).Set(float64(diag.Redundancy))
	c.generations.WithLabelValues(instance).Inc()
}

func (c *Collector) ObserveRefinement(instance string, result evo.RefineResult) {
	c.accepted.WithLabelValues(instance).Add(float64(result.Accepted))
	c.coverage.WithLabelValues(instance).Set(result.Coverage)
}

func (c *Collector) ObserveRun(instance string, result evo.RunResult) {
	c.runs.WithLabelValues(instance, string(result.State)).Inc()
	c.finalCov.WithLabelValues(instance).Observe(result.FinalCoverage())
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus exposition
// format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry for the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
