package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "um_eventbus"

// MetricsExporter отдаёт Stats шины в Prometheus в момент сбора.
// Счётчики шины монотонны, поэтому публикуются как CounterValue напрямую.
// Метку backend задаёт вызывающий (memory, jetstream).
type MetricsExporter struct {
	bus EventBus

	published *prometheus.Desc
	consumed  *prometheus.Desc
	dropped   *prometheus.Desc
	inflight  *prometheus.Desc
}

// NewMetricsExporter регистрирует коллектор шины в reg (nil - DefaultRegisterer)
func NewMetricsExporter(bus EventBus, backend string, reg prometheus.Registerer) *MetricsExporter {
	labels := prometheus.Labels{"backend": backend}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", name), help, nil, labels)
	}
	me := &MetricsExporter{
		bus:       bus,
		published: desc("messages_published_total", "Опубликованные события шахты."),
		consumed:  desc("messages_consumed_total", "События, доставленные подписчикам."),
		dropped:   desc("messages_dropped_total", "События, отброшенные из-за ошибок или back-pressure."),
		inflight:  desc("messages_inflight", "События в очереди доставки."),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(me)
	return me
}

// Describe реализует prometheus.Collector
func (m *MetricsExporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.published
	ch <- m.consumed
	ch <- m.dropped
	ch <- m.inflight
}

// Collect реализует prometheus.Collector
func (m *MetricsExporter) Collect(ch chan<- prometheus.Metric) {
	stats := m.bus.Metrics()
	ch <- prometheus.MustNewConstMetric(m.published, prometheus.CounterValue, float64(stats.Published))
	ch <- prometheus.MustNewConstMetric(m.consumed, prometheus.CounterValue, float64(stats.Consumed))
	ch <- prometheus.MustNewConstMetric(m.dropped, prometheus.CounterValue, float64(stats.Dropped))
	ch <- prometheus.MustNewConstMetric(m.inflight, prometheus.GaugeValue, float64(stats.InFlight))
}
