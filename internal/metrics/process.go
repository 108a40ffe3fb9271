package metrics

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics содержит сведения о процессе сервера
type ServerMetrics struct {
	StartTime time.Time
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	return &ServerMetrics{
		StartTime: time.Now(),
	}
}

// GetUptime возвращает время работы сервера
func (sm *ServerMetrics) GetUptime() string {
	return FormatUptime(time.Since(sm.StartTime))
}

// FormatUptime форматирует длительность работы
func FormatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// GetMemoryUsage возвращает использование памяти в MB
func (sm *ServerMetrics) GetMemoryUsage() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.Alloc) / 1024 / 1024
}

// GetCPUUsage возвращает использование CPU процессом в процентах
func (sm *ServerMetrics) GetCPUUsage() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		// Если не удалось получить метрику процесса, берём системную
		cpuPercents, err := cpu.Percent(100*time.Millisecond, false)
		if err != nil || len(cpuPercents) == 0 {
			return 0, err
		}
		return cpuPercents[0], nil
	}
	return cpuPercent, nil
}

// Snapshot возвращает сводку для /health
func (sm *ServerMetrics) Snapshot() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	out := map[string]interface{}{
		"uptime":        sm.GetUptime(),
		"alloc_mb":      float64(m.Alloc) / 1024 / 1024,
		"heap_alloc_mb": float64(m.HeapAlloc) / 1024 / 1024,
		"num_gc":        m.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}
	if cpuPercent, err := sm.GetCPUUsage(); err == nil {
		out["cpu_percent"] = cpuPercent
	}
	return out
}

// ProcessCollector отдаёт CPU и RSS процесса через gopsutil
type ProcessCollector struct {
	sm      *ServerMetrics
	cpuDesc *prometheus.Desc
	rssDesc *prometheus.Desc
	upDesc  *prometheus.Desc
}

// NewProcessCollector создаёт коллектор
func NewProcessCollector(sm *ServerMetrics) *ProcessCollector {
	return &ProcessCollector{
		sm:      sm,
		cpuDesc: prometheus.NewDesc(Namespace+"_process_cpu_percent", "Загрузка CPU процессом.", nil, nil),
		rssDesc: prometheus.NewDesc(Namespace+"_process_rss_bytes", "Резидентная память процесса.", nil, nil),
		upDesc:  prometheus.NewDesc(Namespace+"_uptime_seconds", "Время работы сервера.", nil, nil),
	}
}

// Describe реализует prometheus.Collector
func (c *ProcessCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cpuDesc
	ch <- c.rssDesc
	ch <- c.upDesc
}

// Collect реализует prometheus.Collector
func (c *ProcessCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.upDesc, prometheus.GaugeValue, time.Since(c.sm.StartTime).Seconds())

	if cpuPercent, err := c.sm.GetCPUUsage(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.cpuDesc, prometheus.GaugeValue, cpuPercent)
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil {
			ch <- prometheus.MustNewConstMetric(c.rssDesc, prometheus.GaugeValue, float64(mem.RSS))
		}
	}
}
