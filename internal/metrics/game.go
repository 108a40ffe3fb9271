// Package metrics содержит Prometheus-метрики шахты и процесса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace - пространство имён метрик
const Namespace = "um"

// GameMetrics - метрики игрового цикла. Все методы безопасны для nil-получателя.
type GameMetrics struct {
	hits          *prometheus.CounterVec
	voxelsMined   *prometheus.CounterVec
	revealed      prometheus.Counter
	hostErrors    *prometheus.CounterVec
	mineVoxels    prometheus.Gauge
	playersLoaded prometheus.Gauge
	moneyEarned   prometheus.Counter
	upgrades      prometheus.Counter
	confirmations *prometheus.CounterVec
}

// NewGameMetrics создаёт метрики и регистрирует их в reg
func NewGameMetrics(reg prometheus.Registerer) *GameMetrics {
	m := &GameMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "hits_total",
			Help:      "Удары по вокселям по результату.",
		}, []string{"result"}),
		voxelsMined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "voxels_mined_total",
			Help:      "Разрушенные воксели по типу.",
		}, []string{"type"}),
		revealed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "voxels_revealed_total",
			Help:      "Воксели, созданные при раскрытии.",
		}),
		hostErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "host_errors_total",
			Help:      "Ошибки операций хоста.",
		}, []string{"op"}),
		mineVoxels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "mine_voxels",
			Help:      "Текущее число вокселей в шахте.",
		}),
		playersLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "players_loaded",
			Help:      "Игроки, загруженные в сессию.",
		}),
		moneyEarned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "money_earned_total",
			Help:      "Сумма, полученная от продажи ресурсов.",
		}),
		upgrades: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pickaxe_upgrades_total",
			Help:      "Улучшения кирки.",
		}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "station_presses_total",
			Help:      "Нажатия на станции по виду станции и итогу.",
		}, []string{"station", "result"}),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.hits, m.voxelsMined, m.revealed, m.hostErrors, m.mineVoxels,
		m.playersLoaded, m.moneyEarned, m.upgrades, m.confirmations,
	)
	return m
}

// Hit учитывает удар: damaged, mined, border, missing, error
func (m *GameMetrics) Hit(result string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(result).Inc()
}

// VoxelMined учитывает разрушенный воксель и число раскрытых соседей
func (m *GameMetrics) VoxelMined(typeName string, revealed int) {
	if m == nil {
		return
	}
	m.voxelsMined.WithLabelValues(typeName).Inc()
	m.revealed.Add(float64(revealed))
}

// HostError учитывает ошибку операции хоста
func (m *GameMetrics) HostError(op string) {
	if m == nil {
		return
	}
	m.hostErrors.WithLabelValues(op).Inc()
}

// SetMineVoxels задаёт размер решётки
func (m *GameMetrics) SetMineVoxels(n int) {
	if m == nil {
		return
	}
	m.mineVoxels.Set(float64(n))
}

// SetPlayersLoaded задаёт число игроков в сессии
func (m *GameMetrics) SetPlayersLoaded(n int) {
	if m == nil {
		return
	}
	m.playersLoaded.Set(float64(n))
}

// Sold учитывает продажу
func (m *GameMetrics) Sold(value float64) {
	if m == nil {
		return
	}
	m.moneyEarned.Add(value)
}

// Upgraded учитывает улучшение кирки
func (m *GameMetrics) Upgraded() {
	if m == nil {
		return
	}
	m.upgrades.Inc()
}

// StationPress учитывает нажатие на станцию: prompt, confirmed, rejected
func (m *GameMetrics) StationPress(station, result string) {
	if m == nil {
		return
	}
	m.confirmations.WithLabelValues(station, result).Inc()
}
