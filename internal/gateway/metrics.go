// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PoolMetrics exports Client Pool occupancy as Prometheus gauges. Values are
// refreshed by polling Pool.Stats on a timer rather than updated inline on
// every lease/release, so the pool's hot path never pays for metrics
// collection under its mutex.
type PoolMetrics struct {
	size           prometheus.Gauge
	maxSize        prometheus.Gauge
	activeLeases   *prometheus.GaugeVec
	idleSeconds    *prometheus.GaugeVec
}

// NewPoolMetrics registers the pool gauges with reg.
func NewPoolMetrics(reg prometheus.Registerer) *PoolMetrics {
	factory := promauto.With(reg)
	return &PoolMetrics{
		size: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cml_mcp_gateway",
			Subsystem: "pool",
			Name:      "size",
			Help:      "Number of upstream clients currently held in the pool.",
		}),
		maxSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cml_mcp_gateway",
			Subsystem: "pool",
			Name:      "max_size",
			Help:      "Configured maximum pool size.",
		}),
		activeLeases: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cml_mcp_gateway",
			Subsystem: "pool",
			Name:      "active_leases",
			Help:      "Outstanding leases per upstream URL.",
		}, []string{"upstream"}),
		idleSeconds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cml_mcp_gateway",
			Subsystem: "pool",
			Name:      "idle_seconds",
			Help:      "Seconds since an entry's last successful lease acquisition.",
		}, []string{"upstream"}),
	}
}

// Collect samples pool.Stats() into the registered gauges. Call on a timer
// (see Watch) for the lifetime of the pool.
func (m *PoolMetrics) Collect(stats PoolStats) {
	m.size.Set(float64(stats.TotalClients))
	m.maxSize.Set(float64(stats.MaxSize))

	m.activeLeases.Reset()
	m.idleSeconds.Reset()
	for _, c := range stats.Clients {
		m.activeLeases.WithLabelValues(c.URL).Set(float64(c.ActiveRequests))
		m.idleSeconds.WithLabelValues(c.URL).Set(float64(c.IdleSeconds))
	}
}

// Watch polls pool.Stats() into m every interval until stop is closed.
func (m *PoolMetrics) Watch(pool *Pool, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.Collect(pool.Stats())
		}
	}
}
