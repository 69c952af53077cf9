package metrics

import (
	"sync/atomic"
	"time"
)

type SystemMetrics struct {
	RequestsProcessed atomic.Int64
	RequestsFailed    atomic.Int64
	AverageLatency    atomic.Int64
	PeakLatency       atomic.Int64
	ErrorRate         atomic.Int64
	lastResetTime     atomic.Int64
}

var systemMetrics = newSystemMetrics()

func newSystemMetrics() *SystemMetrics {
	m := &SystemMetrics{}
	m.lastResetTime.Store(time.Now().UnixNano())
	return m
}

func RecordRequest(latencyMs int64, failed bool) {
	processed := systemMetrics.RequestsProcessed.Add(1)
	if failed {
		systemMetrics.RequestsFailed.Add(1)
	}
	systemMetrics.ErrorRate.Store((systemMetrics.RequestsFailed.Load() * 100) / processed)

	current := systemMetrics.AverageLatency.Load()
	systemMetrics.AverageLatency.Store((current*(processed-1) + latencyMs) / processed)

	for {
		peak := systemMetrics.PeakLatency.Load()
		if latencyMs <= peak || systemMetrics.PeakLatency.CompareAndSwap(peak, latencyMs) {
			break
		}
	}
}

func GetSystemMetrics() map[string]int64 {
	return map[string]int64{
		"requests_processed": systemMetrics.RequestsProcessed.Load(),
		"requests_failed":    systemMetrics.RequestsFailed.Load(),
		"average_latency_ms": systemMetrics.AverageLatency.Load(),
		"peak_latency_ms":    systemMetrics.PeakLatency.Load(),
		"error_rate":         systemMetrics.ErrorRate.Load(),
	}
}

func ResetMetrics() {
	systemMetrics.RequestsProcessed.Store(0)
	systemMetrics.RequestsFailed.Store(0)
	systemMetrics.AverageLatency.Store(0)
	systemMetrics.PeakLatency.Store(0)
	systemMetrics.ErrorRate.Store(0)
	systemMetrics.lastResetTime.Store(time.Now().UnixNano())
}

func GetUptime() time.Duration {
	return time.Since(time.Unix(0, systemMetrics.lastResetTime.Load()))
}
