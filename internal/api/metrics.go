package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	EventBus      EventBusMetrics `json:"event_bus"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains subscription session statistics.
type WSMetrics struct {
	OpenSessions   int    `json:"open_sessions"`
	SessionsOpened uint64 `json:"sessions_opened"`
}

// EventBusMetrics contains event bus statistics.
type EventBusMetrics struct {
	Subscribers     int    `json:"subscribers"`
	EventsPublished uint64 `json:"events_published"`
}

const bytesPerMB = 1024 * 1024

// handleMetrics returns runtime, session and event bus metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     s.clock.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(s.clock.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / bytesPerMB,
			MemoryTotalMB: float64(memStats.TotalAlloc) / bytesPerMB,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			OpenSessions:   s.hub.SessionCount(),
			SessionsOpened: s.hub.SessionsOpened(),
		},
		EventBus: EventBusMetrics{
			Subscribers:     s.bus.SubscriberCount(),
			EventsPublished: s.bus.Published(),
		},
	}

	writeJSON(w, http.StatusOK, metrics)
}
