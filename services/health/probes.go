package health

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"
)

func now() time.Time { return time.Now() }

// ProcessProbe reports heap-used/heap-total pressure.
func ProcessProbe() Probe {
	return func(ctx context.Context) Result {
		start := now()
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)

		pct := float64(0)
		if stats.HeapSys > 0 {
			pct = float64(stats.HeapInuse) / float64(stats.HeapSys) * 100
		}

		status := StatusHealthy
		switch {
		case pct > 90:
			status = StatusUnhealthy
		case pct > 75:
			status = StatusDegraded
		}

		return Result{
			Component: "process",
			Status:    status,
			LatencyMs: time.Since(start).Milliseconds(),
			Message:   "heap usage measured",
			Timestamp: now(),
		}
	}
}

// MemoryPressureProbe compares resident set size (approximated by Sys) to
// ceilingBytes, defaulting to 512MB unhealthy / 384MB degraded.
func MemoryPressureProbe(ceilingBytes uint64) Probe {
	if ceilingBytes == 0 {
		ceilingBytes = 512 * 1024 * 1024
	}
	degradedCeiling := ceilingBytes * 3 / 4

	return func(ctx context.Context) Result {
		start := now()
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)

		status := StatusHealthy
		switch {
		case stats.Sys > ceilingBytes:
			status = StatusUnhealthy
		case stats.Sys > degradedCeiling:
			status = StatusDegraded
		}

		return Result{
			Component: "memory_pressure",
			Status:    status,
			LatencyMs: time.Since(start).Milliseconds(),
			Message:   "resident memory measured",
			Timestamp: now(),
		}
	}
}

// EventLoopProbe schedules a no-op goroutine and measures dispatch delay.
func EventLoopProbe() Probe {
	return func(ctx context.Context) Result {
		start := now()
		done := make(chan struct{})
		go close(done)

		select {
		case <-done:
		case <-ctx.Done():
			return Result{Component: "event_loop", Status: StatusUnhealthy, Message: "context cancelled", Timestamp: now()}
		}

		latency := time.Since(start)
		status := StatusHealthy
		switch {
		case latency > 100*time.Millisecond:
			status = StatusUnhealthy
		case latency > 50*time.Millisecond:
			status = StatusDegraded
		}

		return Result{
			Component: "event_loop",
			Status:    status,
			LatencyMs: latency.Milliseconds(),
			Message:   "scheduling latency measured",
			Timestamp: now(),
		}
	}
}

// DatabaseProbe runs a trivial round-trip query against db.
func DatabaseProbe(db *sql.DB) Probe {
	return func(ctx context.Context) Result {
		start := now()
		var one int
		err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
		latency := time.Since(start)

		if err != nil {
			return Result{
				Component: "database",
				Status:    StatusUnhealthy,
				LatencyMs: latency.Milliseconds(),
				Message:   err.Error(),
				Timestamp: now(),
			}
		}

		status := StatusHealthy
		if latency > 500*time.Millisecond {
			status = StatusDegraded
		}

		return Result{
			Component: "database",
			Status:    status,
			LatencyMs: latency.Milliseconds(),
			Message:   "round-trip query succeeded",
			Timestamp: now(),
		}
	}
}

// APIProbe performs an HTTP GET against url with a 5s timeout.
func APIProbe(label, url string) Probe {
	client := &http.Client{Timeout: 5 * time.Second}

	return func(ctx context.Context) Result {
		start := now()
		reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		component := "api:" + label
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
		if err != nil {
			return Result{Component: component, Status: StatusUnhealthy, Message: err.Error(), Timestamp: now()}
		}

		resp, err := client.Do(req)
		latency := time.Since(start)
		if err != nil {
			return Result{Component: component, Status: StatusUnhealthy, LatencyMs: latency.Milliseconds(), Message: err.Error(), Timestamp: now()}
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return Result{
				Component: component,
				Status:    StatusUnhealthy,
				LatencyMs: latency.Milliseconds(),
				Message:   "non-2xx response",
				Timestamp: now(),
			}
		}

		status := StatusHealthy
		if latency > 2*time.Second {
			status = StatusDegraded
		}

		return Result{
			Component: component,
			Status:    status,
			LatencyMs: latency.Milliseconds(),
			Message:   "endpoint reachable",
			Timestamp: now(),
		}
	}
}
