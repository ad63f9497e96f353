package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/YK-03/SharePlate/internal/cache"
	"github.com/YK-03/SharePlate/pkg/response"
)

// StatsProvider reports backend row counts.
type StatsProvider interface {
	GetStats(ctx context.Context) (map[string]interface{}, error)
}

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	store     StatsProvider
	cache     cache.Cache
	dbType    string
	cacheType string
	startTime time.Time
}

// NewAdminHandler creates a new admin handler. cache may be nil.
func NewAdminHandler(store StatsProvider, c cache.Cache, dbType, cacheType string) *AdminHandler {
	return &AdminHandler{
		store:     store,
		cache:     c,
		dbType:    dbType,
		cacheType: cacheType,
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	if h.store != nil {
		dbStats, err := h.store.GetStats(ctx)
		if err == nil {
			dbStats["status"] = "connected"
			stats["database"] = dbStats
		} else {
			stats["database"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["database"] = map[string]interface{}{"status": "not_configured"}
	}

	cacheStats := map[string]interface{}{"type": h.cacheType, "status": "not_configured"}
	if h.cache != nil {
		if _, err := h.cache.Exists(ctx, "admin:probe"); err != nil {
			cacheStats["status"] = "error"
			cacheStats["error"] = err.Error()
		} else {
			cacheStats["status"] = "connected"
		}
	}
	stats["cache"] = cacheStats

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// GetHealth handles GET /api/v1/admin/health
func (h *AdminHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
