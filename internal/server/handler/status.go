package handler

import (
	"net/http"
	"time"
)

// StatusHandler reports how the running bot is configured.
type StatusHandler struct {
	CacheBackend string
	PageSize     int
	StartedAt    time.Time
}

// NewStatusHandler creates a StatusHandler stamped with the current time.
func NewStatusHandler(cacheBackend string, pageSize int) *StatusHandler {
	return &StatusHandler{CacheBackend: cacheBackend, PageSize: pageSize, StartedAt: time.Now()}
}

// GetStatus responds with the cache backend, page size, and uptime.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"cache_backend": h.CacheBackend,
		"page_size":     h.PageSize,
		"started_at":    h.StartedAt.UTC().Format(time.RFC3339),
		"uptime":        time.Since(h.StartedAt).Round(time.Second).String(),
	})
}
