package controllers

import (
	"context"
	"fmt"
	json "github.com/goccy/go-json"
	"net/http"
	"time"
)

// Pinger is the store check behind /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	store     Pinger
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Database      string  `json:"database"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code, db := "ok", http.StatusOK, "ok"
	if err := hc.store.Ping(ctx); err != nil {
		status, code, db = "degraded", http.StatusServiceUnavailable, err.Error()
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        status,
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Database:      db,
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(store Pinger) *HealthController {
	return &HealthController{
		store:     store,
		startTime: time.Now(),
	}
}
