package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type healthResponse struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	DiscordConnected bool   `json:"discord_connected"`
	Predictor        string `json:"predictor"`
	Timestamp        string `json:"timestamp"`
}

// HealthHandler serves /health and /metrics.
func (b *Bot) HealthHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", b.serveHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (b *Bot) serveHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:           "healthy",
		Uptime:           time.Since(b.startTime).Round(time.Second).String(),
		DiscordConnected: b.connected(),
		Predictor:        "unknown",
		Timestamp:        time.Now().Format(time.RFC3339),
	}

	if b.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if h, err := b.health.Health(ctx); err != nil {
			resp.Predictor = "unreachable"
		} else {
			resp.Predictor = h.Status
		}
	}

	code := http.StatusOK
	if !resp.DiscordConnected {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
