package bridge

import (
	"encoding/json"
	"net/http"
	"strings"
)

type debugState struct {
	Ready     bool            `json:"ready"`
	Transport string          `json:"transport"`
	Pending   int             `json:"pending"`
	Callbacks []string        `json:"callbacks"`
	Metrics   MetricsSnapshot `json:"metrics"`
}

func (b *Bridge) StartDebugServer() {
	if !b.Conf.DebugEnabled {
		return
	}

	port := b.Conf.DebugPort
	if port == 0 {
		port = 8081
	}

	b.RegisterHTTPHandler(port, "/api/bridge", http.HandlerFunc(b.handleGetBridgeState))
}

func (b *Bridge) handleGetBridgeState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Set CORS headers based on configuration
	if b.Conf != nil && len(b.Conf.DebugCORSAllowedOrigins) > 0 {
		origin := r.Header.Get("Origin")
		allowedOrigin := b.getAllowedCORSOrigin(origin)
		if allowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
	}

	// Handle preflight requests
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	state := debugState{
		Ready:     b.Ready(),
		Transport: b.Conf.TransportSystem,
		Pending:   b.Pending(),
		Callbacks: b.Callbacks(),
		Metrics:   b.metrics.Snapshot(),
	}

	if err := json.NewEncoder(w).Encode(state); err != nil {
		b.Logger.Error("Failed to encode bridge state", err, nil)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// getAllowedCORSOrigin checks if the request origin is allowed and returns the
// appropriate Access-Control-Allow-Origin value.
func (b *Bridge) getAllowedCORSOrigin(requestOrigin string) string {
	if b.Conf == nil {
		return ""
	}
	for _, allowed := range b.Conf.DebugCORSAllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if strings.EqualFold(allowed, requestOrigin) {
			return requestOrigin
		}
	}
	return ""
}
