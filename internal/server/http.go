package server

import (
	"encoding/json"
	"net/http"

	"github.com/muurk/attrstore/internal/logging"
	"github.com/muurk/attrstore/internal/version"
	"go.uber.org/zap"
)

// HealthStatus is the /healthz response body.
type HealthStatus struct {
	Status      string `json:"status"`
	Name        string `json:"name"`
	Connections int    `json:"connections"`
	Version     string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(HealthStatus{
		Status:      "ok",
		Name:        s.config.Name,
		Connections: s.GetActiveConnections(),
		Version:     version.Get().Version,
	})
	if err != nil {
		logging.Debug("Failed to write health response", zap.Error(err))
	}
}
