package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
)

type readyResponse struct {
	Status  string    `json:"status"`
	Started time.Time `json:"started"`
	Up      string    `json:"up"`
}

// ReadyHandler reports the process as ready along with its start time
// and uptime, both read from clk.
func ReadyHandler(clk clock.Clock) http.Handler {
	started := clk.Now().UTC()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)

		_ = json.NewEncoder(w).Encode(readyResponse{
			Status:  "ready",
			Started: started,
			Up:      clk.Since(started).String(),
		})
	})
}
