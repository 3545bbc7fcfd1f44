package handler

import (
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"user-service/pkg/response"
)

type HealthStatus struct {
	Status        int    `json:"status"`
	StatusMessage string `json:"status_message"`
	Timestamp     string `json:"timestamp"`
	IPAddress     string `json:"ip_address"`
	Database      string `json:"database"`
	Echo          string `json:"echo,omitempty"`
	PathEcho      string `json:"path_echo,omitempty"`
}

// Root serves the API welcome message.
func (h *UserHandler) Root(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the Users API",
	})
}

// Health reports process liveness plus store reachability. Intentionally
// unauthenticated; it exposes connectivity status only, nothing more.
func (h *UserHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeHealth(w, r, "")
}

func (h *UserHandler) HealthWithPath(w http.ResponseWriter, r *http.Request) {
	h.writeHealth(w, r, chi.URLParam(r, "path_echo"))
}

func (h *UserHandler) writeHealth(w http.ResponseWriter, r *http.Request, pathEcho string) {
	dbStatus := "up"
	if err := h.uc.Health(r.Context()); err != nil {
		dbStatus = "down"
	}

	response.JSON(w, http.StatusOK, HealthStatus{
		Status:        http.StatusOK,
		StatusMessage: "OK",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		IPAddress:     hostIP(),
		Database:      dbStatus,
		Echo:          r.URL.Query().Get("echo"),
		PathEcho:      pathEcho,
	})
}

func hostIP() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	addrs, err := net.LookupHost(hostname)
	if err != nil || len(addrs) == 0 {
		return "unknown"
	}
	return addrs[0]
}
