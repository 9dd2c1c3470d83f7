package health

import (
	"net/http"

	"github.com/tabshare/tabshare/internal/infrastructure/json"
)

type Handler struct {
	version string
}

func NewHandler(version string) *Handler {
	return &Handler{
		version: version,
	}
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	json.Write(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: h.version,
	})
}
