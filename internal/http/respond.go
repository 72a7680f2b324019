package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/gateway"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// handleGatewayError maps a gateway failure to an HTTP response:
// transport failures surface as 502, remote rejections keep their 4xx
// status, anything else from the remote side is still a bad gateway.
func handleGatewayError(w http.ResponseWriter, err error) {
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	switch gwErr.Kind {
	case gateway.KindNetwork:
		respondError(w, http.StatusBadGateway, "upstream_unavailable", "remote service unreachable")
	case gateway.KindRemote:
		if gwErr.Status >= 400 && gwErr.Status < 500 {
			respondError(w, gwErr.Status, "remote_rejected", gwErr.Message)
			return
		}
		respondError(w, http.StatusBadGateway, "upstream_error", gwErr.Message)
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
