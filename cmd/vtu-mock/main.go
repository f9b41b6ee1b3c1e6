package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/cardbillhq/cardbill-api/internal/logging"
)

// Stand-in for the upstream VTU aggregator in local development and
// integration tests. Recipients ending in "00" are declined so failure
// paths can be exercised deterministically.
func main() {
	logging.Init("vtu-mock", "info", os.Getenv("APP_ENV"))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /purchase", handlePurchase)

	slog.Info("vtu mock started", "addr", ":8081")
	if err := http.ListenAndServe(":8081", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

type purchaseRequest struct {
	Reference   string `json:"reference"`
	ServiceType string `json:"service_type"`
	Provider    string `json:"provider"`
	Recipient   string `json:"recipient"`
	Amount      string `json:"amount"`
}

func handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "malformed request",
		})
		return
	}

	if strings.HasSuffix(req.Recipient, "00") {
		slog.Info("purchase declined", "reference", req.Reference, "recipient", req.Recipient)
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "failed",
			"message":   "recipient not serviceable",
			"reference": req.Reference,
		})
		return
	}

	slog.Info("purchase delivered",
		"reference", req.Reference,
		"service_type", req.ServiceType,
		"provider", req.Provider,
		"amount", req.Amount,
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "success",
		"message":      "delivered",
		"reference":    req.Reference,
		"provider_ref": "MOCK-" + req.Reference,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
