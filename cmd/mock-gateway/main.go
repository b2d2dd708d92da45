package main

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/logging"
)

type chargeRequest struct {
	Reference      string `json:"reference"`
	Method         string `json:"method"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	PayerReference string `json:"payer_reference"`
}

type chargeResponse struct {
	Outcome       string `json:"outcome"`
	TransactionID string `json:"transaction_id"`
	FailureReason string `json:"failure_reason,omitempty"`
}

func main() {
	logging.Init("mock-gateway", "info", os.Getenv("APP_ENV"))

	successRate := envFloat("SUCCESS_RATE", 0.9)
	latency := envDuration("LATENCY_MS", 50*time.Millisecond)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})
	mux.HandleFunc("POST /authorize", func(w http.ResponseWriter, r *http.Request) {
		var req chargeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		time.Sleep(latency)

		resp := chargeResponse{
			Outcome:       "success",
			TransactionID: "mock_" + uuid.NewString(),
		}
		if rand.Float64() >= successRate {
			resp.Outcome = "declined"
			resp.TransactionID = ""
			resp.FailureReason = "declined by issuer"
		}

		slog.Info("charge processed",
			"reference", req.Reference,
			"method", req.Method,
			"amount", req.Amount,
			"outcome", resp.Outcome,
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write charge response", "error", err)
		}
	})

	slog.Info("mock gateway started", "addr", ":8081", "success_rate", successRate, "latency", latency)
	if err := http.ListenAndServe(":8081", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}
