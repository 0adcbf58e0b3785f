package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/veilai/veil-oss/pkg/domain"
	"github.com/veilai/veil-oss/pkg/redaction"
	"github.com/veilai/veil-oss/pkg/telemetry"
)

// redactRequest is the /redact wire format.
type redactRequest struct {
	Text     string                 `json:"text"`
	Context  string                 `json:"context,omitempty"`
	Override *domain.PolicyOverride `json:"policy,omitempty"`
}

// restoreRequest is the /restore wire format.
type restoreRequest struct {
	Text           string            `json:"text"`
	Context        string            `json:"context,omitempty"`
	EnforcePolicy  *bool             `json:"enforce_policy,omitempty"`
	ClientMetadata map[string]string `json:"client_metadata,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// startServer wires the HTTP surface and begins serving. It returns the
// shutdown function.
func startServer(addr string, service *redaction.Service, metrics *telemetry.Metrics, logger *slog.Logger) func(context.Context) error {
	mux := http.NewServeMux()

	mux.Handle("POST /redact", otelhttp.NewHandler(redactHandler(service, logger), "redact"))
	mux.Handle("POST /restore", otelhttp.NewHandler(restoreHandler(service, logger), "restore"))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
		}
	}()

	return server.Shutdown
}

func redactHandler(service *redaction.Service, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req redactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
			return
		}
		if req.Text == "" {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "text is required")
			return
		}

		resp, err := service.Redact(r.Context(), redaction.RedactRequest{
			Text:     req.Text,
			Context:  req.Context,
			Override: req.Override,
		})
		if err != nil {
			if errors.Is(err, domain.ErrPolicyNotFound) {
				writeError(w, http.StatusBadRequest, "POLICY_NOT_FOUND", err.Error())
				return
			}
			logger.Error("redact failed", "error", err)
			writeError(w, http.StatusInternalServerError, "REDACT_FAILED", "redaction failed")
			return
		}

		writeJSON(w, http.StatusOK, resp)
	})
}

func restoreHandler(service *redaction.Service, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req restoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
			return
		}
		if req.Text == "" {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "text is required")
			return
		}

		enforce := true
		if req.EnforcePolicy != nil {
			enforce = *req.EnforcePolicy
		}

		result, err := service.Restore(r.Context(), redaction.RestoreRequest{
			Text:           req.Text,
			Context:        req.Context,
			EnforcePolicy:  enforce,
			ClientMetadata: req.ClientMetadata,
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrPolicyViolation):
				writeError(w, http.StatusForbidden, "POLICY_VIOLATION", err.Error())
			case errors.Is(err, domain.ErrAuthzDenied):
				writeError(w, http.StatusForbidden, "AUTHZ_DENIED", err.Error())
			default:
				logger.Error("restore failed", "error", err)
				writeError(w, http.StatusInternalServerError, "RESTORE_FAILED", "restoration failed")
			}
			return
		}

		writeJSON(w, http.StatusOK, result)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
