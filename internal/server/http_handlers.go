package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"neuraresume/internal/ai"
	"neuraresume/internal/errors"
)

const healthCheckTimeout = 5 * time.Second

type modelReporter interface {
	ModelInfo(ctx context.Context) map[string]*ai.ModelInfo
}

type statsReporter interface {
	Stats() map[string]any
}

type modeReporter interface {
	Mode() string
}

// healthHandler reports backend, model and certificate status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":   "healthy",
		"service":  "neuraresume",
		"version":  s.Version,
		"sessions": s.Sessions.Len(),
	}
	if m, ok := s.Backend.(modeReporter); ok {
		response["backend"] = m.Mode()
	}

	overallHealthy := true

	if reporter, ok := s.Backend.(modelReporter); ok {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		models := reporter.ModelInfo(ctx)
		cancel()
		if models != nil {
			response["ai_models"] = models
			for _, info := range models {
				if info != nil && !info.Available {
					overallHealthy = false
				}
			}
		}
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if healthy, ok := certStatus["healthy"].(bool); ok && !healthy {
			overallHealthy = false
		}
	}

	status := http.StatusOK
	if !overallHealthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// checkCertificateHealth checks the health of TLS certificates
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertificateManager == nil {
		return nil
	}

	certStatus := make(map[string]any)

	timeToExpiry, err := s.CertificateManager.CheckExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	criticalThreshold := 24 * time.Hour
	warningThreshold := 7 * 24 * time.Hour

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
	case timeToExpiry <= criticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
	case timeToExpiry <= warningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
	}

	autoReload := map[string]any{"enabled": s.TLSConfig.AutoReload.Enabled}
	if watcher := s.CertificateManager.fileWatcher; watcher != nil {
		autoReload["file_watcher_running"] = watcher.IsRunning()
		autoReload["watched_files"] = watcher.WatchedFiles()
	}
	certStatus["auto_reload"] = autoReload

	m := s.CertificateManager.GetMetrics()
	certStatus["metrics"] = map[string]any{
		"reload_count":         m.ReloadCount,
		"reload_success_count": m.ReloadSuccessCount,
		"reload_failure_count": m.ReloadFailureCount,
		"last_reload_time":     m.LastReloadTime,
		"last_reload_error":    m.LastReloadError,
	}

	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "neuraresume",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"active_sessions":        s.Sessions.Len(),
			"session_ttl":            s.AppConfig.Server.SessionTTL.String(),
		},
	}

	if reporter, ok := s.Backend.(statsReporter); ok {
		response["backend"] = reporter.Stats()
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Content-Type must be application/json", nil)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return requestBodyError(err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Request body is not valid JSON", err)
	}
	return nil
}

// requestBodyError converts a body read failure into a validation error
func requestBodyError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("Request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
	}
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Failed to read request body", err)
}

// statusForError maps an application error to an HTTP status code
func statusForError(err error) int {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case errors.ErrCodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeBusy:
		return http.StatusConflict
	case errors.ErrCodeCircuitOpen:
		return http.StatusServiceUnavailable
	}

	if status, ok := upstreamClientStatus(appErr); ok {
		return status
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeNetwork, errors.ErrorTypeResponse, errors.ErrorTypeAI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// upstreamClientStatus returns the 4xx status a remote backend answered with.
// 401 and 403 concern this server's own backend token and stay gateway errors.
func upstreamClientStatus(appErr *errors.AppError) (int, bool) {
	if appErr.Type != errors.ErrorTypeResponse {
		return 0, false
	}
	status, ok := appErr.Context["status"].(int)
	if !ok || status < 400 || status >= 500 {
		return 0, false
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return 0, false
	}
	return status, true
}

// writeError writes err as a {"detail": ...} response
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "endpoint", r.URL.Path, "status", status)
	} else {
		s.Logger.Info("Request rejected", "endpoint", r.URL.Path, "status", status, "reason", errors.UserMessage(err))
	}
	writeErrorResponse(w, errors.UserMessage(err), status)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, detail string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
