package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/voyagen/sectionvault/internal/apperr"
	"github.com/voyagen/sectionvault/internal/logging"
	"github.com/voyagen/sectionvault/internal/metrics"
	"github.com/voyagen/sectionvault/internal/models"
)

// maxBodySize caps request bodies; a full tree is well below it.
const maxBodySize = 4 << 20

// APIError is the standard error envelope for all error responses.
type APIError struct {
	Status  int            `json:"status"`
	Error   string         `json:"error"`
	Code    apperr.Code    `json:"code,omitempty"`
	Detail  string         `json:"detail,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

var statusByCode = map[apperr.Code]int{
	apperr.CodeValidation:        http.StatusBadRequest,
	apperr.CodeNotFound:          http.StatusNotFound,
	apperr.CodeConflict:          http.StatusConflict,
	apperr.CodeIdentityCollision: http.StatusConflict,
	apperr.CodeLocked:            http.StatusConflict,
	apperr.CodeImport:            http.StatusBadGateway,
	apperr.CodeStorage:           http.StatusInternalServerError,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("writeJSON")
	}
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeErr writes err in the APIError envelope. Coded errors pick their own
// status; anything else is a 500.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := APIError{Detail: err.Error()}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if s, ok := statusByCode[appErr.Code]; ok {
			status = s
		}
		body.Code = appErr.Code
		body.Detail = appErr.Message
		if len(appErr.Details) > 0 {
			body.Details = appErr.Details
		}
	}
	if status >= 500 {
		logging.Error().Err(err).Int("status", status).Msg("request failed")
	}
	body.Status = status
	body.Error = http.StatusText(status)
	writeJSON(w, status, body)
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return apperr.Wrap(apperr.CodeValidation, "read body", err)
	}
	if len(data) > maxBodySize {
		return apperr.Newf(apperr.CodeValidation, "body exceeds %d bytes", maxBodySize)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperr.Wrap(apperr.CodeValidation, "invalid JSON", err)
	}
	return nil
}

// collectionParam parses the {name} path parameter.
func collectionParam(r *http.Request) (models.Collection, error) {
	name := chi.URLParam(r, "name")
	c, err := models.ParseCollection(name)
	if err != nil {
		return "", apperr.NotFound("collection", name)
	}
	return c, nil
}

// withLogging logs each request with method, path, status and duration and
// counts it by method and status.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequest(r.Method, status)

		ev := logging.Info()
		if status >= 500 {
			ev = logging.Error()
		} else if status >= 400 {
			ev = logging.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("query", r.URL.RawQuery).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Str("duration", formatDuration(time.Since(start))).
			Msg("request")
	})
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dus", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
