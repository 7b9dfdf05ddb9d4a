package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// MaxBodyBytes bounds every JSON request body
const MaxBodyBytes = 64 << 10

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// MetaInfo contains metadata about the response
type MetaInfo struct {
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Count     *int   `json:"count,omitempty"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	RespondWithMeta(w, r, status, data, nil)
}

// RespondList sends a collection with its size in the meta block
func RespondList(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	RespondWithMeta(w, r, http.StatusOK, data, &MetaInfo{Count: &count})
}

// RespondWithMeta sends a response with metadata. Request id and timestamp
// are filled in when missing.
func RespondWithMeta(w http.ResponseWriter, r *http.Request, status int, data interface{}, meta *MetaInfo) {
	if meta == nil {
		meta = &MetaInfo{}
	}
	if meta.RequestID == "" {
		meta.RequestID = ExtractRequestID(r)
	}
	if meta.Timestamp == "" {
		meta.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
		Meta:    meta,
	})
}

// RespondNoContent sends a bare 204
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ExtractRequestID returns the chi request id, falling back to gateway headers
func ExtractRequestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return r.Header.Get("X-Amzn-Trace-Id")
}

// ParseJSONBody decodes a size-limited JSON body, rejecting unknown fields.
// Every failure is a VALIDATION error.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return pkgerrors.NewValidationError("request body is required")
		case errors.As(err, &tooLarge):
			return pkgerrors.NewValidationError("request body is too large")
		default:
			return pkgerrors.NewValidationError("invalid request body: " + err.Error())
		}
	}
	if decoder.More() {
		return pkgerrors.NewValidationError("request body must contain a single JSON object")
	}
	return nil
}
