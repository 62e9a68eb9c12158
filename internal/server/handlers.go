package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wizdraft/internal/models"
)

const maxJSONBody = 1 << 20 // 1 MiB

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("write json response", "status", status, "error", err)
	}
}

// decodeJSON reads a single JSON document into dst, rejecting unknown fields.
// It writes the error response itself and reports whether decoding succeeded.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		err = badRequestCode(errors.New("request body too large"), ErrCodeRequestTooLarge)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		err = badRequestCode(errors.New("invalid JSON payload"), ErrCodeInvalidJSON)
	default:
		err = badRequestCode(err, ErrCodeInvalidJSON)
	}
	s.writeError(w, r, err)
	return false
}

func (s *Server) withLimiter(w http.ResponseWriter, r *http.Request, limiter chan struct{}, name string, fn func()) {
	if !s.acquireLimiter(limiter, w, r, name) {
		return
	}
	defer s.releaseLimiter(limiter)
	fn()
}

func (s *Server) pathSelector(w http.ResponseWriter, r *http.Request) (models.Selector, bool) {
	sel, err := models.ParseSelector(r.PathValue("selector"))
	if err != nil {
		s.writeError(w, r, badRequestCode(err, ErrCodeInvalidSelector))
		return models.Selector{}, false
	}
	return sel, true
}

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func invalidQuery(format string, args ...any) error {
	return badRequestCode(fmt.Errorf(format, args...), ErrCodeInvalidQuery)
}

func queryBool(r *http.Request, key string) (bool, error) {
	value := queryValue(r, key)
	if value == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, invalidQuery("invalid %s", key)
	}
	return parsed, nil
}

func queryDuration(r *http.Request, key string, def time.Duration) (time.Duration, error) {
	value := queryValue(r, key)
	if value == "" {
		return def, nil
	}
	parsed, err := time.ParseDuration(value)
	switch {
	case err != nil:
		return 0, invalidQuery("invalid %s", key)
	case parsed < 0:
		return 0, invalidQuery("%s must be >= 0", key)
	}
	return parsed, nil
}
