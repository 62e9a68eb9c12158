package server

import (
	"errors"
	"net/http"

	"wizdraft/internal/api"
	"wizdraft/internal/attach"
	"wizdraft/internal/blobstore"
	"wizdraft/internal/draft"
)

// apiError pins the HTTP status and envelope codes for a failed request.
type apiError struct {
	status  int
	errCode int
	reason  string
	err     error
}

func (e apiError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e apiError) Unwrap() error {
	return e.err
}

// newAPIError wraps err unless it already carries a status, in which case the
// innermost classification wins.
func newAPIError(status, errCode int, err error) error {
	var existing apiError
	if errors.As(err, &existing) && existing.status != 0 {
		return existing
	}
	return apiError{status: status, errCode: errCode, err: err}
}

func badRequest(err error) error {
	return badRequestCode(err, ErrCodeInvalidArgument)
}

func badRequestCode(err error, code int) error {
	return newAPIError(http.StatusBadRequest, code, err)
}

func notFoundCode(err error, code int) error {
	return newAPIError(http.StatusNotFound, code, err)
}

func conflictCode(err error, code int) error {
	return newAPIError(http.StatusConflict, code, err)
}

func tooManyRequests(err error) error {
	return newAPIError(http.StatusTooManyRequests, ErrCodeResourceExhausted, err)
}

func unavailable(err error) error {
	return newAPIError(http.StatusServiceUnavailable, ErrCodeBlobStoreUnavailable, err)
}

func internalError(err error) error {
	return newAPIError(http.StatusInternalServerError, ErrCodeInternal, err)
}

func storeFailure(err error) error {
	return newAPIError(http.StatusInternalServerError, ErrCodeStoreFailure, err)
}

// asAPIError returns the classification attached to err, treating anything
// unclassified as an internal failure.
func asAPIError(err error) apiError {
	var apiErr apiError
	if errors.As(err, &apiErr) && apiErr.status != 0 {
		return apiErr
	}
	return apiError{status: http.StatusInternalServerError, errCode: ErrCodeInternal, err: err}
}

var validationCodes = map[attach.Reason]int{
	attach.ReasonEmptyFile:       ErrCodeEmptyFile,
	attach.ReasonTooLarge:        ErrCodeFileTooLarge,
	attach.ReasonUnsupportedType: ErrCodeUnsupportedMediaType,
}

// domainError maps engine errors onto the API error envelope.
func domainError(err error) error {
	var existing apiError
	if errors.As(err, &existing) {
		return existing
	}

	var verr *attach.ValidationError
	var missing *attach.MissingError
	var opErr *blobstore.OpError
	switch {
	case errors.As(err, &verr):
		return apiError{
			status:  http.StatusBadRequest,
			errCode: validationCodes[verr.Reason],
			reason:  string(verr.Reason),
			err:     err,
		}
	case errors.Is(err, attach.ErrInvalidSelector):
		return badRequestCode(err, ErrCodeInvalidSelector)
	case errors.Is(err, draft.ErrSnapshotTooLarge):
		return badRequestCode(err, ErrCodeSnapshotTooLarge)
	case errors.As(err, &missing):
		return conflictCode(err, ErrCodeMissingAttachments)
	case errors.Is(err, attach.ErrUnresolvable), errors.Is(err, blobstore.ErrNotFound):
		return notFoundCode(err, ErrCodeAttachmentNotFound)
	case errors.Is(err, attach.ErrDraftReset):
		return conflictCode(err, ErrCodeDraftReset)
	case errors.Is(err, blobstore.ErrUnavailable):
		return unavailable(err)
	case errors.As(err, &opErr):
		return storeFailure(err)
	default:
		return internalError(err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := asAPIError(err)
	resp := api.ErrorResponse{
		Error:     e.Error(),
		Code:      statusNames[e.status],
		ErrorCode: e.errCode,
		Reason:    e.reason,
	}

	fields := []any{"status", e.status, "code", resp.Code, "error_code", e.errCode, "error", e.Error()}
	if r != nil {
		fields = append(fields, "method", r.Method, "path", r.URL.Path, "request_id", requestID(r))
	}

	switch {
	case e.status >= 500:
		s.log().Error("request error", fields...)
		if e.status == http.StatusInternalServerError {
			resp.Error = "internal error"
		}
	case e.status == http.StatusConflict, e.status == http.StatusTooManyRequests:
		s.log().Warn("request rejected", fields...)
	default:
		s.log().Debug("request rejected", fields...)
	}

	s.writeJSON(w, e.status, resp)
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeError(w, r, domainError(err))
}
