package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"wizdraft/internal/api"
	"wizdraft/internal/attach"
)

// multipartOverhead is allowed on top of the attachment limit for form framing.
const multipartOverhead = 64 << 10

func (s *Server) handleAddAttachment(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.pathSelector(w, r)
	if !ok {
		return
	}

	maxBytes := s.manager.Policy().MaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.cfg.Attachments.MultipartMaxMemory); err != nil {
		s.writeError(w, r, classifyMultipartError(err, maxBytes))
		return
	}

	file, header, err := r.FormFile("content")
	if err != nil {
		s.writeError(w, r, badRequestCode(fmt.Errorf("content is required"), ErrCodeMissingRequired))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		s.writeError(w, r, badRequest(fmt.Errorf("read content: %w", err)))
		return
	}

	mediaType, source := mediaTypeFor(r.FormValue("media_type"), data)
	stored, err := s.manager.AddAttachment(r.Context(), sel, attach.Candidate{
		Name:     firstNonEmpty(r.FormValue("filename"), header.Filename),
		MimeType: mediaType,
		Data:     data,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, api.AttachmentResponse{
		Selector:        sel.String(),
		BlobID:          stored.BlobID,
		Name:            stored.OriginalName,
		MimeType:        stored.MimeType,
		Size:            stored.Size,
		MediaTypeSource: source,
	})
}

func (s *Server) handleGetAttachmentContent(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.pathSelector(w, r)
	if !ok {
		return
	}

	h, err := s.manager.Open(r.Context(), sel)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	contentType := h.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(h.Data)))
	w.Header().Set("Content-Disposition", contentDisposition(h.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.Data); err != nil {
		s.log().Warn("write attachment content", "field", sel.String(), "error", err)
	}
}

func (s *Server) handleRemoveAttachment(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.pathSelector(w, r)
	if !ok {
		return
	}
	if err := s.manager.RemoveAttachment(r.Context(), sel); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"selector": sel.String()})
}

// classifyMultipartError reports an oversized upload as a too_large
// validation failure so clients see the same reason as for a small form.
func classifyMultipartError(err error, maxBytes int64) error {
	if err == nil {
		return nil
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) || strings.Contains(strings.ToLower(err.Error()), "request body too large") {
		return domainError(&attach.ValidationError{Reason: attach.ReasonTooLarge, Size: maxBytes + 1, MaxBytes: maxBytes})
	}
	return badRequestCode(err, ErrCodeInvalidArgument)
}
