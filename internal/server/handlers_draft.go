package server

import (
	"net/http"

	"wizdraft/internal/api"
	"wizdraft/internal/attach"
	"wizdraft/internal/draft"
	"wizdraft/internal/models"
)

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.draftView(s.drafts.Snapshot()))
}

func (s *Server) handlePatchDraft(w http.ResponseWriter, r *http.Request) {
	var req api.DraftPatchRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	patch := draft.Patch{
		Step:     req.Step,
		Student:  req.Student,
		Tutors:   req.Tutors,
		Pricing:  req.Pricing,
		Payments: req.Payments,
	}
	if patch.IsEmpty() {
		s.writeError(w, r, badRequestCode(errNoFields, ErrCodeMissingRequired))
		return
	}
	if err := s.drafts.Apply(patch); err != nil {
		s.writeError(w, r, badRequestCode(err, ErrCodeInvalidDraftField))
		return
	}
	if err := s.drafts.Save(r.Context()); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.draftView(s.drafts.Snapshot()))
}

func (s *Server) handleResetDraft(w http.ResponseWriter, r *http.Request) {
	result, err := s.manager.ResetDraft(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ResetResponse{
		Referenced: result.Referenced,
		Removed:    result.Removed,
		Failed:     result.Failed,
	})
}

func (s *Server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	rec := s.drafts.Snapshot()
	files, err := s.manager.Materialize(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := api.SubmissionResponse{
		Draft: s.draftView(rec),
		Files: make([]api.SubmissionFile, 0, len(files)),
	}
	for _, f := range files {
		resp.Files = append(resp.Files, api.SubmissionFile{
			Selector: f.Selector.String(),
			Name:     f.Handle.Name,
			MimeType: f.Handle.MimeType,
			Data:     f.Handle.Data,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// draftView renders rec with the display state of every attachment field.
func (s *Server) draftView(rec models.DraftRecord) api.DraftResponse {
	resp := api.DraftResponse{
		Step:        rec.Step,
		Student:     rec.Student,
		Tutors:      rec.Tutors,
		Pricing:     rec.Pricing,
		Payments:    rec.Payments,
		Attachments: make([]api.AttachmentStatus, 0),
	}
	if resp.Tutors == nil {
		resp.Tutors = []models.Tutor{}
	}
	if resp.Payments == nil {
		resp.Payments = []models.PaymentAllocation{}
	}
	if !rec.UpdatedAt.IsZero() {
		updated := rec.UpdatedAt
		resp.UpdatedAt = &updated
	}
	for _, field := range rec.References() {
		resp.Attachments = append(resp.Attachments, attachmentStatus(field, s.rehydrator))
	}
	return resp
}

func attachmentStatus(field models.FieldReference, rehydrator *attach.Rehydrator) api.AttachmentStatus {
	ref := field.Reference
	status := api.AttachmentStatus{
		Selector: field.Selector.String(),
		BlobID:   ref.BlobID(),
		Name:     ref.Name(),
		Size:     ref.Size(),
	}
	h, hasHandle := ref.Handle()
	stored, isStored := ref.Stored()
	switch {
	case isStored:
		status.MimeType = stored.MimeType
	case hasHandle:
		status.MimeType = h.MimeType
	}

	switch {
	case !isStored:
		status.State = api.AttachmentInMemory
	case stored.Restored:
		status.State = api.AttachmentRestored
	case hasHandle:
		status.State = api.AttachmentStored
	case !rehydrator.Done():
		status.State = api.AttachmentPending
	case rehydrator.ReadFailed(field.Selector, stored.BlobID):
		status.State = api.AttachmentFailed
	default:
		status.State = api.AttachmentMissing
	}
	return status
}
