package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)

	// Draft.
	mux.HandleFunc("GET /v1/draft", s.handleGetDraft)
	mux.HandleFunc("PATCH /v1/draft", s.handlePatchDraft)
	mux.HandleFunc("POST /v1/draft/reset", s.handleResetDraft)
	mux.HandleFunc("GET /v1/draft/submission", s.handleSubmission)

	// Draft attachments, addressed by field selector.
	mux.HandleFunc("POST /v1/draft/attachments/{selector...}", s.handleAddAttachment)
	mux.HandleFunc("GET /v1/draft/attachments/{selector...}", s.handleGetAttachmentContent)
	mux.HandleFunc("DELETE /v1/draft/attachments/{selector...}", s.handleRemoveAttachment)

	// Blob store diagnostics and maintenance.
	mux.HandleFunc("GET /v1/blobs", s.handleListBlobs)
	mux.HandleFunc("GET /v1/blobs/dump", s.handleDumpBlobs)
	mux.HandleFunc("GET /v1/blobs/orphans", s.handleOrphans)
	mux.HandleFunc("POST /v1/blobs/sweep", s.handleSweepBlobs)

	return mux
}
