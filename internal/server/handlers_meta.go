package server

import (
	"net/http"

	"wizdraft/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	status, err := s.snapshots.MigrationStatus()
	if err != nil {
		s.writeError(w, r, storeFailure(err))
		return
	}
	snapshot, ok, err := s.snapshots.SnapshotInfo(r.Context())
	if err != nil {
		s.writeError(w, r, storeFailure(err))
		return
	}

	policy := s.manager.Policy()
	resp := api.InfoResponse{
		DataDir:            s.cfg.DataDir,
		BlobBackend:        s.cfg.Blobs.Backend,
		AttachmentsEnabled: s.manager.Enabled(),
		Rehydrated:         s.rehydrator.Done(),
		MaxAttachmentBytes: policy.MaxBytes,
		AllowedMediaTypes:  policy.AllowedMediaTypes,
		SchemaVersion:      status.CurrentVersion,
	}
	if reason := s.manager.DisabledReason(); reason != nil {
		resp.DisabledReason = reason.Error()
	}
	if ok {
		updated := snapshot.UpdatedAt
		resp.SnapshotBytes = snapshot.SizeBytes
		resp.SnapshotUpdatedAt = &updated
	}

	s.writeJSON(w, http.StatusOK, resp)
}
