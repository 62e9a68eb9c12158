package server

import (
	"net/http"

	"wizdraft/internal/api"
	"wizdraft/internal/blobstore"
	"wizdraft/internal/models"
)

func (s *Server) handleListBlobs(w http.ResponseWriter, r *http.Request) {
	infos, err := s.blobs.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if infos == nil {
		infos = []models.BlobInfo{}
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleDumpBlobs(w http.ResponseWriter, r *http.Request) {
	infos, err := s.blobs.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := blobstore.WriteDump(w, infos, s.clock.Now()); err != nil {
		s.log().Warn("write blob dump", "error", err)
	}
}

func (s *Server) handleOrphans(w http.ResponseWriter, r *http.Request) {
	report, err := s.manager.Orphans(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp := api.OrphansResponse{
		Consistent:   report.Consistent(),
		Unreferenced: report.Unreferenced,
		Dangling:     make([]api.DanglingRef, 0, len(report.Dangling)),
	}
	for _, d := range report.Dangling {
		resp.Dangling = append(resp.Dangling, api.DanglingRef{Selector: d.Selector.String(), BlobID: d.BlobID})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSweepBlobs(w http.ResponseWriter, r *http.Request) {
	defaultAge, err := s.cfg.SweepMaxAgeDuration()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	maxAge, err := queryDuration(r, "max_age", defaultAge)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	force, err := queryBool(r, "force")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.withLimiter(w, r, s.sweepLimiter, "sweep", func() {
		resp := api.SweepResponse{MaxAge: maxAge.String(), Forced: force}
		if force {
			removed, err := s.manager.ForceSweep(r.Context(), maxAge)
			if err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			resp.Removed = removed
			s.writeJSON(w, http.StatusOK, resp)
			return
		}

		result, err := s.manager.Sweep(r.Context(), maxAge)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		resp.Scanned = result.Scanned
		resp.Removed = result.Removed
		resp.Kept = result.Kept
		resp.Failed = result.Failed
		resp.ReclaimedBytes = result.ReclaimedBytes
		s.writeJSON(w, http.StatusOK, resp)
	})
}
