package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/xgparam-core/internal/snapshot"
)

// saveSnapshotRequest is the body of POST /snapshots.
type saveSnapshotRequest struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// annotateSnapshotRequest is the body of PATCH /snapshots/{name}.
type annotateSnapshotRequest struct {
	Notes string `json:"notes"`
}

// handleListSnapshots returns every stored snapshot, most recent first.
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.snapshots.List(r.Context())
	if err != nil {
		s.logger.Error("listing snapshots", "error", err)
		writeInternalError(w, "failed to list snapshots")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps, "count": len(snaps)})
}

// handleGetSnapshot returns one snapshot's metadata.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeSnapshotError(w, err, "failed to get snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleSaveSnapshot stores the current registry state. Saving under an
// existing name replaces its values.
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var req saveSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	snap, err := s.snapshots.Save(ctx, req.Name, s.registry)
	if err != nil {
		s.writeSnapshotError(w, err, "failed to save snapshot")
		return
	}
	if req.Notes != "" {
		if err := s.snapshots.Annotate(ctx, req.Name, req.Notes); err != nil {
			s.writeSnapshotError(w, err, "failed to annotate snapshot")
			return
		}
		snap.Notes = req.Notes
	}

	s.logger.Info("snapshot saved", "name", snap.Name, "values", snap.Values)
	writeJSON(w, http.StatusCreated, snap)
}

// handleLoadSnapshot applies a stored snapshot to the registry.
func (s *Server) handleLoadSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	res, err := s.snapshots.Load(r.Context(), name, s.registry)
	if err != nil {
		s.writeSnapshotError(w, err, "failed to load snapshot")
		return
	}

	s.logger.Info("snapshot loaded", "name", name,
		"applied", res.Applied, "unresolved", res.Unresolved, "rejected", res.Rejected)
	writeJSON(w, http.StatusOK, res)
}

// handleAnnotateSnapshot replaces a snapshot's notes.
func (s *Server) handleAnnotateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req annotateSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	if err := s.snapshots.Annotate(ctx, name, req.Notes); err != nil {
		s.writeSnapshotError(w, err, "failed to annotate snapshot")
		return
	}
	snap, err := s.snapshots.Get(ctx, name)
	if err != nil {
		s.writeSnapshotError(w, err, "failed to get snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleDeleteSnapshot removes a snapshot.
func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.snapshots.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeSnapshotError(w, err, "failed to delete snapshot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeSnapshotError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		writeNotFound(w, "snapshot not found")
	case errors.Is(err, snapshot.ErrInvalidName):
		writeBadRequest(w, err.Error())
	default:
		s.logger.Error(message, "error", err)
		writeInternalError(w, message)
	}
}
