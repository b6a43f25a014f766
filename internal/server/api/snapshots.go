package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/facecam/internal/store"
)

// defaultSnapshotLimit caps GET /api/snapshots when no limit is given.
const defaultSnapshotLimit = 50

// SnapshotHandler serves the snapshot catalog.
type SnapshotHandler struct {
	store *store.Store
}

// NewSnapshotHandler creates a new SnapshotHandler with the given store.
func NewSnapshotHandler(s *store.Store) *SnapshotHandler {
	return &SnapshotHandler{store: s}
}

type listSnapshotsResponse struct {
	Snapshots []*store.Snapshot `json:"snapshots"`
	Total     int               `json:"total"`
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Expected paths: /api/snapshots or /api/snapshots/{id}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/snapshots"), "/")
	if id == "" {
		h.list(w, r)
		return
	}
	h.get(w, r, id)
}

// list handles GET /api/snapshots?limit=N&session=ID, newest first.
func (h *SnapshotHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultSnapshotLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	var (
		snaps []*store.Snapshot
		err   error
	)
	if sessionID := r.URL.Query().Get("session"); sessionID != "" {
		snaps, err = h.store.Snapshots().ListBySession(sessionID)
	} else {
		snaps, err = h.store.Snapshots().List(limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	total, err := h.store.Snapshots().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count snapshots")
		return
	}

	if snaps == nil {
		snaps = []*store.Snapshot{}
	}
	writeJSON(w, http.StatusOK, listSnapshotsResponse{Snapshots: snaps, Total: total})
}

// get handles GET /api/snapshots/{id}.
func (h *SnapshotHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	snap, err := h.store.Snapshots().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}
