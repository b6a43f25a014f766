package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/facecam/internal/session"
	"github.com/ayusman/facecam/internal/snapshot"
)

// Controller is the capture loop as seen from the control API.
type Controller interface {
	Start() error
	Stop()
	Running() bool
	RequestSnapshot() (snapshot.Result, error)
	State() *session.State
}

// ControlHandler handles the session control endpoints:
// /api/status, /api/detection, /api/features, /api/scale and /api/snapshot.
type ControlHandler struct {
	ctrl Controller
}

// NewControlHandler creates a new ControlHandler driving ctrl.
func NewControlHandler(ctrl Controller) *ControlHandler {
	return &ControlHandler{ctrl: ctrl}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resource := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api"), "/")

	switch {
	case resource == "status" && r.Method == http.MethodGet:
		h.status(w, r)
	case resource == "detection" && r.Method == http.MethodPost:
		h.detection(w, r)
	case resource == "features" && r.Method == http.MethodGet:
		h.listFeatures(w, r)
	case resource == "features" && r.Method == http.MethodPut:
		h.setFeature(w, r)
	case resource == "scale" && r.Method == http.MethodPut:
		h.setScale(w, r)
	case resource == "snapshot" && r.Method == http.MethodPost:
		h.snapshot(w, r)
	case resource == "status", resource == "detection", resource == "features",
		resource == "scale", resource == "snapshot":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

// Request and response types

type detectionRequest struct {
	Active *bool `json:"active"`
}

type featureRequest struct {
	Name    string `json:"name"`
	Enabled *bool  `json:"enabled"`
}

type scaleRequest struct {
	ScaleFactor float64 `json:"scale_factor"`
}

type statusResponse struct {
	Running  bool            `json:"running"`
	Status   string          `json:"status"`
	Features map[string]bool `json:"features"`
	Stats    session.Stats   `json:"stats"`
	Report   string          `json:"report"`
}

type featuresResponse struct {
	Features map[string]bool `json:"features"`
	Enabled  []string        `json:"enabled"`
}

type scaleResponse struct {
	ScaleFactor float64 `json:"scale_factor"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Step        float64 `json:"step"`
}

type snapshotResponse struct {
	Path    string `json:"path"`
	Counter int    `json:"counter"`
	SavedAt string `json:"saved_at"`
}

func (h *ControlHandler) currentStatus() statusResponse {
	st := h.ctrl.State().Stats()
	return statusResponse{
		Running:  h.ctrl.Running(),
		Status:   st.Status(),
		Features: h.ctrl.State().Settings().Features.Map(),
		Stats:    st,
		Report:   st.Report(),
	}
}

// status handles GET /api/status and returns the session summary.
func (h *ControlHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.currentStatus())
}

// detection handles POST /api/detection and starts or stops the capture loop.
func (h *ControlHandler) detection(w http.ResponseWriter, r *http.Request) {
	var req detectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Active == nil {
		writeError(w, http.StatusBadRequest, "active is required")
		return
	}

	if *req.Active {
		if err := h.ctrl.Start(); err != nil {
			log.Errorf("API start failed: %v", err)
			writeError(w, http.StatusServiceUnavailable, "Failed to start detection: "+err.Error())
			return
		}
	} else {
		h.ctrl.Stop()
	}

	writeJSON(w, http.StatusOK, h.currentStatus())
}

// listFeatures handles GET /api/features.
func (h *ControlHandler) listFeatures(w http.ResponseWriter, r *http.Request) {
	features := h.ctrl.State().Settings().Features
	writeJSON(w, http.StatusOK, featuresResponse{Features: features.Map(), Enabled: features.EnabledNames()})
}

// setFeature handles PUT /api/features and flips a single toggle.
func (h *ControlHandler) setFeature(w http.ResponseWriter, r *http.Request) {
	var req featureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	feature, err := session.ParseFeature(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	features := h.ctrl.State().SetFeature(feature, *req.Enabled).Features
	writeJSON(w, http.StatusOK, featuresResponse{Features: features.Map(), Enabled: features.EnabledNames()})
}

// setScale handles PUT /api/scale. Values are clamped to the slider range.
func (h *ControlHandler) setScale(w http.ResponseWriter, r *http.Request) {
	var req scaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ScaleFactor <= 0 || math.IsNaN(req.ScaleFactor) || math.IsInf(req.ScaleFactor, 0) {
		writeError(w, http.StatusBadRequest, "scale_factor must be a positive number")
		return
	}

	settings := h.ctrl.State().SetScaleFactor(req.ScaleFactor)
	writeJSON(w, http.StatusOK, scaleResponse{
		ScaleFactor: settings.ScaleFactor,
		Min:         session.MinScaleFactor,
		Max:         session.MaxScaleFactor,
		Step:        session.ScaleFactorStep,
	})
}

// snapshot handles POST /api/snapshot.
func (h *ControlHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	res, err := h.ctrl.RequestSnapshot()
	if err != nil {
		if errors.Is(err, snapshot.ErrNoFrame) {
			writeError(w, http.StatusConflict, "No frame available")
			return
		}
		log.Errorf("API snapshot failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save snapshot")
		return
	}

	writeJSON(w, http.StatusCreated, snapshotResponse{
		Path:    res.Path,
		Counter: res.Counter,
		SavedAt: res.SavedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
